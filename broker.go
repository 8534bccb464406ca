// Package stompbroker is an embeddable STOMP 1.1 message broker that
// runs over a WebSocket-shaped transport abstraction (§1). Broker is
// the public façade an embedding host wires a transport into and
// subscribes/publishes against directly, in-process.
package stompbroker

import (
	"sync"

	"github.com/google/uuid"

	"stompbroker/internal/config"
	"stompbroker/internal/events"
	"stompbroker/internal/frame"
	"stompbroker/internal/middleware"
	"stompbroker/internal/registry"
	"stompbroker/internal/session"
	"stompbroker/internal/transport"
)

// Broker is the embeddable core described by §2's component table: it
// owns the subscription registry, the middleware pipeline, the event
// bus, and the table of live sessions, and exposes HandleConnection for
// the external WebSocket collaborator plus Subscribe/Unsubscribe/
// Publish for the embedding host (§4.8).
type Broker struct {
	config     config.Config
	registry   *registry.Registry
	middleware *middleware.Pipeline
	events     *events.Bus

	mu       sync.RWMutex
	sessions map[string]*session.Session

	pseudo *session.Session
}

// New builds a Broker from cfg, applying documented defaults (§6) for
// any unset field, and wires the in-process pseudo-session used by
// Subscribe/Publish.
func New(cfg config.Config) *Broker {
	b := &Broker{
		config:     cfg.WithDefaults(),
		registry:   registry.New(),
		middleware: middleware.New(),
		events:     events.New(),
		sessions:   make(map[string]*session.Session),
	}

	deps := session.Deps{
		Registry:   b.registry,
		Middleware: b.middleware,
		Events:     b.events,
		Config:     b.config,
		Sessions:   b,
	}
	b.pseudo = session.New(session.PseudoSessionID, nil, deps)
	b.pseudo.Start()

	b.events.On("disconnected", func(args ...interface{}) {
		if id, ok := args[0].(string); ok {
			b.removeSession(id)
		}
	})

	return b
}

// Find implements session.Lookup over the broker's live session table,
// including the pseudo-session under its sentinel id.
func (b *Broker) Find(id string) (*session.Session, bool) {
	if id == session.PseudoSessionID {
		return b.pseudo, true
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[id]
	return s, ok
}

// Middleware exposes the broker's interceptor registration surface
// (§4.4) to the embedding host.
func (b *Broker) Middleware() *middleware.Pipeline { return b.middleware }

// Events exposes the broker's host-facing event bus (§9).
func (b *Broker) Events() *events.Bus { return b.events }

// HandleConnection is the out-of-scope WebSocket server's single entry
// point into the broker core (§1's on-connection): it allocates a
// fresh session-id, builds a Session over t, and starts its dispatch
// loop. The returned id is also emitted with the "connecting" event.
func (b *Broker) HandleConnection(t transport.Transport) string {
	id := uuid.NewString()

	deps := session.Deps{
		Registry:   b.registry,
		Middleware: b.middleware,
		Events:     b.events,
		Config:     b.config,
		Sessions:   b,
	}
	s := session.New(id, t, deps)

	b.mu.Lock()
	b.sessions[id] = s
	b.mu.Unlock()

	s.Start()
	return id
}

// removeSession drops a session from the table once it has torn down.
// The session itself doesn't call this (its only handle on the broker
// is the session.Lookup interface, which offers Find alone); New wires
// it to the broker's own "disconnected" event instead.
func (b *Broker) removeSession(id string) {
	b.mu.Lock()
	delete(b.sessions, id)
	b.mu.Unlock()
}

// Subscribe registers a subscription bound to the in-process
// pseudo-session (§4.8). If headers["id"] is set it is honored as the
// subscription id; otherwise a fresh id is generated. If callback is
// non-nil it is registered as the event handler for the returned
// subscription id, invoked as callback(body, headers) on each matching
// SEND.
func (b *Broker) Subscribe(topic string, callback func(body interface{}, headers *frame.Header), headers map[string]string) string {
	id := headers["id"]
	if id == "" {
		id = uuid.NewString()
	}

	sub := registry.NewSubscription(id, session.PseudoSessionID, topic)
	b.registry.Add(sub)
	b.events.Emit("subscribe", sub)

	if callback != nil {
		b.events.On(id, func(args ...interface{}) {
			body := args[0]
			var hdr *frame.Header
			if len(args) > 1 {
				hdr, _ = args[1].(*frame.Header)
			}
			callback(body, hdr)
		})
	}

	return id
}

// Unsubscribe removes sub-id's subscription from the pseudo-session and
// unregisters every event handler bound to it, reporting whether a
// subscription was actually removed (§4.8).
func (b *Broker) Unsubscribe(subID string) bool {
	removed := b.registry.Remove(session.PseudoSessionID, subID)
	if removed {
		b.events.Emit("unsubscribe", session.PseudoSessionID, subID)
	}
	b.events.OffAll(subID)
	return removed
}

// Publish runs body through the same SEND pipeline a network session
// uses, as if the pseudo-session had issued it (§4.8). headers may be
// nil. Self-suppression still applies: the pseudo-session never
// receives its own publish (§9, preserved from the source behavior).
func (b *Broker) Publish(destination string, headers map[string]string, body interface{}) error {
	h := frame.NewHeader()
	for k, v := range headers {
		h.Set(k, v)
	}
	contentType, _ := h.Get(frame.HeaderContentType)
	if contentType == "" && isStructured(body) {
		contentType = frame.ContentTypeJSON
		h.Set(frame.HeaderContentType, contentType)
	}

	args := &session.SendArgs{
		Destination: destination,
		Header:      h,
		Body:        body,
		ContentType: contentType,
	}
	return b.pseudo.Publish(args)
}

func isStructured(v interface{}) bool {
	switch v.(type) {
	case nil, string, []byte:
		return false
	default:
		return true
	}
}
