// Package session implements the per-connection state machine (§4.5,
// §4.6): one Session per transport, dispatching inbound frames through
// the middleware pipeline to the fixed command handlers and tearing
// itself down idempotently.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"stompbroker/internal/config"
	"stompbroker/internal/events"
	"stompbroker/internal/frame"
	"stompbroker/internal/heartbeat"
	"stompbroker/internal/middleware"
	"stompbroker/internal/registry"
	"stompbroker/internal/transport"
)

// PseudoSessionID is the well-known session-id representing the
// embedding host (§3, §9). Subscriptions against it are delivered by
// emitting an event instead of writing to a transport.
const PseudoSessionID = "self_1234"

// State is a session's position in the opening -> connected -> closing
// -> closed lifecycle (§4.6).
type State int

const (
	Opening State = iota
	Connected
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Opening:
		return "opening"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lookup resolves a session-id to a live *Session. The broker façade
// implements this over its session table; the session package never
// holds that table itself, which keeps it free of an import cycle back
// to the façade.
type Lookup interface {
	Find(sessionID string) (*Session, bool)
}

// Deps bundles the shared broker-wide collaborators a session dispatches
// against. Every field is shared across all sessions except Config,
// which is copied by value.
type Deps struct {
	Registry   *registry.Registry
	Middleware *middleware.Pipeline
	Events     *events.Bus
	Config     config.Config
	Sessions   Lookup
}

// Session is one connection's worth of STOMP state: negotiated
// heartbeat, dispatch inbox, and teardown bookkeeping.
type Session struct {
	id        string
	transport transport.Transport
	deps      Deps

	mu    sync.Mutex
	state State

	lastRxMs  int64 // unix ms, updated atomically
	heartbeat *heartbeat.Supervisor

	inbox    chan []byte
	stopOnce sync.Once
	stopChan chan struct{}

	teardownMu sync.Mutex
	torndown   bool
}

// New builds a Session bound to t. It wires t's callbacks but does not
// yet start the dispatch loop; call Start for that.
func New(id string, t transport.Transport, deps Deps) *Session {
	s := &Session{
		id:        id,
		transport: t,
		deps:      deps,
		state:     Opening,
		inbox:     make(chan []byte, 64),
		stopChan:  make(chan struct{}),
	}
	s.touchRx()

	if t != nil {
		t.OnMessage(func(data []byte) {
			s.touchRx()
			select {
			case s.inbox <- data:
			case <-s.stopChan:
				// Session already torn down; drop rather than send on
				// a channel nothing is draining anymore.
			default:
				// Inbox full: the session is not draining fast enough
				// to keep up with the transport. Drop rather than
				// block the transport's own read loop.
				deps.Config.Logf("Session", "inbox full for %s, dropping frame", s.id)
			}
		})
		t.OnClose(func() {
			s.Teardown("transport closed")
		})
		t.OnError(func(err error) {
			deps.Config.Logf("Session", "transport error on %s: %v", s.id, err)
			s.deps.Events.Emit("error", err)
			s.Teardown("transport error")
		})
	}

	return s
}

// ID satisfies middleware.Session.
func (s *Session) ID() string { return s.id }

// IsPseudo reports whether this session is the in-process host
// pseudo-session (§3).
func (s *Session) IsPseudo() bool { return s.transport == nil }

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) touchRx() {
	now := time.Now().UnixMilli()
	for {
		prev := atomic.LoadInt64(&s.lastRxMs)
		// Monotonic non-decreasing per §3: never move backwards even if
		// called concurrently out of order.
		if now <= prev {
			return
		}
		if atomic.CompareAndSwapInt64(&s.lastRxMs, prev, now) {
			return
		}
	}
}

// LastRx returns the timestamp of the most recently received byte.
func (s *Session) LastRx() time.Time {
	return time.UnixMilli(atomic.LoadInt64(&s.lastRxMs))
}

// Start begins draining the inbox on a dedicated goroutine, so that no
// two handlers for this session ever run concurrently (§5, model b).
func (s *Session) Start() {
	s.deps.Events.Emit("connecting", s.id)
	go s.run()
}

func (s *Session) run() {
	for {
		select {
		case data := <-s.inbox:
			s.handleRaw(data)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Session) handleRaw(data []byte) {
	if frame.IsHeartbeat(data) {
		return
	}

	f, err := frame.Parse(data)
	if err != nil {
		s.deps.Config.Logf("Session", "malformed frame on %s: %v", s.id, err)
		s.sendError("Malformed frame", data)
		s.Teardown("malformed frame")
		return
	}

	s.dispatch(f)
}

func (s *Session) dispatch(f *frame.Frame) {
	defer func() {
		if r := recover(); r != nil {
			s.deps.Config.Logf("Session", "handler panic on %s: %v", s.id, r)
			s.sendError("Internal error", nil)
		}
	}()

	if s.State() != Connected && f.Command != frame.CONNECT && f.Command != frame.STOMP {
		s.sendError("Not connected", f.Body)
		s.Teardown("frame before connect")
		return
	}

	switch f.Command {
	case frame.CONNECT, frame.STOMP:
		s.handleConnect(f)
	case frame.SEND:
		s.handleSend(f)
	case frame.SUBSCRIBE:
		s.handleSubscribe(f)
	case frame.UNSUBSCRIBE:
		s.handleUnsubscribe(f)
	case frame.DISCONNECT:
		s.handleDisconnect(f)
	default:
		s.sendError("Command not found", nil)
		s.Teardown("unsupported command")
	}
}

// SendFrame serializes f and writes it to the transport. It is a no-op
// for the pseudo-session, which has none.
func (s *Session) SendFrame(f *frame.Frame) error {
	if s.transport == nil {
		return nil
	}
	return s.transport.Send(frame.Serialize(f))
}

func (s *Session) sendError(message string, body []byte) {
	errFrame := frame.New(frame.ERROR)
	errFrame.Header.Set(frame.HeaderMessage, message)
	errFrame.Body = body
	_ = s.SendFrame(errFrame)
}

// Teardown tears the session down per §4.6: drop its subscriptions,
// disarm heartbeat timers, close the transport, emit disconnected.
// Safe to call more than once.
func (s *Session) Teardown(reason string) {
	s.teardownMu.Lock()
	if s.torndown {
		s.teardownMu.Unlock()
		return
	}
	s.torndown = true
	s.teardownMu.Unlock()

	s.setState(Closing)
	s.deps.Config.Logf("Session", "tearing down %s (%s)", s.id, reason)

	s.deps.Registry.RemoveAll(s.id)

	if s.heartbeat != nil {
		s.heartbeat.Stop()
	}

	if s.transport != nil {
		_ = s.transport.Close()
	}

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	s.setState(Closed)
	s.deps.Events.Emit("disconnected", s.id)
}
