// Package memtransport provides an in-process pair of Transport
// implementations connected by direct, synchronous callback calls (a
// Send on one side invokes the other side's on-message callback before
// returning), used by the broker's
// own tests to exercise full session behavior without a real network
// or WebSocket round-trip. The handler registration style mirrors the
// teacher's internal/listener/websocket.go FrameHandler pattern.
package memtransport

import (
	"errors"
	"sync"

	"stompbroker/internal/transport"
)

// Pair returns two linked transports: writes to one arrive as messages
// on the other.
func Pair() (a, b *Transport) {
	a = New()
	b = New()
	a.peer = b
	b.peer = a
	return a, b
}

// Transport is a minimal, goroutine-safe transport.Transport backed by
// an in-memory peer rather than a socket.
type Transport struct {
	mu    sync.Mutex
	peer  *Transport
	state transport.ReadyState

	onMessage func([]byte)
	onClose   func()
	onError   func(error)
}

// New returns a standalone transport with no peer wired yet. Use Pair
// for a connected pair.
func New() *Transport {
	return &Transport{state: transport.Open}
}

func (t *Transport) OnMessage(f func([]byte)) { t.mu.Lock(); t.onMessage = f; t.mu.Unlock() }
func (t *Transport) OnClose(f func())         { t.mu.Lock(); t.onClose = f; t.mu.Unlock() }
func (t *Transport) OnError(f func(error))    { t.mu.Lock(); t.onError = f; t.mu.Unlock() }

func (t *Transport) ReadyState() transport.ReadyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Send delivers data to the peer's on-message callback synchronously.
func (t *Transport) Send(data []byte) error {
	t.mu.Lock()
	if t.state != transport.Open {
		t.mu.Unlock()
		return errors.New("memtransport: send on closed transport")
	}
	peer := t.peer
	t.mu.Unlock()

	if peer == nil {
		return errors.New("memtransport: no peer wired")
	}

	peer.mu.Lock()
	cb := peer.onMessage
	peer.mu.Unlock()
	if cb != nil {
		cb(append([]byte(nil), data...))
	}
	return nil
}

// Close marks the transport closed and fires its own on-close callback.
// It does not propagate to the peer: the peer stays open, and its own
// on-close callback fires only when Close is called on it.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.state == transport.Closed {
		t.mu.Unlock()
		return nil
	}
	t.state = transport.Closed
	cb := t.onClose
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// DeliverRaw injects data into this transport's on-message callback, as
// if it had arrived from the wire. Used by tests that want to hand the
// session raw bytes without going through a peer.
func (t *Transport) DeliverRaw(data []byte) {
	t.mu.Lock()
	cb := t.onMessage
	t.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}
