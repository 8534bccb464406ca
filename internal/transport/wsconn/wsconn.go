// Package wsconn adapts a server-side gorilla/websocket connection to
// the broker's transport.Transport interface. It is the concrete,
// optional Transport implementation an embedding host can use; the
// read-loop-goroutine-plus-callback shape is carried over directly from
// the teacher's internal/stomp/client.go websocketConn, turned around
// to the server side of the connection.
package wsconn

import (
	"sync"

	"github.com/gorilla/websocket"

	"stompbroker/internal/transport"
)

// Adapter wraps *websocket.Conn as a transport.Transport. Each STOMP
// frame (or bare heartbeat LF) is sent as one WebSocket text message;
// each inbound text or binary message is handed on as one payload,
// matching "each WebSocket payload is exactly one STOMP
// frame or a single LF heartbeat" (§6).
type Adapter struct {
	conn *websocket.Conn

	mu    sync.Mutex
	state transport.ReadyState

	onMessage func([]byte)
	onClose   func()
	onError   func(error)
}

// New wraps conn and starts its read loop. The caller should have
// already completed the HTTP upgrade; New takes ownership of conn from
// that point on.
func New(conn *websocket.Conn) *Adapter {
	a := &Adapter{conn: conn, state: transport.Open}
	go a.readLoop()
	return a
}

func (a *Adapter) OnMessage(f func([]byte)) {
	a.mu.Lock()
	a.onMessage = f
	a.mu.Unlock()
}

func (a *Adapter) OnClose(f func()) {
	a.mu.Lock()
	a.onClose = f
	a.mu.Unlock()
}

func (a *Adapter) OnError(f func(error)) {
	a.mu.Lock()
	a.onError = f
	a.mu.Unlock()
}

// ReadyState reports the current connection state.
func (a *Adapter) ReadyState() transport.ReadyState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Send writes data as a single WebSocket text message.
func (a *Adapter) Send(data []byte) error {
	a.mu.Lock()
	if a.state != transport.Open {
		a.mu.Unlock()
		return websocket.ErrCloseSent
	}
	a.mu.Unlock()

	// gorilla/websocket requires serialized writes; guard with the same
	// mutex used for state so Send from the heartbeat supervisor and
	// Send from the session dispatch loop never interleave.
	a.mu.Lock()
	err := a.conn.WriteMessage(websocket.TextMessage, data)
	a.mu.Unlock()
	return err
}

// Close closes the underlying connection. Safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.state == transport.Closed {
		a.mu.Unlock()
		return nil
	}
	a.state = transport.Closed
	a.mu.Unlock()

	return a.conn.Close()
}

func (a *Adapter) readLoop() {
	for {
		msgType, data, err := a.conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			closing := a.state == transport.Closed
			a.state = transport.Closed
			onClose := a.onClose
			onError := a.onError
			a.mu.Unlock()

			if !closing && onError != nil {
				onError(err)
			}
			if onClose != nil {
				onClose()
			}
			return
		}

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		a.mu.Lock()
		cb := a.onMessage
		a.mu.Unlock()
		if cb != nil {
			cb(data)
		}
	}
}
