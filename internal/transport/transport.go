// Package transport defines the abstraction the broker core consumes
// for the external WebSocket collaborator (§1): on-connection is the
// host calling broker.HandleConnection with a Transport; on-message,
// on-close and on-error are callbacks the Transport invokes; Send and
// Close are how the core writes to and tears down the wire.
package transport

// ReadyState mirrors the WebSocket readyState probe the spec asks the
// transport abstraction to expose.
type ReadyState int

const (
	Connecting ReadyState = iota
	Open
	Closing
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the external collaborator a session is built on. The
// broker core never frames WebSocket traffic itself; it only calls
// Send/Close and reacts to the callbacks registered via OnMessage/
// OnClose/OnError.
type Transport interface {
	// Send writes one message-framed payload (a serialized STOMP frame
	// or a single heartbeat LF byte) to the peer.
	Send(data []byte) error
	// Close tears down the underlying connection. Calling Close more
	// than once must be safe.
	Close() error
	// ReadyState reports the current connection state.
	ReadyState() ReadyState

	// OnMessage registers the callback invoked for each inbound
	// message-framed payload.
	OnMessage(func(data []byte))
	// OnClose registers the callback invoked once the transport closes,
	// whether locally or remotely initiated.
	OnClose(func())
	// OnError registers the callback invoked on a transport-level error
	// (§7, TransportError).
	OnError(func(err error))
}
