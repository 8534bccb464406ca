// Package compat dials a plain STOMP-over-WebSocket connection and
// hands back a net.Conn go-stomp/stomp's own client can speak STOMP
// 1.1 over directly. It is adapted from the teacher's
// internal/stomp/client.go dialWebSocket/websocketConn pair, stripped
// of the teacher's SockJS framing, bearer-token auth, and
// reconnect-monitor loop: this package exists to let the broker's own
// tests drive a real gorilla/websocket connection with an unmodified
// third-party STOMP client, proving the wire format is genuine STOMP
// 1.1 and not just an internal fixture.
package compat

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Dial opens a WebSocket connection to urlStr (a ws:// or wss:// URL)
// and returns it wrapped as a net.Conn. Each net.Conn Write call sends
// exactly one WebSocket message, and a Read never returns bytes from
// more than one message (a message larger than the caller's buffer is
// returned over several Reads), matching "each WebSocket payload is
// exactly one STOMP frame or a single LF heartbeat" (§6) — unlike the
// teacher's client, no SockJS array wrapping is applied.
func Dial(urlStr string) (net.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(urlStr, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: conn}, nil
}

// wsConn adapts *websocket.Conn to net.Conn for a STOMP client that
// expects a byte stream, buffering the tail of a message-framed read
// across short Read calls.
type wsConn struct {
	ws      *websocket.Conn
	pending []byte
}

func (c *wsConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.pending = data
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error                       { return c.ws.Close() }
func (c *wsConn) LocalAddr() net.Addr                { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr               { return c.ws.RemoteAddr() }
func (c *wsConn) SetDeadline(t time.Time) error      { _ = c.ws.SetReadDeadline(t); return c.ws.SetWriteDeadline(t) }
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
