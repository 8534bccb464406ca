// Package config holds the broker's enumerated configuration options
// (§6) and the pure heartbeat negotiation rule (§4.5).
package config

import "fmt"

// Debug is the diagnostic sink the broker writes free-form strings to.
// The zero value (nil) is treated as a no-op by Config.Logf.
type Debug func(msg string)

// Config is the broker's configuration record. Server is the only
// required field; everything else has a default applied by
// WithDefaults.
type Config struct {
	// Server identifies the transport host the embedding application
	// is running the broker on. The core never dials or listens on
	// this itself (the WebSocket server is an external collaborator,
	// §1) — it is informational, surfaced to hosts that want it (e.g.
	// logging, or a demo command deciding what address to bind).
	Server string

	// ServerName is the value for the CONNECTED frame's "server"
	// header. Defaults to "STOMP-JS/<version>".
	ServerName string

	// Path is the WebSocket upgrade path. Defaults to "/stomp".
	Path string

	// Heartbeat is the broker's own [sx, sy] pair in milliseconds,
	// negotiated against each client's requested heart-beat header.
	// Defaults to [10000, 10000].
	Heartbeat [2]int

	// HeartbeatErrorMarginMs is slack added to the negotiated
	// client-receive interval before a session is declared timed out.
	// Defaults to 1000.
	HeartbeatErrorMarginMs int

	// Debug receives diagnostic strings. Defaults to a no-op.
	Debug Debug

	// Protocol selects a transport adapter (e.g. "ws"); ProtocolConfig
	// is passed through to it unparsed. The core does not interpret
	// either field itself — they exist for the embedding host's wiring
	// convenience.
	Protocol       string
	ProtocolConfig interface{}
}

// Version is the broker core's own version string, used to build the
// default ServerName.
const Version = "1.0.0"

// WithDefaults returns a copy of c with every unset field replaced by
// its documented default.
func (c Config) WithDefaults() Config {
	if c.ServerName == "" {
		c.ServerName = fmt.Sprintf("STOMP-JS/%s", Version)
	}
	if c.Path == "" {
		c.Path = "/stomp"
	}
	if c.Heartbeat == ([2]int{}) {
		c.Heartbeat = [2]int{10000, 10000}
	}
	if c.HeartbeatErrorMarginMs == 0 {
		c.HeartbeatErrorMarginMs = 1000
	}
	if c.Debug == nil {
		c.Debug = func(string) {}
	}
	return c
}

// Logf formats and forwards a message to Debug, prefixed with a
// bracketed component tag, matching the teacher's "[STOMP] ..."
// logging texture.
func (c Config) Logf(component, format string, args ...interface{}) {
	if c.Debug == nil {
		return
	}
	c.Debug(fmt.Sprintf("[%s] %s", component, fmt.Sprintf(format, args...)))
}

// NegotiateHeartbeat applies the STOMP 1.1 heart-beat negotiation rule
// (§4.5) between the broker's configured [sx, sy] pair and a client's
// requested "heart-beat: cx,cy" header:
//
//	server-send interval  = max(sx, cy) if both non-zero, else 0
//	client-send interval  = max(sy, cx) if both non-zero, else 0
//
// serverSend is how often this broker will write an LF beacon;
// clientSend is how often it expects the client to write one (and so
// the interval the client-receive timer polls on).
func NegotiateHeartbeat(serverHeartbeat [2]int, clientCx, clientCy int) (serverSend, clientSend int) {
	sx, sy := serverHeartbeat[0], serverHeartbeat[1]

	if sx != 0 && clientCy != 0 {
		serverSend = max(sx, clientCy)
	}
	if sy != 0 && clientCx != 0 {
		clientSend = max(sy, clientCx)
	}
	return serverSend, clientSend
}
