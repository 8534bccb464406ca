// Package frame implements the STOMP 1.1 wire grammar: parsing a byte
// buffer into a Frame and serializing a Frame back to bytes, per
// COMMAND LF (HEADER LF)* LF BODY NUL.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Client/server command names (§6).
const (
	CONNECT     = "CONNECT"
	STOMP       = "STOMP"
	SEND        = "SEND"
	SUBSCRIBE   = "SUBSCRIBE"
	UNSUBSCRIBE = "UNSUBSCRIBE"
	DISCONNECT  = "DISCONNECT"

	CONNECTED = "CONNECTED"
	MESSAGE   = "MESSAGE"
	ERROR     = "ERROR"
)

// Well-known header names.
const (
	HeaderAcceptVersion = "accept-version"
	HeaderVersion       = "version"
	HeaderHost          = "host"
	HeaderServer        = "server"
	HeaderSession       = "session"
	HeaderHeartBeat     = "heart-beat"
	HeaderDestination   = "destination"
	HeaderID            = "id"
	HeaderSubscription  = "subscription"
	HeaderMessageID     = "message-id"
	HeaderContentType   = "content-type"
	HeaderContentLength = "content-length"
	HeaderMessage       = "message"
)

// ContentTypeJSON is the content-type value that triggers structured
// JSON encode/decode of the body (§4.1, §9).
const ContentTypeJSON = "application/json"

const lf = 0x0A
const nul = 0x00

// ErrMalformedFrame is wrapped by every parse failure so callers can
// match it with errors.Is.
var ErrMalformedFrame = errors.New("frame: malformed frame")

// Frame is a single parsed or to-be-serialized STOMP frame.
type Frame struct {
	Command string
	Header  *Header
	Body    []byte
}

// New builds a frame with an empty header.
func New(command string) *Frame {
	return &Frame{Command: command, Header: NewHeader()}
}

// IsHeartbeat reports whether a raw transport payload is a bare LF
// heartbeat rather than a frame (§4.1, §4.7). The session layer must
// check this before calling Parse.
func IsHeartbeat(data []byte) bool {
	return len(data) == 1 && data[0] == lf
}

// Parse decodes exactly one STOMP frame from data. data must not be a
// heartbeat payload (checked separately via IsHeartbeat).
func Parse(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedFrame)
	}

	lines, bodyAndTerm, err := splitHead(data)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: missing command line", ErrMalformedFrame)
	}

	command := string(lines[0])
	if command == "" {
		return nil, fmt.Errorf("%w: empty command", ErrMalformedFrame)
	}
	if !isUpperToken(command) {
		return nil, fmt.Errorf("%w: command %q is not an uppercase token", ErrMalformedFrame, command)
	}

	header := NewHeader()
	for _, line := range lines[1:] {
		idx := bytes.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("%w: header %q has no colon", ErrMalformedFrame, string(line))
		}
		key := string(line[:idx])
		value := string(line[idx+1:])
		// First occurrence wins on duplicate keys (§8).
		header.addIfAbsent(key, value)
	}

	body, err := splitBody(header, bodyAndTerm)
	if err != nil {
		return nil, err
	}

	return &Frame{Command: command, Header: header, Body: body}, nil
}

// splitHead separates the COMMAND/header block (one byte slice per
// line, command first) from the remaining bytes (body + NUL
// terminator), using the blank line that ends the header block.
func splitHead(data []byte) (lines [][]byte, rest []byte, err error) {
	start := 0
	for {
		idx := bytes.IndexByte(data[start:], lf)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: unterminated header block", ErrMalformedFrame)
		}
		line := data[start : start+idx]
		start += idx + 1
		if len(line) == 0 {
			// Blank line: end of headers.
			return lines, data[start:], nil
		}
		lines = append(lines, line)
	}
}

func splitBody(header *Header, bodyAndTerm []byte) ([]byte, error) {
	if clStr, ok := header.Get(HeaderContentLength); ok {
		length, err := strconv.Atoi(clStr)
		if err != nil || length < 0 {
			return nil, fmt.Errorf("%w: invalid content-length %q", ErrMalformedFrame, clStr)
		}
		if len(bodyAndTerm) < length+1 {
			return nil, fmt.Errorf("%w: content-length %d does not match body", ErrMalformedFrame, length)
		}
		if bodyAndTerm[length] != nul {
			return nil, fmt.Errorf("%w: content-length %d does not match body", ErrMalformedFrame, length)
		}
		return bodyAndTerm[:length], nil
	}

	idx := bytes.IndexByte(bodyAndTerm, nul)
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing terminating NUL", ErrMalformedFrame)
	}
	return bodyAndTerm[:idx], nil
}

func isUpperToken(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Serialize encodes f per the STOMP 1.1 grammar. If Body is non-empty
// and content-length is not already set, it is added.
func Serialize(f *Frame) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(f.Command)
	buf.WriteByte(lf)

	header := f.Header
	if header == nil {
		header = NewHeader()
	}

	_, hasCL := header.Get(HeaderContentLength)
	if len(f.Body) > 0 && !hasCL {
		header = header.Clone()
		header.Set(HeaderContentLength, strconv.Itoa(len(f.Body)))
	}

	for i := 0; i < header.Len(); i++ {
		k, v := header.At(i)
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(v)
		buf.WriteByte(lf)
	}
	buf.WriteByte(lf)
	buf.Write(f.Body)
	buf.WriteByte(nul)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}
