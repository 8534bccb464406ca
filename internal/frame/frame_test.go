package frame_test

import (
	"bytes"
	"errors"
	"testing"

	"stompbroker/internal/frame"
)

func TestParse_ConnectFrame(t *testing.T) {
	raw := []byte("CONNECT\naccept-version:1.1\nhost:x\nheart-beat:5000,10000\n\n\x00")

	f, err := frame.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.Command != frame.CONNECT {
		t.Errorf("expected CONNECT, got %s", f.Command)
	}
	if v, ok := f.Header.Get("heart-beat"); !ok || v != "5000,10000" {
		t.Errorf("expected heart-beat header, got %q ok=%v", v, ok)
	}
	if len(f.Body) != 0 {
		t.Errorf("expected empty body, got %q", f.Body)
	}
}

func TestParse_BodyWithContentLength(t *testing.T) {
	raw := []byte("SEND\ndestination:/foo\ncontent-type:text/plain\ncontent-length:5\n\nhello\x00")

	f, err := frame.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if string(f.Body) != "hello" {
		t.Errorf("expected body hello, got %q", f.Body)
	}
}

func TestParse_BodyTerminatesAtNulWithoutContentLength(t *testing.T) {
	raw := []byte("SEND\ndestination:/foo\n\nhello\x00")

	f, err := frame.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if string(f.Body) != "hello" {
		t.Errorf("expected body hello, got %q", f.Body)
	}
}

func TestParse_MissingCommandLine(t *testing.T) {
	_, err := frame.Parse([]byte("\n\n\x00"))
	if !errors.Is(err, frame.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestParse_HeaderWithoutColon(t *testing.T) {
	raw := []byte("SEND\ndestinationfoo\n\n\x00")
	_, err := frame.Parse(raw)
	if !errors.Is(err, frame.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestParse_ContentLengthMismatch(t *testing.T) {
	raw := []byte("SEND\ncontent-length:10\n\nhello\x00")
	_, err := frame.Parse(raw)
	if !errors.Is(err, frame.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestParse_MissingNul(t *testing.T) {
	raw := []byte("SEND\ndestination:/foo\n\nhello")
	_, err := frame.Parse(raw)
	if !errors.Is(err, frame.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestParse_DuplicateHeaderKeepsFirst(t *testing.T) {
	raw := []byte("SEND\nfoo:first\nfoo:second\n\n\x00")
	f, err := frame.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v, _ := f.Header.Get("foo"); v != "first" {
		t.Errorf("expected first occurrence to win, got %q", v)
	}
}

func TestIsHeartbeat(t *testing.T) {
	if !frame.IsHeartbeat([]byte("\n")) {
		t.Error("expected single LF to be a heartbeat")
	}
	if frame.IsHeartbeat([]byte("\n\n")) {
		t.Error("two LFs should not be a heartbeat")
	}
	if frame.IsHeartbeat([]byte("CONNECT\n\n\x00")) {
		t.Error("a real frame should not be a heartbeat")
	}
}

func TestSerialize_AddsContentLength(t *testing.T) {
	f := frame.New(frame.MESSAGE)
	f.Header.Add(frame.HeaderDestination, "/foo")
	f.Body = []byte("hello")

	out := frame.Serialize(f)
	if !bytes.Contains(out, []byte("content-length:5\n")) {
		t.Errorf("expected content-length header in %q", out)
	}
	if out[len(out)-1] != 0 {
		t.Error("expected NUL terminator")
	}
}

func TestRoundTrip(t *testing.T) {
	f := frame.New(frame.SEND)
	f.Header.Add(frame.HeaderDestination, "/a/b")
	f.Header.Add(frame.HeaderContentType, "text/plain")
	f.Body = []byte("payload")

	out := frame.Serialize(f)
	got, err := frame.Parse(out)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got.Command != f.Command {
		t.Errorf("command mismatch: %q != %q", got.Command, f.Command)
	}
	if string(got.Body) != string(f.Body) {
		t.Errorf("body mismatch: %q != %q", got.Body, f.Body)
	}
	for i := 0; i < f.Header.Len(); i++ {
		k, v := f.Header.At(i)
		gv, ok := got.Header.Get(k)
		if !ok || gv != v {
			t.Errorf("header %s: expected %q got %q (ok=%v)", k, v, gv, ok)
		}
	}
}

func TestEncodeDecodeBody_JSON(t *testing.T) {
	body, err := frame.EncodeBody(frame.ContentTypeJSON, map[string]interface{}{"a": float64(1)})
	if err != nil {
		t.Fatalf("EncodeBody failed: %v", err)
	}

	v, err := frame.DecodeBody(frame.ContentTypeJSON, body)
	if err != nil {
		t.Fatalf("DecodeBody failed: %v", err)
	}
	m, ok := v.(map[string]interface{})
	if !ok || m["a"] != float64(1) {
		t.Errorf("unexpected decoded value: %#v", v)
	}
}

func TestEncodeDecodeBody_PlainPassthrough(t *testing.T) {
	body, err := frame.EncodeBody("text/plain", "hello")
	if err != nil {
		t.Fatalf("EncodeBody failed: %v", err)
	}
	v, err := frame.DecodeBody("text/plain", body)
	if err != nil {
		t.Fatalf("DecodeBody failed: %v", err)
	}
	b, ok := v.([]byte)
	if !ok || string(b) != "hello" {
		t.Errorf("expected passthrough bytes, got %#v", v)
	}
}
