package compat_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"stompbroker"
	"stompbroker/internal/compat"
	"stompbroker/internal/config"
	"stompbroker/internal/transport/wsconn"
)

// TestBroker_RealWebSocketWireFormat drives the broker through an
// actual HTTP upgrade and an unmodified third-party STOMP client
// (go-stomp/stomp), rather than the in-memory transport the rest of
// this module's tests use. It exists to prove the frame codec and
// session dispatch produce genuine STOMP 1.1 over the wire, not just a
// shape the broker's own fixtures happen to agree with.
func TestBroker_RealWebSocketWireFormat(t *testing.T) {
	upgrader := websocket.Upgrader{}
	b := stompbroker.New(config.Config{Heartbeat: [2]int{0, 0}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		b.HandleConnection(wsconn.New(conn))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	netConn, err := compat.Dial(wsURL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	conn, err := stomp.Connect(netConn, stomp.ConnOpt.HeartBeat(0, 0))
	if err != nil {
		t.Fatalf("stomp connect: %v", err)
	}
	defer conn.Disconnect()

	sub, err := conn.Subscribe("/rooms.42", stomp.AckAuto)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := b.Publish("/rooms.42", nil, "hello over the wire"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-sub.C:
		if msg.Err != nil {
			t.Fatalf("subscription error: %v", msg.Err)
		}
		if string(msg.Body) != "hello over the wire" {
			t.Errorf("expected body %q, got %q", "hello over the wire", msg.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for MESSAGE over the real WebSocket connection")
	}
}
