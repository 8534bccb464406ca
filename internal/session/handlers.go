package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"stompbroker/internal/config"
	"stompbroker/internal/destmatch"
	"stompbroker/internal/frame"
	"stompbroker/internal/heartbeat"
	"stompbroker/internal/middleware"
	"stompbroker/internal/registry"
)

// ConnectArgs is the middleware payload for the connect command.
type ConnectArgs struct {
	Frame *frame.Frame
}

// SendArgs is the middleware payload for the send command. Body holds
// the already content-type-decoded value: a decoded JSON value when
// content-type is application/json, otherwise the raw []byte body of a
// network SEND (or whatever value the host passed to Broker.Publish).
type SendArgs struct {
	Destination string
	Header      *frame.Header
	Body        interface{}
	ContentType string
	RawBody     []byte
}

// SubscribeArgs is the middleware payload for the subscribe command.
type SubscribeArgs struct {
	ID          string
	Destination string
}

// UnsubscribeArgs is the middleware payload for the unsubscribe command.
type UnsubscribeArgs struct {
	ID string
}

// DisconnectArgs is the middleware payload for the disconnect command.
type DisconnectArgs struct{}

func (s *Session) handleConnect(f *frame.Frame) {
	err := s.deps.Middleware.Run(middleware.Connect, s, &ConnectArgs{Frame: f}, s.connectTerminal)
	if err != nil {
		s.sendError(err.Error(), nil)
		s.Teardown("connect rejected")
	}
}

func (s *Session) connectTerminal(_ middleware.Session, args interface{}) error {
	a := args.(*ConnectArgs)
	f := a.Frame

	if av, ok := f.Header.Get(frame.HeaderAcceptVersion); ok {
		if !strings.Contains(av, "1.1") {
			return errNotFound("accept-version must include 1.1")
		}
	}

	cx, cy := 0, 0
	if hb, ok := f.Header.Get(frame.HeaderHeartBeat); ok {
		cx, cy = parseHeartBeat(hb)
	}

	cfg := s.deps.Config
	serverSend, clientSend := config.NegotiateHeartbeat(cfg.Heartbeat, cx, cy)

	s.setState(Connected)
	s.armHeartbeat(serverSend, clientSend)

	connected := frame.New(frame.CONNECTED)
	connected.Header.Add(frame.HeaderVersion, "1.1")
	connected.Header.Add(frame.HeaderServer, cfg.ServerName)
	connected.Header.Add(frame.HeaderSession, s.id)
	connected.Header.Add(frame.HeaderHeartBeat, joinHeartBeat(serverSend, clientSend))

	if err := s.SendFrame(connected); err != nil {
		return err
	}

	s.deps.Events.Emit("connected", s.id, connected.Header)
	return nil
}

func (s *Session) armHeartbeat(serverSendMs, clientSendMs int) {
	cfg := s.deps.Config
	s.heartbeat = heartbeat.New(heartbeat.Config{
		SendInterval: time.Duration(serverSendMs) * time.Millisecond,
		RecvInterval: time.Duration(clientSendMs) * time.Millisecond,
		ErrorMargin:  time.Duration(cfg.HeartbeatErrorMarginMs) * time.Millisecond,
		Send: func() error {
			if s.transport == nil {
				return nil
			}
			return s.transport.Send([]byte{0x0A})
		},
		LastRx: s.LastRx,
		OnTimeout: func() {
			s.Teardown("heartbeat timeout")
		},
	})
	s.heartbeat.Start()
}

func parseHeartBeat(value string) (cx, cy int) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	cx, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	cy, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	return cx, cy
}

func joinHeartBeat(sx, sy int) string {
	return strconv.Itoa(sx) + "," + strconv.Itoa(sy)
}

func (s *Session) handleSubscribe(f *frame.Frame) {
	dest, ok := f.Header.Get(frame.HeaderDestination)
	if !ok {
		s.sendError("Missing destination header", nil)
		return
	}
	id, ok := f.Header.Get(frame.HeaderID)
	if !ok {
		s.sendError("Missing id header", nil)
		return
	}

	err := s.deps.Middleware.Run(middleware.Subscribe, s, &SubscribeArgs{ID: id, Destination: dest}, s.subscribeTerminal)
	if err != nil {
		s.sendError(err.Error(), nil)
	}
}

func (s *Session) subscribeTerminal(_ middleware.Session, args interface{}) error {
	a := args.(*SubscribeArgs)

	if s.deps.Registry.Has(s.id, a.ID) {
		return errProtocolViolation("Duplicate subscription id")
	}

	sub := registry.NewSubscription(a.ID, s.id, a.Destination)
	s.deps.Registry.Add(sub)
	s.deps.Events.Emit("subscribe", sub)
	return nil
}

func (s *Session) handleUnsubscribe(f *frame.Frame) {
	id, ok := f.Header.Get(frame.HeaderID)
	if !ok {
		s.sendError("Missing id header", nil)
		return
	}

	err := s.deps.Middleware.Run(middleware.Unsubscribe, s, &UnsubscribeArgs{ID: id}, s.unsubscribeTerminal)
	if err != nil {
		s.sendError(err.Error(), nil)
	}
}

func (s *Session) unsubscribeTerminal(_ middleware.Session, args interface{}) error {
	a := args.(*UnsubscribeArgs)
	removed := s.deps.Registry.Remove(s.id, a.ID)
	if removed {
		s.deps.Events.Emit("unsubscribe", s.id, a.ID)
	}
	// A miss is silent per §4.5: the registry's boolean is discarded.
	return nil
}

// Publish runs args through the send middleware chain and the same
// terminal fan-out handleSend uses, as if it had arrived as a SEND
// frame on this session. Used by the broker façade to implement
// host-side publish() through the pseudo-session (§4.8).
func (s *Session) Publish(args *SendArgs) error {
	return s.deps.Middleware.Run(middleware.Send, s, args, s.sendTerminal)
}

func (s *Session) handleSend(f *frame.Frame) {
	dest, ok := f.Header.Get(frame.HeaderDestination)
	if !ok {
		s.sendError("Missing destination header", nil)
		return
	}

	contentType, _ := f.Header.Get(frame.HeaderContentType)
	body, err := frame.DecodeBody(contentType, f.Body)
	if err != nil {
		s.sendError("Malformed body", f.Body)
		return
	}

	args := &SendArgs{
		Destination: dest,
		Header:      f.Header,
		Body:        body,
		ContentType: contentType,
		RawBody:     f.Body,
	}

	if err := s.deps.Middleware.Run(middleware.Send, s, args, s.sendTerminal); err != nil {
		s.sendError(err.Error(), nil)
	}
}

func (s *Session) sendTerminal(_ middleware.Session, args interface{}) error {
	a := args.(*SendArgs)

	encoded, err := frame.EncodeBody(a.ContentType, a.Body)
	if err != nil {
		return err
	}

	base := frame.New(frame.MESSAGE)
	base.Header.Add(frame.HeaderMessageID, uuid.NewString())
	base.Header.Add(frame.HeaderContentType, "text/plain")
	base.Header.Overlay(a.Header)
	base.Body = encoded
	base.Header.Set(frame.HeaderContentLength, strconv.Itoa(len(encoded)))

	pubTokens := destmatch.Tokenize(a.Destination)
	snapshot := s.deps.Registry.Snapshot()
	matches := registry.Matching(snapshot, pubTokens, s.id)

	for _, sub := range matches {
		s.deliver(sub, base, a)
	}

	s.deps.Events.Emit("send", a.Destination, base)
	return nil
}

func (s *Session) deliver(sub *registry.Subscription, base *frame.Frame, a *SendArgs) {
	if sub.SessionID == PseudoSessionID {
		s.deps.Events.Emit(sub.ID, a.Body, base.Header)
		return
	}

	target, ok := s.deps.Sessions.Find(sub.SessionID)
	if !ok {
		return
	}

	perSub := &frame.Frame{Command: frame.MESSAGE, Header: base.Header.Clone(), Body: base.Body}
	perSub.Header.Set(frame.HeaderSubscription, sub.ID)
	_ = target.SendFrame(perSub)
}

func (s *Session) handleDisconnect(_ *frame.Frame) {
	_ = s.deps.Middleware.Run(middleware.Disconnect, s, &DisconnectArgs{}, s.disconnectTerminal)
}

func (s *Session) disconnectTerminal(_ middleware.Session, _ interface{}) error {
	s.Teardown("disconnect")
	return nil
}

type protocolError struct{ msg string }

func (e *protocolError) Error() string { return e.msg }

func errProtocolViolation(msg string) error { return &protocolError{msg} }
func errNotFound(msg string) error          { return &protocolError{msg} }
