package peer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/paraclete/paraclete/internal/config"
	"github.com/paraclete/paraclete/internal/signaling"
)

// DataChannelLabel names the channel the receiver opens.
const DataChannelLabel = "paraclete"

// Sender delivers signaling messages to the server.
type Sender interface {
	Send(msg *signaling.Message) error
}

// EventKind classifies session events.
type EventKind int

const (
	EventState EventKind = iota + 1
	EventChannelOpen
	EventHello
	EventRTT
	EventFailed
)

// Event is reported on Session.Events.
type Event struct {
	Kind  EventKind
	State string
	Hello HelloPayload
	RTT   time.Duration
	Err   error
}

// Options tunes a Session.
type Options struct {
	Logger  *slog.Logger
	Version string
}

// Session is one side of the controller/receiver peer connection. The
// receiver creates the data channel and the offer; the controller answers.
type Session struct {
	role    signaling.Role
	pc      *pion.PeerConnection
	signal  Sender
	logger  *slog.Logger
	version string

	mu        sync.Mutex
	remoteSet bool
	pending   []pion.ICECandidateInit
	send      func([]byte) error

	seq    atomic.Uint32
	stats  Stats
	events chan Event

	closeOnce sync.Once
}

// NewPeerConnection builds a pion peer connection from the client's ICE
// settings.
func NewPeerConnection(cfg *config.Client) (*pion.PeerConnection, error) {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); stun != nil {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}

	turnServers := cfg.GetTURNServers()
	if turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && (cfg.ForceRelay || ShouldForceRelay()) {
		policy = pion.ICETransportPolicyRelay
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

// NewSession prepares a peer connection for role. Signaling output goes
// through sender.
func NewSession(cfg *config.Client, role signaling.Role, sender Sender, opts Options) (*Session, error) {
	if role != signaling.RoleController && role != signaling.RoleReceiver {
		return nil, WrapError("new session", ErrWrongRole, role.String())
	}
	pc, err := NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		role:    role,
		pc:      pc,
		signal:  sender,
		logger:  logger.With("role", role.String()),
		version: opts.Version,
		events:  make(chan Event, 64),
	}
	s.setupHandlers()
	return s, nil
}

// Events reports connection progress and probe results.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Stats returns the accumulated round-trip statistics.
func (s *Session) Stats() Summary {
	return s.stats.Summary()
}

// Pending returns how many remote candidates wait for a remote description.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Session) setupHandlers() {
	s.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		payload, err := json.Marshal(c.ToJSON())
		if err != nil {
			s.logger.Warn("encoding ICE candidate failed", "error", err)
			return
		}
		if err := s.signal.Send(&signaling.Message{Type: signaling.MessageTypeICE, Payload: payload}); err != nil {
			s.logger.Debug("sending ICE candidate failed", "error", err)
		}
	})

	s.pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		s.logger.Debug("peer connection state", "state", state.String())
		s.emit(Event{Kind: EventState, State: state.String()})
		if state == pion.PeerConnectionStateFailed {
			s.emit(Event{Kind: EventFailed, Err: ErrConnectionFailed})
		}
	})

	if s.role == signaling.RoleController {
		s.pc.OnDataChannel(func(dc *pion.DataChannel) {
			if dc.Label() != DataChannelLabel {
				s.logger.Debug("ignoring data channel", "label", dc.Label())
				return
			}
			s.attach(dc)
		})
	}
}

// Start opens the data channel and sends the offer. Only the receiver
// starts a negotiation.
func (s *Session) Start() error {
	if s.role != signaling.RoleReceiver {
		return WrapError("start", ErrWrongRole, s.role.String())
	}

	ordered := true
	dc, err := s.pc.CreateDataChannel(DataChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return NewError("create data channel", err)
	}
	s.attach(dc)

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return NewError("create offer", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return NewError("set local description", err)
	}
	return s.sendDescription(signaling.MessageTypeOffer, s.pc.LocalDescription())
}

func (s *Session) sendDescription(msgType string, desc *pion.SessionDescription) error {
	payload, err := json.Marshal(desc)
	if err != nil {
		return NewError("encode "+msgType, err)
	}
	if err := s.signal.Send(&signaling.Message{Type: msgType, Payload: payload}); err != nil {
		return NewError("send "+msgType, err)
	}
	return nil
}

// HandleSignal applies an offer, answer or ICE candidate relayed by the
// server.
func (s *Session) HandleSignal(msg *signaling.Message) error {
	switch msg.Type {
	case signaling.MessageTypeOffer:
		return s.handleOffer(msg.Payload)
	case signaling.MessageTypeAnswer:
		return s.handleAnswer(msg.Payload)
	case signaling.MessageTypeICE:
		return s.handleICE(msg.Payload)
	default:
		return WrapError("handle signal", ErrUnexpectedSignal, msg.Type)
	}
}

func (s *Session) handleOffer(payload json.RawMessage) error {
	if s.role != signaling.RoleController {
		return WrapError("handle offer", ErrUnexpectedSignal, "offer sent to "+s.role.String())
	}
	var offer pion.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return NewError("parse offer", err)
	}
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return NewError("set remote description", err)
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return NewError("create answer", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return NewError("set local description", err)
	}
	s.flushPending()
	return s.sendDescription(signaling.MessageTypeAnswer, s.pc.LocalDescription())
}

func (s *Session) handleAnswer(payload json.RawMessage) error {
	if s.role != signaling.RoleReceiver {
		return WrapError("handle answer", ErrUnexpectedSignal, "answer sent to "+s.role.String())
	}
	var answer pion.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return NewError("parse answer", err)
	}
	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return NewError("set remote description", err)
	}
	s.flushPending()
	return nil
}

func (s *Session) handleICE(payload json.RawMessage) error {
	var candidate pion.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return NewError("parse ICE candidate", err)
	}

	s.mu.Lock()
	if !s.remoteSet {
		s.pending = append(s.pending, candidate)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.pc.AddICECandidate(candidate); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

// flushPending applies candidates that arrived before the remote
// description. A bad candidate is logged and skipped.
func (s *Session) flushPending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.remoteSet = true
	s.mu.Unlock()

	for _, c := range pending {
		if err := s.pc.AddICECandidate(c); err != nil {
			s.logger.Warn("buffered ICE candidate rejected", "error", err)
		}
	}
}

func (s *Session) attach(dc *pion.DataChannel) {
	s.mu.Lock()
	s.send = dc.Send
	s.mu.Unlock()

	dc.OnOpen(func() {
		s.logger.Debug("data channel open")
		s.emit(Event{Kind: EventChannelOpen})
		if err := s.sendMessage(MessageTypeHello, HelloPayload{Role: s.role.String(), Version: s.version}); err != nil {
			s.logger.Warn("sending hello failed", "error", err)
		}
	})
	dc.OnClose(func() {
		s.logger.Debug("data channel closed")
		s.emit(Event{Kind: EventFailed, Err: ErrPeerDisconnected})
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		s.handleMessage(msg.Data)
	})
}

func (s *Session) sendMessage(t string, payload any) error {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send == nil {
		return ErrChannelNotOpen
	}

	data, err := Encode(t, payload)
	if err != nil {
		return NewError("encode "+t, err)
	}
	return send(data)
}

func (s *Session) handleMessage(data []byte) {
	msg, err := Decode(data)
	if err != nil {
		s.logger.Warn("undecodable data channel message", "error", err)
		return
	}

	switch msg.Type {
	case MessageTypeHello:
		var hello HelloPayload
		if err := msg.DecodePayload(&hello); err != nil {
			s.logger.Warn("bad hello", "error", err)
			return
		}
		s.emit(Event{Kind: EventHello, Hello: hello})

	case MessageTypePing:
		var ping PingPayload
		if err := msg.DecodePayload(&ping); err != nil {
			s.logger.Warn("bad ping", "error", err)
			return
		}
		if err := s.sendMessage(MessageTypePong, ping); err != nil {
			s.logger.Debug("sending pong failed", "error", err)
		}

	case MessageTypePong:
		var pong PingPayload
		if err := msg.DecodePayload(&pong); err != nil {
			s.logger.Warn("bad pong", "error", err)
			return
		}
		rtt := pong.RTT(time.Now())
		s.stats.Record(rtt)
		s.emit(Event{Kind: EventRTT, RTT: rtt})

	default:
		s.logger.Debug("ignoring data channel message", "type", msg.Type)
	}
}

// Ping sends one probe.
func (s *Session) Ping() error {
	return s.sendMessage(MessageTypePing, PingPayload{
		Seq:    s.seq.Add(1),
		SentAt: time.Now().UnixNano(),
	})
}

// Probe pings every interval until ctx ends.
func (s *Session) Probe(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.Ping(); err != nil {
			return NewError("probe", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// emit never blocks pion's callback goroutines.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Debug("session event dropped", "kind", ev.Kind)
	}
}

// Close tears down the peer connection.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.pc.Close()
	})
	return err
}
