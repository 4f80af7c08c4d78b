package peer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/paraclete/paraclete/internal/config"
	"github.com/paraclete/paraclete/internal/signaling"
)

// recorder is a Sender that keeps what the session emits.
type recorder struct {
	out chan *signaling.Message
}

func newRecorder() *recorder {
	return &recorder{out: make(chan *signaling.Message, 256)}
}

func (r *recorder) Send(msg *signaling.Message) error {
	r.out <- msg
	return nil
}

// next returns the next message of type msgType, skipping ICE candidates
// when another type is wanted.
func (r *recorder) next(t *testing.T, msgType string) *signaling.Message {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-r.out:
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", msgType)
			return nil
		}
	}
}

func newSession(t *testing.T, role signaling.Role) (*Session, *recorder) {
	t.Helper()
	rec := newRecorder()
	s, err := NewSession(&config.Client{}, role, rec, Options{Logger: slog.New(slog.DiscardHandler), Version: "test"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, rec
}

func candidatePayload(t *testing.T) json.RawMessage {
	t.Helper()
	mid, index := "0", uint16(0)
	b, err := json.Marshal(map[string]any{
		"candidate":     "candidate:1 1 udp 2130706431 192.0.2.1 50000 typ host",
		"sdpMid":        mid,
		"sdpMLineIndex": index,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNegotiationBuffersEarlyCandidates(t *testing.T) {
	receiver, receiverOut := newSession(t, signaling.RoleReceiver)
	controller, controllerOut := newSession(t, signaling.RoleController)

	if err := controller.HandleSignal(&signaling.Message{Type: signaling.MessageTypeICE, Payload: candidatePayload(t)}); err != nil {
		t.Fatalf("early candidate: %v", err)
	}
	if got := controller.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	if err := receiver.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	offer := receiverOut.next(t, signaling.MessageTypeOffer)

	if err := controller.HandleSignal(offer); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if got := controller.Pending(); got != 0 {
		t.Errorf("pending after offer = %d, want 0", got)
	}

	answer := controllerOut.next(t, signaling.MessageTypeAnswer)
	var desc struct{ Type, SDP string }
	if err := json.Unmarshal(answer.Payload, &desc); err != nil || desc.Type != "answer" || desc.SDP == "" {
		t.Fatalf("answer payload = %s (%v)", answer.Payload, err)
	}
	if err := receiver.HandleSignal(answer); err != nil {
		t.Fatalf("answer: %v", err)
	}
}

func TestSignalsRejectedForWrongRole(t *testing.T) {
	controller, _ := newSession(t, signaling.RoleController)
	if err := controller.Start(); !errors.Is(err, ErrWrongRole) {
		t.Errorf("controller Start = %v, want ErrWrongRole", err)
	}
	err := controller.HandleSignal(&signaling.Message{Type: signaling.MessageTypeAnswer, Payload: json.RawMessage(`{}`)})
	if !errors.Is(err, ErrUnexpectedSignal) {
		t.Errorf("answer to controller = %v, want ErrUnexpectedSignal", err)
	}
	err = controller.HandleSignal(&signaling.Message{Type: signaling.MessageTypeBye})
	if !errors.Is(err, ErrUnexpectedSignal) {
		t.Errorf("bye = %v, want ErrUnexpectedSignal", err)
	}

	if _, err := NewSession(&config.Client{}, signaling.RoleNone, newRecorder(), Options{}); !errors.Is(err, ErrWrongRole) {
		t.Errorf("NewSession(RoleNone) = %v", err)
	}
}

func TestProbeMessages(t *testing.T) {
	s, _ := newSession(t, signaling.RoleReceiver)
	if err := s.Ping(); !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("Ping before open = %v, want ErrChannelNotOpen", err)
	}

	var sent [][]byte
	s.send = func(b []byte) error {
		sent = append(sent, b)
		return nil
	}

	ping, err := Encode(MessageTypePing, PingPayload{Seq: 7, SentAt: time.Now().Add(-20 * time.Millisecond).UnixNano()})
	if err != nil {
		t.Fatal(err)
	}
	s.handleMessage(ping)
	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want a pong", len(sent))
	}
	pong, err := Decode(sent[0])
	if err != nil || pong.Type != MessageTypePong {
		t.Fatalf("reply = %+v (%v)", pong, err)
	}
	var echoed PingPayload
	if err := pong.DecodePayload(&echoed); err != nil || echoed.Seq != 7 {
		t.Fatalf("pong payload = %+v (%v)", echoed, err)
	}

	// Feeding the pong back records a round trip.
	s.handleMessage(sent[0])
	ev := <-s.Events()
	if ev.Kind != EventRTT || ev.RTT < 20*time.Millisecond {
		t.Errorf("event = %+v", ev)
	}
	if sum := s.Stats(); sum.Samples != 1 || sum.Last != ev.RTT {
		t.Errorf("stats = %+v", sum)
	}

	hello, _ := Encode(MessageTypeHello, HelloPayload{Role: "controller", Version: "v1"})
	s.handleMessage(hello)
	if ev := <-s.Events(); ev.Kind != EventHello || ev.Hello.Role != "controller" {
		t.Errorf("hello event = %+v", ev)
	}

	s.handleMessage([]byte{0xc1})
	select {
	case ev := <-s.Events():
		t.Errorf("garbage produced event %+v", ev)
	default:
	}
}

func TestStats(t *testing.T) {
	var s Stats
	if sum := s.Summary(); sum.Samples != 0 || sum.Avg != 0 {
		t.Errorf("empty summary = %+v", sum)
	}
	for _, d := range []time.Duration{30, 10, 20} {
		s.Record(d * time.Millisecond)
	}
	want := Summary{Samples: 3, Last: 20 * time.Millisecond, Min: 10 * time.Millisecond, Max: 30 * time.Millisecond, Avg: 20 * time.Millisecond}
	if got := s.Summary(); got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}

func TestRelayHeuristics(t *testing.T) {
	for name, want := range map[string]bool{"wg0": true, "utun3": true, "CloudflareWARP": true, "eth0": false, "en0": false} {
		if got := isTunnelName(name); got != want {
			t.Errorf("isTunnelName(%q) = %v", name, got)
		}
	}
	for ip, want := range map[string]bool{"100.64.0.1": true, "100.127.255.254": true, "100.128.0.1": false, "192.168.1.2": false} {
		if got := isCGNAT(net.ParseIP(ip)); got != want {
			t.Errorf("isCGNAT(%s) = %v", ip, got)
		}
	}
}

func TestProtocolError(t *testing.T) {
	err := WrapError("handle signal", ErrUnexpectedSignal, "bye")
	if err.Error() != "handle signal: unexpected signal type (bye)" || !errors.Is(err, ErrUnexpectedSignal) {
		t.Errorf("err = %v", err)
	}
}
