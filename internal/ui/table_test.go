package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/paraclete/paraclete/internal/signaling"
)

func TestWriteRoomsTable(t *testing.T) {
	var buf bytes.Buffer
	WriteRoomsTable(&buf, []signaling.RoomInfo{
		{Name: "demo-room", ControllerID: "C1", ReceiverID: "R1", Participants: []string{"C1", "R1"}},
		{Name: "lonely", ControllerID: "C2", Participants: []string{"C2"}},
	})
	out := buf.String()
	for _, want := range []string{"demo-room", "C1", "R1", "lonely", "C2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSessionSummaryView(t *testing.T) {
	out := SessionSummaryView(SessionSummary{
		Role:     "controller",
		Room:     "demo-room",
		Status:   "receiver left",
		Duration: 3 * time.Second,
		Probes:   2,
		AvgRTT:   1500 * time.Microsecond,
		MinRTT:   time.Millisecond,
		MaxRTT:   2 * time.Millisecond,
	})
	for _, want := range []string{"demo-room", "receiver left", "1.5 ms", "1.0 ms / 2.0 ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(SessionSummaryView(SessionSummary{Room: "x"}), "Avg RTT") {
		t.Error("RTT rows shown without probes")
	}
}

func TestRoomView(t *testing.T) {
	out := RoomView("demo-room", "http://localhost:3000/receiver?room=demo-room")
	for _, want := range []string{"demo-room", "receiver?room=demo-room"} {
		if !strings.Contains(out, want) {
			t.Errorf("room view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(RoomView("demo-room", ""), "Share") {
		t.Error("share line rendered without a link")
	}
}

func TestConnectionSpinnerClearsLine(t *testing.T) {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	defer func() { Output = prev }()

	stop := RunConnectionSpinner("Connecting to server...")
	stop()
	stop()

	out := buf.String()
	if !strings.Contains(out, "Connecting to server...") || !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("spinner output = %q", out)
	}
}
