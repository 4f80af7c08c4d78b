package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSessionModelUpdates(t *testing.T) {
	ui := NewSessionUI("controller", "demo-room")
	m := ui.model

	m.Update(sessionUpdate{state: "Connected"})
	m.Update(sessionUpdate{peer: "receiver 01J"})
	m.Update(sessionUpdate{rtt: 2 * time.Millisecond, avg: 3 * time.Millisecond})

	view := m.View()
	for _, want := range []string{"demo-room", "Connected", "receiver 01J", "2.0 ms", "3.0 ms", "(1 probes)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSessionModelQuitKey(t *testing.T) {
	ui := NewSessionUI("receiver", "demo-room")
	_, cmd := ui.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not return a command")
	}
	select {
	case <-ui.Quit():
	default:
		t.Fatal("quit channel not closed")
	}
	if ui.model.View() != "" {
		t.Error("view not cleared after quit")
	}

	// A second quit must not panic.
	ui.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
}
