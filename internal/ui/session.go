package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SessionUI shows the live state of a control or share session.
type SessionUI struct {
	program *tea.Program
	model   *sessionModel
	quit    chan struct{}
	wg      sync.WaitGroup
}

type sessionUpdate struct {
	state string
	peer  string
	rtt   time.Duration
	avg   time.Duration
}

type sessionModel struct {
	role      string
	room      string
	state     string
	peer      string
	lastRTT   time.Duration
	avgRTT    time.Duration
	samples   int
	spinner   spinner.Model
	startTime time.Time
	updates   chan sessionUpdate
	quit      chan struct{}
	quitOnce  *sync.Once
	quitting  bool
}

// NewSessionUI creates a session view for role in room.
func NewSessionUI(role, room string) *SessionUI {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	quit := make(chan struct{})
	return &SessionUI{
		model: &sessionModel{
			role:      role,
			room:      room,
			state:     "Waiting for peer...",
			spinner:   s,
			startTime: time.Now(),
			updates:   make(chan sessionUpdate, 64),
			quit:      quit,
			quitOnce:  &sync.Once{},
		},
		quit: quit,
	}
}

// Start runs the view in a goroutine.
func (ui *SessionUI) Start() {
	ui.program = tea.NewProgram(ui.model, tea.WithOutput(Output))
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		if _, err := ui.program.Run(); err != nil {
			fmt.Fprintf(Output, "UI error: %v\n", err)
		}
	}()
}

// Quit is closed when the user asks to leave.
func (ui *SessionUI) Quit() <-chan struct{} {
	return ui.quit
}

func (ui *SessionUI) push(u sessionUpdate) {
	select {
	case ui.model.updates <- u:
	default:
	}
}

func (ui *SessionUI) SetState(state string) {
	ui.push(sessionUpdate{state: state})
}

func (ui *SessionUI) SetPeer(peer string) {
	ui.push(sessionUpdate{peer: peer})
}

// RecordRTT shows the latest probe and the running average.
func (ui *SessionUI) RecordRTT(last, avg time.Duration) {
	ui.push(sessionUpdate{rtt: last, avg: avg})
}

// Stop ends the view and waits for the terminal to be restored.
func (ui *SessionUI) Stop() {
	if ui.program != nil {
		ui.program.Quit()
	}
	ui.wg.Wait()
}

func (m *sessionModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForUpdates())
}

func (m *sessionModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.quitOnce.Do(func() { close(m.quit) })
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionUpdate:
		m.apply(msg)
		return m, m.listenForUpdates()
	}
	return m, nil
}

func (m *sessionModel) apply(u sessionUpdate) {
	if u.state != "" {
		m.state = u.state
	}
	if u.peer != "" {
		m.peer = u.peer
	}
	if u.rtt > 0 {
		m.lastRTT = u.rtt
		m.avgRTT = u.avg
		m.samples++
	}
}

func (m *sessionModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n%s %s %s\n\n", IconRoom, TitleStyle.Render(m.room), MutedStyle.Render("as "+m.role)))
	b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.state))
	if m.peer != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", IconPeer, m.peer))
	}
	if m.samples > 0 {
		b.WriteString(fmt.Sprintf("%s rtt %s  avg %s  %s\n",
			IconTime, BoldStyle.Render(FormatRTT(m.lastRTT)), FormatRTT(m.avgRTT),
			MutedStyle.Render(fmt.Sprintf("(%d probes)", m.samples))))
	}
	b.WriteString(fmt.Sprintf("\n%s", MutedStyle.Render(fmt.Sprintf("%s elapsed. Press q to leave", time.Since(m.startTime).Round(time.Second)))))
	return b.String()
}
