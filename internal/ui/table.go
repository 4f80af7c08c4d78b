package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/paraclete/paraclete/internal/signaling"
)

// SessionSummary is printed when a control or share session ends.
type SessionSummary struct {
	Role     string
	Room     string
	Peer     string
	Status   string
	Duration time.Duration
	Probes   int
	AvgRTT   time.Duration
	MinRTT   time.Duration
	MaxRTT   time.Duration
}

func SessionSummaryView(s SessionSummary) string {
	rows := [][]string{
		{"Role", s.Role},
		{"Room", s.Room},
		{"Peer", orDash(s.Peer)},
		{"Status", s.Status},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Probes", fmt.Sprintf("%d", s.Probes)},
	}
	if s.Probes > 0 {
		rows = append(rows,
			[]string{"Avg RTT", FormatRTT(s.AvgRTT)},
			[]string{"Min / Max RTT", FormatRTT(s.MinRTT) + " / " + FormatRTT(s.MaxRTT)},
		)
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Metric", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

func RenderSessionSummary(s SessionSummary) {
	fmt.Fprintln(Output, SessionSummaryView(s))
}

// FormatRTT prints a round trip with millisecond precision.
func FormatRTT(d time.Duration) string {
	return fmt.Sprintf("%.1f ms", float64(d)/float64(time.Millisecond))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// WriteRoomsTable renders the server's room snapshot.
func WriteRoomsTable(w io.Writer, rooms []signaling.RoomInfo) {
	t := pretty.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(pretty.StyleRounded)
	t.Style().Color.Header = text.Colors{text.Bold, text.FgHiMagenta}
	t.AppendHeader(pretty.Row{"Room", "Controller", "Receiver", "Participants"})
	for _, r := range rooms {
		t.AppendRow(pretty.Row{r.Name, orDash(r.ControllerID), orDash(r.ReceiverID), len(r.Participants)})
	}
	t.AppendFooter(pretty.Row{"", "", "Total", len(rooms)})
	t.Render()
}
