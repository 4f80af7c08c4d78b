package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.SetConnections(3)
	m.SetRooms(1)
	m.Command("join-room")
	m.Rejected("no-controller")
	m.Relay("offer")
	m.Drop()
}

func TestMetricsExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetConnections(2)
	m.SetRooms(1)
	m.Command("join-room")
	m.Command("join-room")
	m.Rejected("controller-occupied")
	m.Relay("ice")
	m.Drop()

	expected := `
# HELP paraclete_commands_total Client messages processed, by message type.
# TYPE paraclete_commands_total counter
paraclete_commands_total{type="join-room"} 2
# HELP paraclete_connections Signaling connections currently open.
# TYPE paraclete_connections gauge
paraclete_connections 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "paraclete_commands_total", "paraclete_connections"); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(m.Rejections.WithLabelValues("controller-occupied")); got != 1 {
		t.Errorf("rejections = %v", got)
	}
	if got, err := testutil.GatherAndCount(reg); err != nil || got != 6 {
		t.Errorf("gathered %d series (%v), want 6", got, err)
	}
}
