package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paraclete/paraclete/internal/peer"
	"github.com/paraclete/paraclete/internal/signaling"
	"github.com/paraclete/paraclete/internal/ui"
	"github.com/paraclete/paraclete/internal/version"
)

const probeInterval = time.Second

// peerRun drives one joined connection until either side leaves.
type peerRun struct {
	cc     *ConnectionContext
	role   signaling.Role
	room   string
	view   *ui.SessionUI
	logger *slog.Logger

	session     *peer.Session
	peerID      string
	status      string
	stopProbing context.CancelFunc
}

// runSession joins the data plane for role in room and blocks until the
// session ends. On exit the room is left and a summary printed.
func runSession(ctx context.Context, cc *ConnectionContext, role signaling.Role, room string) error {
	r := newPeerRun(cc, role, room)
	started := time.Now()

	if role == signaling.RoleReceiver {
		if err := r.startPeer(""); err != nil {
			cc.Leave(room)
			return err
		}
		if err := r.session.Start(); err != nil {
			r.teardown()
			cc.Leave(room)
			return err
		}
		r.view.SetState("Offer sent, waiting for the controller...")
	}

	r.view.Start()
	err := r.loop(ctx)
	r.view.Stop()

	r.teardown()
	cc.Leave(room)

	summary := ui.SessionSummary{
		Role:     role.String(),
		Room:     room,
		Peer:     r.peerID,
		Status:   r.status,
		Duration: time.Since(started),
	}
	if r.session != nil {
		stats := r.session.Stats()
		summary.Probes = stats.Samples
		summary.AvgRTT, summary.MinRTT, summary.MaxRTT = stats.Avg, stats.Min, stats.Max
	}
	fmt.Fprintln(ui.Output)
	ui.RenderSessionSummary(summary)
	return err
}

func newPeerRun(cc *ConnectionContext, role signaling.Role, room string) *peerRun {
	return &peerRun{
		cc:     cc,
		role:   role,
		room:   room,
		view:   ui.NewSessionUI(role.String(), room),
		logger: slog.Default().With("room", room, "role", role.String()),
	}
}

func (r *peerRun) startPeer(peerID string) error {
	if r.session != nil {
		r.teardown()
	}
	s, err := peer.NewSession(r.cc.Config, r.role, r.cc.Client, peer.Options{Logger: r.logger, Version: version.Version})
	if err != nil {
		return NewError("create session", err)
	}
	r.session = s
	if peerID != "" {
		r.peerID = peerID
		r.view.SetPeer("receiver " + peerID)
	}
	return nil
}

func (r *peerRun) teardown() {
	if r.stopProbing != nil {
		r.stopProbing()
		r.stopProbing = nil
	}
	if r.session != nil {
		r.session.Close()
	}
}

func (r *peerRun) events() <-chan peer.Event {
	if r.session == nil {
		return nil
	}
	return r.session.Events()
}

func (r *peerRun) loop(ctx context.Context) error {
	h := r.cc.Handler
	for {
		select {
		case <-ctx.Done():
			r.status = "interrupted"
			return nil

		case <-r.view.Quit():
			r.status = "left"
			return nil

		case <-h.Done:
			r.status = "server connection lost"
			return ErrServerGone

		case id := <-h.ReceiverConnected:
			// The receiver's offer may be read before this notice.
			if r.session != nil && r.peerID == id {
				break
			}
			if err := r.startPeer(id); err != nil {
				r.status = "failed"
				return err
			}
			r.view.SetState("Receiver connected, waiting for offer...")

		case msg := <-h.Signal:
			if err := r.applySignal(msg); err != nil {
				r.status = "failed"
				return err
			}

		case left := <-h.PeerLeft:
			r.status = left.Role + " left"
			return nil

		case notice := <-h.Ended:
			r.status = notice
			return nil

		case serverErr := <-h.Error:
			r.logger.Warn("server reported an error", "type", serverErr.Type, "code", serverErr.Code, "error", serverErr)

		case ev := <-r.events():
			if done, err := r.handleEvent(ctx, ev); done {
				return err
			}
		}
	}
}

// applySignal feeds a relayed signal to the session for its sender. An
// offer from a receiver other than the current peer starts a new session;
// anything else from a stale peer is dropped.
func (r *peerRun) applySignal(msg *signaling.Message) error {
	newOffer := r.role == signaling.RoleController && msg.Type == signaling.MessageTypeOffer && msg.SenderID != r.peerID
	if r.session == nil || newOffer {
		if err := r.startPeer(msg.SenderID); err != nil {
			return err
		}
	}
	switch {
	case r.peerID == "":
		r.peerID = msg.SenderID
	case msg.SenderID != "" && msg.SenderID != r.peerID:
		r.logger.Debug("dropping signal from stale peer", "type", msg.Type, "from", msg.SenderID)
		return nil
	}
	if err := r.session.HandleSignal(msg); err != nil {
		r.logger.Warn("signal rejected", "type", msg.Type, "error", err)
	}
	return nil
}

func (r *peerRun) handleEvent(ctx context.Context, ev peer.Event) (bool, error) {
	switch ev.Kind {
	case peer.EventState:
		r.view.SetState("Peer connection " + ev.State)

	case peer.EventChannelOpen:
		r.view.SetState("Connected")
		if r.role == signaling.RoleController && r.stopProbing == nil {
			probeCtx, cancel := context.WithCancel(ctx)
			r.stopProbing = cancel
			go func(s *peer.Session) {
				if err := s.Probe(probeCtx, probeInterval); err != nil {
					r.logger.Debug("probing stopped", "error", err)
				}
			}(r.session)
		}

	case peer.EventHello:
		r.view.SetPeer(fmt.Sprintf("%s %s (%s)", ev.Hello.Role, r.peerID, ev.Hello.Version))

	case peer.EventRTT:
		r.view.RecordRTT(ev.RTT, r.session.Stats().Avg)

	case peer.EventFailed:
		r.status = ev.Err.Error()
		return true, ev.Err
	}
	return false, nil
}
