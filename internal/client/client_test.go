package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paraclete/paraclete/internal/server"
	"github.com/paraclete/paraclete/internal/signaling"
)

func startServer(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	hub := signaling.NewHub(logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(server.NewRouter(hub, server.Options{}, logger))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-stopped
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func connect(t *testing.T, url string) (*Client, *Handler, string) {
	t.Helper()
	c := New(url)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	h := NewHandler(c, slog.New(slog.DiscardHandler))
	go h.Start()
	t.Cleanup(func() {
		h.Close()
		c.Close()
	})
	return c, h, recv(t, h.Welcome)
}

func recv[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func TestControllerReceiverExchange(t *testing.T) {
	url := startServer(t)
	ctrl, ctrlEvents, _ := connect(t, url)
	recvr, recvEvents, receiverID := connect(t, url)

	ctrl.Send(&signaling.Message{Type: signaling.MessageTypeJoinRoom, RoomName: "blue-fox", Role: "controller"})
	if room := recv(t, ctrlEvents.Joined); room != "blue-fox" {
		t.Errorf("joined %q", room)
	}

	recvr.Send(&signaling.Message{Type: signaling.MessageTypeCheckJoin, RoomName: "blue-fox"})
	if res := recv(t, recvEvents.Check); !res.OK() {
		t.Fatalf("check failed: %v", res.Err)
	}
	recvr.Send(&signaling.Message{Type: signaling.MessageTypeJoinRoom, RoomName: "blue-fox", Role: "receiver"})
	recv(t, recvEvents.Joined)
	if id := recv(t, ctrlEvents.ReceiverConnected); id != receiverID {
		t.Errorf("receiver-connected %q, want %q", id, receiverID)
	}

	recvr.Send(&signaling.Message{Type: signaling.MessageTypeICE, Payload: json.RawMessage(`{"candidate":"c"}`)})
	if sig := recv(t, ctrlEvents.Signal); sig.Type != signaling.MessageTypeICE || sig.SenderID != receiverID {
		t.Errorf("signal = %+v", sig)
	}

	recvr.Send(&signaling.Message{Type: signaling.MessageTypeDisconnecting})
	if left := recv(t, ctrlEvents.PeerLeft); left.ID != receiverID || left.Role != "receiver" {
		t.Errorf("peer left = %+v", left)
	}
	recv(t, ctrlEvents.Ended)
}

func TestServerErrorsMatchSentinels(t *testing.T) {
	url := startServer(t)
	c, events, _ := connect(t, url)

	c.Send(&signaling.Message{Type: signaling.MessageTypeCheckJoin, RoomName: "empty-room"})
	res := recv(t, events.Check)
	if res.OK() || !errors.Is(res.Err, signaling.ErrNoController) {
		t.Errorf("check = %+v", res)
	}

	c.Send(&signaling.Message{Type: signaling.MessageTypeJoinRoom, RoomName: "empty-room", Role: "receiver"})
	err := recv(t, events.Error)
	if err.Type != signaling.MessageTypeJoinError || !errors.Is(err, signaling.ErrNoController) {
		t.Errorf("join error = %+v", err)
	}
}

func TestSendAfterClose(t *testing.T) {
	url := startServer(t)
	c, events, _ := connect(t, url)
	c.Close()
	c.Close()
	if err := c.Send(&signaling.Message{Type: signaling.MessageTypeBye}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	recv(t, events.Done)
}

func TestConnectRejectsBadScheme(t *testing.T) {
	if err := New("http://localhost:3000/ws").Connect(context.Background()); err == nil {
		t.Error("expected an error for an http URL")
	}
}
