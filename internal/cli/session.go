package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paraclete/paraclete/internal/client"
	"github.com/paraclete/paraclete/internal/config"
	"github.com/paraclete/paraclete/internal/signaling"
)

// replyTimeout bounds how long we wait for the server to answer a request.
const replyTimeout = 10 * time.Second

// ConnectionContext is an open signaling connection plus its event router.
type ConnectionContext struct {
	Client  *client.Client
	Handler *client.Handler
	Config  *config.Client
	SelfID  string
}

// NewConnectionContext dials the server and waits for the welcome event.
func NewConnectionContext(ctx context.Context, cfg *config.Client) (*ConnectionContext, error) {
	c := client.New(cfg.ServerURL)
	if err := c.Connect(ctx); err != nil {
		return nil, NewError("connect to server", err)
	}

	handler := client.NewHandler(c, slog.Default())
	go handler.Start()

	cc := &ConnectionContext{Client: c, Handler: handler, Config: cfg}
	selfID, err := await(ctx, cc, handler.Welcome)
	if err != nil {
		cc.Close()
		return nil, NewError("wait for welcome", err)
	}
	cc.SelfID = selfID
	slog.Debug("connected to signaling server", "server", cfg.ServerURL, "self", selfID)
	return cc, nil
}

// Close drops the connection without announcing anything.
func (c *ConnectionContext) Close() {
	c.Handler.Close()
	c.Client.Close()
}

// Leave tells the room we are going, then closes the connection.
func (c *ConnectionContext) Leave(room string) {
	c.Client.Send(&signaling.Message{Type: signaling.MessageTypeBye, RoomName: room})
	c.Client.Send(&signaling.Message{Type: signaling.MessageTypeDisconnecting})
	c.Close()
}

// await waits for one value on ch, a server error, or a timeout.
func await[T any](ctx context.Context, cc *ConnectionContext, ch chan T) (T, error) {
	var zero T
	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, nil
	case serverErr := <-cc.Handler.Error:
		return zero, serverErr
	case <-cc.Handler.Done:
		return zero, ErrServerGone
	case <-timer.C:
		return zero, ErrSignalingTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// checkRoom runs check-join-possibility for room.
func checkRoom(ctx context.Context, cc *ConnectionContext, room string) error {
	if err := cc.Client.Send(&signaling.Message{Type: signaling.MessageTypeCheckJoin, RoomName: room}); err != nil {
		return NewError("check room", err)
	}
	res, err := await(ctx, cc, cc.Handler.Check)
	if err != nil {
		return NewError("check room", err)
	}
	if !res.OK() {
		return NewError("check room", fmt.Errorf("%w: %w", ErrCannotJoin, res.Err))
	}
	return nil
}

// joinRoom claims the role's slot in room.
func joinRoom(ctx context.Context, cc *ConnectionContext, room string, role signaling.Role) error {
	err := cc.Client.Send(&signaling.Message{Type: signaling.MessageTypeJoinRoom, RoomName: room, Role: role.String()})
	if err != nil {
		return NewError("join room", err)
	}
	if _, err := await(ctx, cc, cc.Handler.Joined); err != nil {
		var serverErr *client.ServerError
		if errors.As(err, &serverErr) {
			return serverErr
		}
		return NewError("join room", err)
	}
	return nil
}
