package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/paraclete/paraclete/internal/roomname"
	"github.com/paraclete/paraclete/internal/signaling"
	"github.com/paraclete/paraclete/internal/ui"
)

// generateAttempts bounds retries when a generated room is already taken.
const generateAttempts = 5

var controlCmd = &cobra.Command{
	Use:     "control [room]",
	Aliases: []string{"c"},
	Short:   "Open a room as its controller",
	Long: `Join a room as the controller and wait for a receiver to connect.
A memorable room name is generated when none is given.

Examples:
  paraclete control
  paraclete control demo-room
  paraclete control demo-room --server wss://signal.example.com/ws`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var room string
		if len(args) == 1 {
			var err error
			if room, err = roomname.Validate(args[0]); err != nil {
				return NewError("room name", err)
			}
		}
		return control(cmd.Context(), room)
	},
}

func control(ctx context.Context, room string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	cc, err := NewConnectionContext(ctx, cfg)
	stopSpinner()
	if err != nil {
		return err
	}

	room, err = claimController(ctx, cc, room)
	if err != nil {
		cc.Close()
		return err
	}

	fmt.Fprintln(ui.Output, ui.RoomView(room, shareLink(cfg.HTTPBaseURL(), room)))
	return runSession(ctx, cc, signaling.RoleController, room)
}

// claimController joins room as controller. With no room it tries fresh
// generated names until one is free.
func claimController(ctx context.Context, cc *ConnectionContext, room string) (string, error) {
	if room != "" {
		return room, joinRoom(ctx, cc, room, signaling.RoleController)
	}

	tried := map[string]bool{}
	for range generateAttempts {
		name, err := roomname.Generate(func(s string) bool { return tried[s] })
		if err != nil {
			return "", NewError("generate room name", err)
		}
		tried[name] = true

		err = joinRoom(ctx, cc, name, signaling.RoleController)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, signaling.ErrControllerOccupied) {
			return "", err
		}
	}
	return "", NewError("generate room name", signaling.ErrControllerOccupied)
}

// shareLink points a browser receiver at room.
func shareLink(base, room string) string {
	if base == "" {
		return ""
	}
	return base + "/receiver?room=" + url.QueryEscape(room)
}

func init() {
	rootCmd.AddCommand(controlCmd)
}
