package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paraclete/paraclete/internal/roomname"
	"github.com/paraclete/paraclete/internal/signaling"
	"github.com/paraclete/paraclete/internal/ui"
)

var shareCmd = &cobra.Command{
	Use:     "share <room|url>",
	Aliases: []string{"receive", "s"},
	Short:   "Join a room as its receiver",
	Long: `Join an existing room as the receiver and connect to its controller.

Examples:
  paraclete share demo-room
  paraclete share http://localhost:3000/receiver?room=demo-room
  paraclete share https://signal.example.com/r/demo-room --relay`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return share(cmd.Context(), room)
	},
}

func share(ctx context.Context, room string) error {
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

	if err := checkRoom(ctx, cc, room); err != nil {
		cc.Close()
		return err
	}
	if err := joinRoom(ctx, cc, room, signaling.RoleReceiver); err != nil {
		cc.Close()
		return err
	}
	ui.PrintSuccessf("Joined %s as receiver", room)
	return runSession(ctx, cc, signaling.RoleReceiver, room)
}

// parseRoomInput accepts a bare room name or a link carrying one, either
// as a ?room= query or a /r/<room> path.
func parseRoomInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "://") {
		room, err := roomname.Validate(input)
		if err != nil {
			return "", NewError("room name", err)
		}
		return room, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", NewError("parse URL", err)
	}

	if room := u.Query().Get("room"); room != "" {
		return validatedFromURL(room)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "r" && i+1 < len(parts) && parts[i+1] != "" {
			return validatedFromURL(parts[i+1])
		}
	}
	return "", fmt.Errorf("could not extract room name from URL: %s", input)
}

func validatedFromURL(room string) (string, error) {
	room, err := roomname.Validate(room)
	if err != nil {
		return "", NewError("room name", err)
	}
	return room, nil
}

func init() {
	rootCmd.AddCommand(shareCmd)
}
