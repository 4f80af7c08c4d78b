package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/paraclete/paraclete/internal/signaling"
	"github.com/paraclete/paraclete/internal/ui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List the server's rooms (needs debug endpoints on the server)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rooms, err := fetchRooms(cmd.Context(), cfg.HTTPBaseURL())
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			ui.PrintInfo("No open rooms")
			return nil
		}
		ui.WriteRoomsTable(cmd.OutOrStdout(), rooms)
		return nil
	},
}

func fetchRooms(ctx context.Context, base string) ([]signaling.RoomInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/rooms", nil)
	if err != nil {
		return nil, NewError("list rooms", err)
	}
	client := &http.Client{Timeout: replyTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, NewError("list rooms", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, NewError("list rooms", fmt.Errorf("server does not expose /rooms (start it with DEBUG_ENDPOINTS=true)"))
	default:
		return nil, NewError("list rooms", fmt.Errorf("unexpected status %s", resp.Status))
	}

	var rooms []signaling.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, NewError("decode rooms", err)
	}
	return rooms, nil
}

func init() {
	rootCmd.AddCommand(roomsCmd)
}
