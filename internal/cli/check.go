package cli

import (
	"github.com/spf13/cobra"

	"github.com/paraclete/paraclete/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check <room|url>",
	Short: "Ask the server whether a receiver could join a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		cc, err := NewConnectionContext(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cc.Leave("")

		if err := checkRoom(cmd.Context(), cc, room); err != nil {
			return err
		}
		ui.PrintSuccessf("%s can be joined", room)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
