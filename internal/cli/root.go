package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paraclete/paraclete/internal/config"
	"github.com/paraclete/paraclete/internal/logging"
	"github.com/paraclete/paraclete/internal/ui"
	"github.com/paraclete/paraclete/internal/version"
)

var (
	flagServer   string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagRelay    bool
	flagLogLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paraclete",
	Short: "Controller and receiver peers for the paraclete signaling server",
	Long: `paraclete pairs one controller with one receiver in a named room on a
signaling server, then connects them directly over WebRTC.

The controller owns the room and answers; the receiver joins it and offers.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := flagLogLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		logging.Init(os.Stderr, level)
	},
}

// Execute adds all child commands to the root command and runs it. An
// interrupt cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves client settings from the persistent flags.
func loadConfig() (*config.Client, error) {
	cfg, err := config.LoadClient(config.ClientOptions{
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
	})
	if err != nil {
		return nil, NewError("load config", err)
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagServer, "server", "", "Signaling websocket URL (default "+config.DefaultServerURL+")")
	pf.StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	pf.StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	pf.StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	pf.StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	pf.BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (logs go to stderr)")
}
