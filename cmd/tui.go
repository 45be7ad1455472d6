package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetctl/internal/app"
)

// tuiDebug surfaces debug-level entries in the dashboard's activity log.
var tuiDebug bool

// tuiCmd opens the interactive dashboard.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive dashboard",
	Long: `Open a full-screen dashboard over the services directory: every service
with its live health status, plus keys to start, stop, restart and install
services, follow their logs, and edit their .env files.

Press ? inside the dashboard for the full key reference.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(servicesDir(), viper.GetString("listen_addr"), viper.GetString("log_level"), tuiDebug)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.RunTUI(ctx)
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiDebug, "debug", false, "Show debug log entries in the activity panel")
}
