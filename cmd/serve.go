package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetctl/internal/app"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveCmd runs the headless HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fleetctl HTTP API",
	Long: `Serve the fleet over HTTP: the service catalog, health statuses and
lifecycle operations under /api/v1, liveness under /healthz and Prometheus
metrics under /metrics.

The services directory is watched while serving, so descriptor edits show
up in the API without a restart. The server runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(servicesDir(), viper.GetString("listen_addr"), viper.GetString("log_level"), serveDebug)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.RunServe(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "HTTP listen address (default is :8400)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")

	_ = viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("addr"))
}
