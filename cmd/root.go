package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetctl/internal/registry"
	"fleetctl/pkg/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fleetctl",
	Short: "Manage a fleet of locally-declared services",
	Long: `fleetctl manages the services declared under a services directory.
Each service lives in its own subdirectory with a service.yaml descriptor
and is started, stopped and health-checked either through the commands the
descriptor declares or through docker compose.

The services directory is resolved from, in order: the --services-dir flag,
the FLEETCTL_SERVICES_DIR environment variable, the services_dir key in the
config file, and finally ./services.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid arguments, failed lifecycle commands)
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logs go to stderr so command output stays pipeable. The tui and
		// serve commands re-initialize logging for their own mode.
		logging.InitForCLI(logging.ParseLevel(viper.GetString("log_level")), os.Stderr)
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v // Set cobra's version field as well
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Set up version template
	rootCmd.SetVersionTemplate(`{{printf "fleetctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/fleetctl/config.yaml)")
	rootCmd.PersistentFlags().String("services-dir", "", "services directory (default is ./services)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default info)")

	_ = viper.BindPFlag("services_dir", rootCmd.PersistentFlags().Lookup("services-dir"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

// initConfig reads in the config file and environment variables. Flag values
// win over the environment, which wins over the config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "fleetctl"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FLEETCTL")
	viper.AutomaticEnv()

	viper.SetDefault("services_dir", "services")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("listen_addr", ":8400")

	// Missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// servicesDir resolves the configured services directory to an absolute path.
func servicesDir() string {
	dir := viper.GetString("services_dir")
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// newRegistry builds the registry every service-facing command starts from.
func newRegistry() *registry.Registry {
	return registry.New(servicesDir())
}
