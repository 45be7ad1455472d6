package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"fleetctl/internal/cli"
	"fleetctl/internal/compose"
	"fleetctl/internal/config"
	"fleetctl/internal/envfile"
	"fleetctl/internal/health"
	"fleetctl/internal/lifecycle"
	"fleetctl/internal/registry"
)

var (
	serviceOutputFormat string
	serviceQuiet        bool
	logsFollow          bool
	logsTail            int
)

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage services",
	Long: `Manage the services declared under the services directory.

Each service is a subdirectory containing a service.yaml descriptor. The
lifecycle commands prefer whatever the descriptor declares (lifecycle.start,
lifecycle.stop, ...) and fall back to docker compose verbs in the service
directory otherwise.

Available commands:
  list     - List all services with their status
  status   - Show one service in detail
  start    - Start a service
  stop     - Stop a service
  restart  - Restart a service
  install  - Run a service's install command or update script
  logs     - Tail a service's logs`,
}

// serviceListCmd lists all services
var serviceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all services",
	Long: `List every service found under the services directory together with
its current health status, category and declared ports.

With --quiet only the service ids are printed, one per line.`,
	Args: cobra.NoArgs,
	RunE: runServiceList,
}

// serviceStatusCmd shows one service in detail
var serviceStatusCmd = &cobra.Command{
	Use:   "status <service-id>",
	Short: "Show detailed status of a service",
	Long: `Show one service in detail: health status, declared ports, environment
variables, dependencies, and the services its compose file declares.

The service id is the name of the service's directory.
Use 'fleetctl service list' to see available services.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceStatus,
}

// serviceStartCmd starts a service
var serviceStartCmd = &cobra.Command{
	Use:   "start <service-id>",
	Short: "Start a service",
	Long: `Start a service by id, via its declared lifecycle.start command or
'docker compose up -d' in the service directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceStart,
}

// serviceStopCmd stops a service
var serviceStopCmd = &cobra.Command{
	Use:   "stop <service-id>",
	Short: "Stop a service",
	Long: `Stop a service by id, via its declared lifecycle.stop command or
'docker compose down' in the service directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceStop,
}

// serviceRestartCmd restarts a service
var serviceRestartCmd = &cobra.Command{
	Use:   "restart <service-id>",
	Short: "Restart a service",
	Long: `Restart a service by id. With no declared lifecycle.restart command this
stops the service and starts it again; if the stop fails the start is not
attempted.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceRestart,
}

// serviceInstallCmd installs or updates a service
var serviceInstallCmd = &cobra.Command{
	Use:   "install <service-id>",
	Short: "Install or update a service",
	Long: `Run a service's lifecycle.install command, or its update.sh script when no
command is declared, streaming the output as it arrives. The final line
reports whether the install succeeded.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceInstall,
}

// serviceLogsCmd tails a service's logs
var serviceLogsCmd = &cobra.Command{
	Use:   "logs <service-id>",
	Short: "Show a service's logs",
	Long: `Stream a service's logs via its declared lifecycle.logs command or
'docker compose logs' in the service directory. With --follow the stream
continues until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceLogs,
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	// Add subcommands
	serviceCmd.AddCommand(serviceListCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
	serviceCmd.AddCommand(serviceStartCmd)
	serviceCmd.AddCommand(serviceStopCmd)
	serviceCmd.AddCommand(serviceRestartCmd)
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceLogsCmd)

	// Add flags to the parent command
	serviceCmd.PersistentFlags().StringVarP(&serviceOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	serviceCmd.PersistentFlags().BoolVarP(&serviceQuiet, "quiet", "q", false, "Suppress non-essential output")

	serviceLogsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep streaming new log lines")
	serviceLogsCmd.Flags().IntVar(&logsTail, "tail", 50, "Number of trailing log lines to show")
}

// servicePrinter builds the output printer from the persistent flags.
func servicePrinter() (*cli.Printer, error) {
	return cli.NewPrinter(cli.OutputFormat(serviceOutputFormat), serviceQuiet, os.Stdout)
}

// mustGet resolves a service id through the registry, with a uniform error
// for unknown ids.
func mustGet(reg *registry.Registry, id string) (config.ServiceConfig, error) {
	cfg, ok := reg.Get(id)
	if !ok {
		return config.ServiceConfig{}, fmt.Errorf("unknown service %q (looked in %s)", id, reg.Root())
	}
	return cfg, nil
}

func runServiceList(cmd *cobra.Command, args []string) error {
	printer, err := servicePrinter()
	if err != nil {
		return err
	}

	reg := newRegistry()
	cfgs, err := reg.Discover()
	if err != nil {
		return err
	}

	if printer.Quiet() {
		for _, cfg := range cfgs {
			printer.Line("%s", cfg.ID)
		}
		return nil
	}

	statuses := health.New(reg).CheckAll(cmd.Context(), cfgs)

	type listEntry struct {
		config.ServiceConfig
		Status config.ServiceStatus `json:"status" yaml:"status"`
	}
	entries := make([]listEntry, 0, len(cfgs))
	rows := make([]table.Row, 0, len(cfgs))
	for _, cfg := range cfgs {
		status := statuses[cfg.ID]
		entries = append(entries, listEntry{ServiceConfig: cfg, Status: status})
		rows = append(rows, table.Row{
			cfg.ID,
			cfg.Name,
			cfg.Category,
			printer.FormatStatus(status),
			formatPorts(cfg.Ports),
		})
	}

	return printer.Rows(entries, table.Row{"ID", "NAME", "CATEGORY", "STATUS", "PORTS"}, rows)
}

func runServiceStatus(cmd *cobra.Command, args []string) error {
	printer, err := servicePrinter()
	if err != nil {
		return err
	}

	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	status := health.New(reg).Check(ctx, cfg)

	// Compose parse failures only cost the detail section; the compose file
	// may legitimately be absent or malformed.
	composeServices, _ := compose.Services(ctx, cfg.Path)

	if serviceOutputFormat != string(cli.OutputFormatTable) {
		return printer.Object(struct {
			config.ServiceConfig
			Status          config.ServiceStatus     `json:"status" yaml:"status"`
			ComposeServices []compose.ServiceSummary `json:"compose_services,omitempty" yaml:"compose_services,omitempty"`
		}{cfg, status, composeServices})
	}

	printer.Line("%s (%s)", cfg.Name, cfg.ID)
	printer.Line("  %s", cfg.Description)
	printer.Line("  Category: %s", cfg.Category)
	printer.Line("  Status:   %s", printer.FormatStatus(status))
	printer.Line("  Path:     %s", cfg.Path)
	if cfg.Vendor != nil {
		printer.Line("  Vendor:   %s @ %s", cfg.Vendor.URL, cfg.Vendor.Ref)
	}
	if len(cfg.Ports) > 0 {
		printer.Line("  Ports:")
		for _, port := range cfg.Ports {
			if port.HealthEndpoint != "" {
				printer.Line("    %-12s %d (health: %s)", port.Name, port.Port, port.HealthEndpoint)
			} else {
				printer.Line("    %-12s %d", port.Name, port.Port)
			}
		}
	}
	if len(cfg.EnvVars) > 0 {
		env, _ := envfile.Load(envfile.Path(cfg.Path))
		printer.Line("  Environment:")
		for _, v := range cfg.EnvVars {
			printer.Line("    %-24s %s", v.Name, describeEnvVar(v, env))
		}
	}
	if len(cfg.SystemDependencies) > 0 {
		printer.Line("  System dependencies:  %s", strings.Join(cfg.SystemDependencies, ", "))
	}
	if len(cfg.ServiceDependencies) > 0 {
		printer.Line("  Service dependencies: %s", strings.Join(cfg.ServiceDependencies, ", "))
	}
	if len(composeServices) > 0 {
		printer.Line("  Compose services:")
		for _, svc := range composeServices {
			if svc.Image != "" {
				printer.Line("    %-16s %s", svc.Name, svc.Image)
			} else {
				printer.Line("    %s", svc.Name)
			}
		}
	}
	for _, key := range cli.SortedKeys(cfg.Notes) {
		printer.Line("  Note [%s]: %s", key, cfg.Notes[key])
	}
	return nil
}

func runServiceStart(cmd *cobra.Command, args []string) error {
	return runLifecycleAction(cmd, args[0], lifecycle.New().Start)
}

func runServiceStop(cmd *cobra.Command, args []string) error {
	return runLifecycleAction(cmd, args[0], lifecycle.New().Stop)
}

func runServiceRestart(cmd *cobra.Command, args []string) error {
	return runLifecycleAction(cmd, args[0], lifecycle.New().Restart)
}

// runLifecycleAction runs one captured lifecycle operation and prints its
// message. A failed operation becomes a non-zero exit without a cobra usage
// dump, matching SilenceUsage on the root.
func runLifecycleAction(cmd *cobra.Command, id string, op lifecycle.Action) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, id)
	if err != nil {
		return err
	}

	ok, msg := op(cmd.Context(), cfg)
	if !ok {
		return fmt.Errorf("%s", msg)
	}
	fmt.Println(msg)
	return nil
}

func runServiceInstall(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	stream, err := lifecycle.New().Install(cfg)
	if err != nil {
		return err
	}
	defer stream.Close()

	for line := range stream.Lines() {
		fmt.Println(line)
	}
	return nil
}

func runServiceLogs(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	stream, err := lifecycle.New().Logs(cfg, logsFollow, logsTail)
	if err != nil {
		return err
	}
	defer stream.Close()

	// Ctrl+C cancels the command context; closing the stream kills the
	// underlying process so a followed log never outlives the command.
	go func() {
		<-cmd.Context().Done()
		stream.Close()
	}()

	for line := range stream.Lines() {
		fmt.Println(line)
	}
	return nil
}

func formatPorts(ports []config.PortConfig) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ports))
	for _, port := range ports {
		parts = append(parts, fmt.Sprintf("%d", port.Port))
	}
	return strings.Join(parts, ", ")
}

// describeEnvVar summarizes one declared env var against the values actually
// set in the service's .env file, masking secrets.
func describeEnvVar(v config.EnvVarConfig, env map[string]string) string {
	value, set := env[v.Name]
	switch {
	case set && v.Secret:
		return envfile.Mask(value)
	case set:
		return value
	case v.Default != "":
		return fmt.Sprintf("(default %s)", v.Default)
	case v.Required:
		return "(required, unset)"
	default:
		return "(unset)"
	}
}
