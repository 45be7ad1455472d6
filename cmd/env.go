package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"fleetctl/internal/cli"
	"fleetctl/internal/config"
	"fleetctl/internal/envfile"
)

var envReveal bool

// envCmd groups the .env editing subcommands
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage a service's .env file",
	Long: `Read and edit the .env file in a service's directory.

The descriptor's env_vars section only declares which variables a service
reads; the values live in <service-dir>/.env and are consumed by the
service's own lifecycle commands and docker compose. Values of variables
declared secret are masked unless --reveal is given.`,
}

var envListCmd = &cobra.Command{
	Use:   "list <service-id>",
	Short: "List the variables set in a service's .env file",
	Long: `List every variable set in the service's .env file, together with the
declared variables that are still unset. Secret values are masked unless
--reveal is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvList,
}

var envGetCmd = &cobra.Command{
	Use:   "get <service-id> <key>",
	Short: "Print one value from a service's .env file",
	Long: `Print the raw value of one variable from the service's .env file.
The value is printed unmasked regardless of the secret declaration, so it
can be piped into other tools.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnvGet,
}

var envSetCmd = &cobra.Command{
	Use:   "set <service-id> KEY=VALUE [KEY=VALUE...]",
	Short: "Set variables in a service's .env file",
	Long: `Set one or more variables in the service's .env file, preserving all
other entries. The file is created if it does not exist and is always
written atomically.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnvSet,
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset <service-id> KEY [KEY...]",
	Short: "Remove variables from a service's .env file",
	Long: `Remove one or more variables from the service's .env file, preserving
all other entries.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnvUnset,
}

func init() {
	rootCmd.AddCommand(envCmd)

	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envGetCmd)
	envCmd.AddCommand(envSetCmd)
	envCmd.AddCommand(envUnsetCmd)

	envListCmd.Flags().BoolVar(&envReveal, "reveal", false, "Show secret values unmasked")
}

func runEnvList(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	values, err := envfile.Load(envfile.Path(cfg.Path))
	if err != nil {
		return err
	}

	printer, err := cli.NewPrinter(cli.OutputFormatTable, false, os.Stdout)
	if err != nil {
		return err
	}

	secret := secretNames(cfg)
	rows := make([]table.Row, 0, len(values))
	for _, key := range cli.SortedKeys(values) {
		value := values[key]
		if secret[key] && !envReveal {
			value = envfile.Mask(value)
		}
		rows = append(rows, table.Row{key, value})
	}
	// Declared but unset variables are worth surfacing: they are usually the
	// reason a service refuses to start.
	for _, v := range cfg.EnvVars {
		if _, ok := values[v.Name]; ok {
			continue
		}
		placeholder := "(unset)"
		if v.Required {
			placeholder = "(required, unset)"
		}
		rows = append(rows, table.Row{v.Name, placeholder})
	}

	return printer.Rows(values, table.Row{"KEY", "VALUE"}, rows)
}

func runEnvGet(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	values, err := envfile.Load(envfile.Path(cfg.Path))
	if err != nil {
		return err
	}

	value, ok := values[args[1]]
	if !ok {
		return fmt.Errorf("%s is not set for service %q", args[1], cfg.ID)
	}
	fmt.Println(value)
	return nil
}

func runEnvSet(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	updates := make(map[string]string, len(args)-1)
	for _, pair := range args[1:] {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid assignment %q (want KEY=VALUE)", pair)
		}
		updates[key] = value
	}

	if err := envfile.Merge(envfile.Path(cfg.Path), updates); err != nil {
		return err
	}
	fmt.Printf("Set %d variable(s) for %s\n", len(updates), cfg.ID)
	return nil
}

func runEnvUnset(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	cfg, err := mustGet(reg, args[0])
	if err != nil {
		return err
	}

	if err := envfile.Unset(envfile.Path(cfg.Path), args[1:]...); err != nil {
		return err
	}
	fmt.Printf("Removed %d variable(s) for %s\n", len(args)-1, cfg.ID)
	return nil
}

// secretNames indexes the env vars a descriptor declares secret.
func secretNames(cfg config.ServiceConfig) map[string]bool {
	out := make(map[string]bool, len(cfg.EnvVars))
	for _, v := range cfg.EnvVars {
		if v.Secret {
			out[v.Name] = true
		}
	}
	return out
}
