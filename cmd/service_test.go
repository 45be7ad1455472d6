package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetctl/internal/config"
)

func TestServiceCmd(t *testing.T) {
	cmd := serviceCmd

	assert.NotNil(t, cmd)
	assert.Equal(t, "service", cmd.Use)
	assert.Contains(t, cmd.Short, "Manage services")
	assert.True(t, cmd.HasSubCommands())

	// Check that all expected subcommands exist
	subcommands := []string{"list", "status", "start", "stop", "restart", "install", "logs"}
	for _, subcmd := range subcommands {
		found := false
		for _, child := range cmd.Commands() {
			if child.Name() == subcmd {
				found = true
				break
			}
		}
		assert.True(t, found, "Subcommand %s not found", subcmd)
	}
}

func TestServiceListCmd(t *testing.T) {
	cmd := serviceListCmd

	assert.NotNil(t, cmd)
	assert.Equal(t, "list", cmd.Use)
	assert.Contains(t, cmd.Aliases, "ls")
	assert.Contains(t, cmd.Short, "List all services")
	assert.NotNil(t, cmd.RunE)
}

func TestServiceLifecycleCmds(t *testing.T) {
	for _, cmd := range []*cobra.Command{serviceStartCmd, serviceStopCmd, serviceRestartCmd, serviceStatusCmd, serviceInstallCmd, serviceLogsCmd} {
		assert.Contains(t, cmd.Use, "<service-id>", "Use line of %s", cmd.Name())
		assert.NotNil(t, cmd.Args, "Args of %s", cmd.Name())
		assert.NotNil(t, cmd.RunE, "RunE of %s", cmd.Name())
	}
}

func TestServiceCmd_Flags(t *testing.T) {
	cmd := serviceCmd

	outputFlag := cmd.PersistentFlags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "table", outputFlag.DefValue)

	quietFlag := cmd.PersistentFlags().Lookup("quiet")
	require.NotNil(t, quietFlag)
	assert.Equal(t, "false", quietFlag.DefValue)

	followFlag := serviceLogsCmd.Flags().Lookup("follow")
	require.NotNil(t, followFlag)
	assert.Equal(t, "false", followFlag.DefValue)

	tailFlag := serviceLogsCmd.Flags().Lookup("tail")
	require.NotNil(t, tailFlag)
	assert.Equal(t, "50", tailFlag.DefValue)
}

func TestServiceCmd_Help(t *testing.T) {
	root := &cobra.Command{Use: "fleetctl"}
	root.AddCommand(serviceCmd)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"service", "--help"})

	err := root.Execute()
	assert.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Manage services")
	assert.Contains(t, output, "Available Commands:")
	for _, name := range []string{"list", "status", "start", "stop", "restart", "install", "logs"} {
		assert.Contains(t, output, name)
	}
}

func TestFormatPorts(t *testing.T) {
	assert.Equal(t, "-", formatPorts(nil))
	assert.Equal(t, "8080", formatPorts([]config.PortConfig{{Name: "http", Port: 8080}}))
	assert.Equal(t, "8080, 9090", formatPorts([]config.PortConfig{
		{Name: "http", Port: 8080},
		{Name: "metrics", Port: 9090},
	}))
}

func TestDescribeEnvVar(t *testing.T) {
	env := map[string]string{
		"API_TOKEN": "super-secret-token",
		"HOST":      "localhost",
	}

	tests := []struct {
		name     string
		v        config.EnvVarConfig
		expected string
	}{
		{
			name:     "set and secret is masked",
			v:        config.EnvVarConfig{Name: "API_TOKEN", Secret: true},
			expected: "supe**********oken",
		},
		{
			name:     "set and plain is shown",
			v:        config.EnvVarConfig{Name: "HOST"},
			expected: "localhost",
		},
		{
			name:     "unset with default",
			v:        config.EnvVarConfig{Name: "PORT", Default: "5432"},
			expected: "(default 5432)",
		},
		{
			name:     "unset and required",
			v:        config.EnvVarConfig{Name: "DB_URL", Required: true},
			expected: "(required, unset)",
		},
		{
			name:     "unset and optional",
			v:        config.EnvVarConfig{Name: "EXTRA"},
			expected: "(unset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeEnvVar(tt.v, env))
		})
	}
}
