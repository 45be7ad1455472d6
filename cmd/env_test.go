package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetctl/internal/config"
	"fleetctl/internal/envfile"
)

// useServicesDir points the command plumbing at a temp services directory
// containing one valid service, and returns that service's directory.
func useServicesDir(t *testing.T, id string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	descriptor := "name: " + id + "\ndescription: test service\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DescriptorFileName), []byte(descriptor), 0644))

	viper.Set("services_dir", root)
	t.Cleanup(func() { viper.Set("services_dir", "") })
	return dir
}

func TestEnvCmd(t *testing.T) {
	cmd := envCmd

	assert.NotNil(t, cmd)
	assert.Equal(t, "env", cmd.Use)
	assert.True(t, cmd.HasSubCommands())

	for _, subcmd := range []string{"list", "get", "set", "unset"} {
		found := false
		for _, child := range cmd.Commands() {
			if child.Name() == subcmd {
				found = true
				break
			}
		}
		assert.True(t, found, "Subcommand %s not found", subcmd)
	}

	revealFlag := envListCmd.Flags().Lookup("reveal")
	require.NotNil(t, revealFlag)
	assert.Equal(t, "false", revealFlag.DefValue)
}

func TestRunEnvSet_WritesFile(t *testing.T) {
	dir := useServicesDir(t, "postgres")

	err := runEnvSet(envSetCmd, []string{"postgres", "USER=admin", "PASSWORD=s3cret"})
	require.NoError(t, err)

	values, err := envfile.Load(envfile.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, "admin", values["USER"])
	assert.Equal(t, "s3cret", values["PASSWORD"])
}

func TestRunEnvSet_PreservesOtherEntries(t *testing.T) {
	dir := useServicesDir(t, "postgres")
	require.NoError(t, os.WriteFile(envfile.Path(dir), []byte("KEEP=me\n"), 0644))

	err := runEnvSet(envSetCmd, []string{"postgres", "NEW=value"})
	require.NoError(t, err)

	values, err := envfile.Load(envfile.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, "me", values["KEEP"])
	assert.Equal(t, "value", values["NEW"])
}

func TestRunEnvSet_RejectsMalformedAssignments(t *testing.T) {
	useServicesDir(t, "postgres")

	for _, bad := range []string{"NOEQUALS", "=empty-key"} {
		err := runEnvSet(envSetCmd, []string{"postgres", bad})
		assert.Error(t, err, "assignment %q must be rejected", bad)
		assert.Contains(t, err.Error(), "KEY=VALUE")
	}
}

func TestRunEnvUnset_RemovesEntries(t *testing.T) {
	dir := useServicesDir(t, "postgres")
	require.NoError(t, os.WriteFile(envfile.Path(dir), []byte("A=1\nB=2\nC=3\n"), 0644))

	err := runEnvUnset(envUnsetCmd, []string{"postgres", "A", "C"})
	require.NoError(t, err)

	values, err := envfile.Load(envfile.Path(dir))
	require.NoError(t, err)
	assert.NotContains(t, values, "A")
	assert.Equal(t, "2", values["B"])
	assert.NotContains(t, values, "C")
}

func TestEnvCommands_UnknownService(t *testing.T) {
	useServicesDir(t, "postgres")

	err := runEnvSet(envSetCmd, []string{"missing", "A=1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	err = runEnvGet(envGetCmd, []string{"missing", "A"})
	require.Error(t, err)

	err = runEnvUnset(envUnsetCmd, []string{"missing", "A"})
	require.Error(t, err)
}

func TestRunEnvGet_UnsetKey(t *testing.T) {
	useServicesDir(t, "postgres")

	err := runEnvGet(envGetCmd, []string{"postgres", "NEVER_SET"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEVER_SET")
}

func TestSecretNames(t *testing.T) {
	cfg := config.ServiceConfig{
		EnvVars: []config.EnvVarConfig{
			{Name: "API_TOKEN", Secret: true},
			{Name: "HOST"},
			{Name: "DB_PASSWORD", Secret: true},
		},
	}

	secret := secretNames(cfg)
	assert.True(t, secret["API_TOKEN"])
	assert.True(t, secret["DB_PASSWORD"])
	assert.False(t, secret["HOST"])
}
