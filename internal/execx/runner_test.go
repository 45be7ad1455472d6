package execx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesStdoutAndStderr(t *testing.T) {
	res, err := RunShell(context.Background(), t.TempDir(), "echo out; echo err >&2")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	res, err := RunShell(context.Background(), t.TempDir(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_UsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("here"), 0644))

	res, err := RunShell(context.Background(), dir, "cat marker.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "here", res.Stdout)
}

func TestRun_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := RunShell(ctx, t.TempDir(), "sleep 5")
	require.Error(t, err)

	var te *TimeoutError
	assert.True(t, errors.As(err, &te))
	assert.Contains(t, te.Error(), "timed out")
}

func TestRun_ToolNotFound(t *testing.T) {
	_, err := Run(context.Background(), t.TempDir(), "fleetctl-no-such-binary-xyz")
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "fleetctl-no-such-binary-xyz", nf.Tool)
}

func TestRun_EmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), t.TempDir())
	assert.Error(t, err)
}
