package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerSuccess(t *testing.T) {
	r := newExecRunner(5*time.Second, zerolog.Nop())

	res, err := r.Run(context.Background(), "sh", "-c", "echo 'Connected: yes'; echo oops >&2")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "Connected: yes\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, []string{"sh", "-c", "echo 'Connected: yes'; echo oops >&2"}, res.Argv)
}

func TestExecRunnerNonZeroExitIsNotAnError(t *testing.T) {
	r := newExecRunner(5*time.Second, zerolog.Nop())

	res, err := r.Run(context.Background(), "sh", "-c", "echo partial; exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "partial\n", res.Stdout)
}

func TestExecRunnerLaunchError(t *testing.T) {
	r := newExecRunner(5*time.Second, zerolog.Nop())

	_, err := r.Run(context.Background(), "/nonexistent/btswitch-test-tool", "-l")
	require.Error(t, err)

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, []string{"/nonexistent/btswitch-test-tool", "-l"}, le.Argv)
	assert.ErrorIs(t, err, ErrLaunch)
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	r := newExecRunner(0, zerolog.Nop())

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrLaunch)
}

func TestExecRunnerTimeout(t *testing.T) {
	r := newExecRunner(100*time.Millisecond, zerolog.Nop())

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", "5")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecRunnerCanceledContext(t *testing.T) {
	r := newExecRunner(5*time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "sh", "-c", "true")
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, context.Canceled)
}
