package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=mock_runner_test.go -package=main github.com/mil-ad/btswitch Runner

// waitDelay bounds how long we keep reading pipes after the process was killed.
const waitDelay = 2 * time.Second

// CommandResult is the outcome of one external command that ran to exit.
type CommandResult struct {
	Argv     []string
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, argv ...string) (CommandResult, error)
}

type execRunner struct {
	timeout time.Duration
	log     zerolog.Logger
}

func newExecRunner(timeout time.Duration, log zerolog.Logger) *execRunner {
	return &execRunner{timeout: timeout, log: log}
}

// Run starts argv and waits for it. A non-zero exit is reported through
// Success; only spawn failures and deadline expiry return an error.
func (r *execRunner) Run(ctx context.Context, argv ...string) (CommandResult, error) {
	res := CommandResult{Argv: argv}
	if len(argv) == 0 {
		return res, &LaunchError{Argv: argv, Err: errors.New("empty command")}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		r.log.Warn().Strs("argv", argv).Dur("elapsed", elapsed).Msg("command did not finish in time")
		return res, &LaunchError{Argv: argv, Err: fmt.Errorf("wait: %w", ctxErr)}
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Success = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		r.log.Error().Err(err).Strs("argv", argv).Msg("command failed to start")
		return res, &LaunchError{Argv: argv, Err: err}
	}

	r.log.Debug().
		Strs("argv", argv).
		Int("exit_code", res.ExitCode).
		Dur("elapsed", elapsed).
		Msg("command finished")

	return res, nil
}
