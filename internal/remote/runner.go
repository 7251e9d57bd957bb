package remote

import (
	"context"
)

// Result is the outcome of one remote command.
type Result struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
}

// Runner knows how to run a command on a remote host (over SSH or any
// transport), apply retries/backoff, and return the captured output.
//
// Run returns an error only for transport failures (*ConnectionError);
// a non-zero exit is reported through Result.ExitCode so that callers
// may tolerate it (process-not-found probes and the like).
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// RunChecked runs command and converts a non-zero exit into a *CommandError.
// Use it for commands that are expected to succeed.
func RunChecked(ctx context.Context, r Runner, command string) (Result, error) {
	res, err := r.Run(ctx, command)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &CommandError{Command: command, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
