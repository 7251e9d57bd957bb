package remote

import (
	"fmt"
	"strings"
)

// ConnectionError means the SSH channel could not be established or was lost:
// dial failure, auth rejection, host-key mismatch, session setup failure.
// It is fatal to the current run; no deploy stage retries it.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ssh connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError means a remote command exited non-zero when the caller
// expected it to succeed. Callers that tolerate non-zero exits inspect
// Result.ExitCode instead and never see this type.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   []string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("remote command %q exited %d", e.Command, e.ExitCode)
	if len(e.Stderr) > 0 {
		msg += ": " + strings.Join(e.Stderr, "; ")
	}
	return msg
}
