package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

// SSHRunner runs commands remotely with resilience baked in.

type SSHRunner struct {
	client *ResilientClient
}

var _ Runner = (*SSHRunner)(nil)

func NewSSHRunner(client *ResilientClient) *SSHRunner {
	return &SSHRunner{client: client}
}

func (r *SSHRunner) Run(ctx context.Context, command string) (Result, error) {
	var result Result

	operation := func() error {
		// open session via circuit-breaker
		res, err := r.client.ResConf.CircuitBreaker.Execute(func() (any, error) {
			return r.client.SSHClient.NewSession()
		})
		if err != nil {
			return fmt.Errorf("new session: %w", err)
		}
		sess := res.(*ssh.Session)
		defer sess.Close()

		stdout, err := sess.StdoutPipe()
		if err != nil {
			return fmt.Errorf("stdout pipe: %w", err)
		}
		stderr, err := sess.StderrPipe()
		if err != nil {
			return fmt.Errorf("stderr pipe: %w", err)
		}

		if err := sess.Start(command); err != nil {
			return fmt.Errorf("start command: %w", err)
		}

		result = Result{}
		g, scanCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			result.Stdout = scanLines(scanCtx, stdout)
			return nil
		})
		g.Go(func() error {
			result.Stderr = scanLines(scanCtx, stderr)
			return nil
		})
		_ = g.Wait()

		err = sess.Wait()
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			// non-zero exit is a valid outcome, not a transport failure
			result.ExitCode = exitErr.ExitStatus()
			return nil
		}
		return err
	}

	b := backoff.WithContext(r.client.ResConf.BackoffSettings, ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return Result{}, &ConnectionError{Addr: r.client.SSHClient.RemoteAddr().String(), Err: err}
	}
	return result, nil
}

func scanLines(ctx context.Context, r io.Reader) []string {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return lines
		default:
			lines = append(lines, scanner.Text())
		}
	}
	return lines
}
