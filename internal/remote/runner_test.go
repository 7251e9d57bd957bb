package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	result Result
	err    error
}

func (s stubRunner) Run(context.Context, string) (Result, error) {
	return s.result, s.err
}

func TestRunCheckedPassesThroughSuccess(t *testing.T) {
	r := stubRunner{result: Result{Stdout: []string{"ok"}}}

	res, err := RunChecked(context.Background(), r, "true")

	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, res.Stdout)
}

func TestRunCheckedWrapsNonZeroExit(t *testing.T) {
	r := stubRunner{result: Result{ExitCode: 2, Stderr: []string{"no such file"}}}

	_, err := RunChecked(context.Background(), r, "test -f /gone")

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "test -f /gone", cmdErr.Command)
	assert.Equal(t, 2, cmdErr.ExitCode)
	assert.Contains(t, cmdErr.Error(), "no such file")
}

func TestRunCheckedPassesThroughTransportError(t *testing.T) {
	want := &ConnectionError{Addr: "10.0.0.5:22", Err: fmt.Errorf("connection refused")}
	r := stubRunner{err: want}

	_, err := RunChecked(context.Background(), r, "true")

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "10.0.0.5:22", connErr.Addr)
}

func TestConnectionErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("auth failed")
	err := &ConnectionError{Addr: "h:22", Err: inner}

	assert.True(t, errors.Is(err, inner))
	assert.Contains(t, err.Error(), "h:22")
}

func TestAuthMethodsRequireAtLeastOne(t *testing.T) {
	_, err := authMethods(ClientOptions{Addr: "h:22", User: "deploy"})
	assert.Error(t, err)

	methods, err := authMethods(ClientOptions{Addr: "h:22", User: "deploy", Password: "s3cret"})
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}
