package transfer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// SessionOpener is the slice of *ssh.Client the uploader needs.
type SessionOpener interface {
	NewSession() (*ssh.Session, error)
}

// SSHUploader streams the local file to the remote host through a shell
// session: the remote side writes to <path>.part and renames when the
// stream completes, so a concurrent start never sees a partial artifact.
type SSHUploader struct {
	client SessionOpener
}

var _ Uploader = (*SSHUploader)(nil)

func NewSSHUploader(client SessionOpener) *SSHUploader {
	return &SSHUploader{client: client}
}

func (u *SSHUploader) Upload(ctx context.Context, localPath, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer file.Close()

	sess, err := u.client.NewSession()
	if err != nil {
		return &TransferError{LocalPath: localPath, RemotePath: remotePath,
			Err: fmt.Errorf("new session: %w", err)}
	}
	defer sess.Close()

	sess.Stdin = file

	done := make(chan error, 1)
	go func() { done <- sess.Run(UploadCommand(remotePath)) }()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		return &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: ctx.Err()}
	case err = <-done:
	}
	if err != nil {
		return &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	return nil
}

// UploadCommand builds the remote side of the upload: receive stdin into a
// temp name, then rename into place.
func UploadCommand(remotePath string) string {
	q := shellQuote(remotePath)
	part := shellQuote(remotePath + ".part")
	return fmt.Sprintf("cat > %s && mv %s %s", part, part, q)
}

// shellQuote wraps s in single quotes, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
