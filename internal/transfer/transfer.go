package transfer

import (
	"context"
	"fmt"
)

// Uploader copies a local file to a path on the remote host. The file must
// never be observable half-written at remotePath: implementations write to a
// temporary name and rename on completion.
type Uploader interface {
	Upload(ctx context.Context, localPath, remotePath string) error
}

// TransferError wraps any failure to place the artifact on the remote host:
// network failure, missing local file, insufficient remote disk or
// permissions. Fatal to the current run.
type TransferError struct {
	LocalPath  string
	RemotePath string
	Err        error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload %s -> %s failed: %v", e.LocalPath, e.RemotePath, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
