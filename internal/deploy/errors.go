package deploy

import (
	"fmt"
	"strings"
)

// VerificationTimeoutError means the new process never reached a listening
// state within the fixed poll budget. LogTail carries the last lines of the
// process log for diagnostics.
type VerificationTimeoutError struct {
	Port     int
	Attempts int
	LogTail  []string
}

func (e *VerificationTimeoutError) Error() string {
	msg := fmt.Sprintf("port %d not listening after %d attempts", e.Port, e.Attempts)
	if len(e.LogTail) > 0 {
		msg += "; log tail:\n" + strings.Join(e.LogTail, "\n")
	}
	return msg
}
