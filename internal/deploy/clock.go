package deploy

import (
	"context"
	"time"
)

// tsLayout produces the 14-digit suffix used for backups and rotated logs.
const tsLayout = "20060102150405"

// Clock abstracts wall time and sleeping so the orchestrator is
// deterministic under test.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
