package deploy

import (
	"context"
	"time"
)

// poll invokes fn up to attempts times at fixed intervals, stopping early on
// the first true result or on any error. It returns whether fn ever
// succeeded. The sleep between attempts comes from clock, so tests run
// without real waiting. (The transport layer uses exponential backoff for
// reconnects; this loop stays fixed-interval because service start time is
// short and bounded, and a fixed budget gives a predictable total wait.)
func poll(ctx context.Context, clock Clock, attempts int, interval time.Duration, fn func(context.Context) (bool, error)) (bool, error) {
	for attempt := 1; attempt <= attempts; attempt++ {
		ok, err := fn(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if attempt == attempts {
			break
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			return false, err
		}
	}
	return false, nil
}
