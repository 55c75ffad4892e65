package gemini

import (
	"context"
	"time"
)

// Do runs op up to maxAttempts times. After failed attempt i it waits
// attempt×baseDelay (10s, then 20s, ...) before trying again, but only
// when retriable reports the failure as transient; any other error is
// returned immediately. The last error is returned once attempts are
// exhausted. No state is kept between calls.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, retriable func(error) bool, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !retriable(err) || attempt == maxAttempts {
			return err
		}
		select {
		case <-time.After(time.Duration(attempt) * baseDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
