package session

import (
	"context"
	"math"
	"time"
)

// waitSlice bounds how long a backoff wait can run without rechecking
// cancellation.
const waitSlice = 100 * time.Millisecond

// NextBackoffDelay returns the reconnect delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// WaitBackoff sleeps the attempt's delay in interruptible slices. Cancellation
// aborts the wait within at most one slice.
func WaitBackoff(ctx context.Context, cfg BackoffConfig, attempt int) error {
	remaining := NextBackoffDelay(cfg, attempt)
	for remaining > 0 {
		slice := remaining
		if slice > waitSlice {
			slice = waitSlice
		}
		timer := time.NewTimer(slice)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		remaining -= slice
	}
	return nil
}
