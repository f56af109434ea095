package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/metrics"
)

// Outcome classifies the result of one poll attempt. Classification is an
// explicit, tested branch rather than an implicit catch-all: transient
// conditions (fetch failure, unparseable response, not-yet states) keep
// polling, terminal conditions stop it immediately.
type Outcome int

const (
	// Transient means the target state was not reached yet; sleep and retry.
	Transient Outcome = iota
	// Done means the target state was reached; stop polling successfully.
	Done
	// Terminal means a known unrecoverable state was observed; stop
	// polling and fail immediately regardless of remaining attempts.
	Terminal
)

// Check performs one poll attempt. The returned error carries detail for
// Terminal outcomes and optional diagnostics for Transient ones; it is
// ignored for Done.
type Check func(ctx context.Context) (Outcome, error)

// Config bounds a polling loop. Attempts are always bounded; the loop can
// never run forever.
type Config struct {
	// Entity names what is being waited on, for errors and metrics.
	Entity string
	// Target names the awaited condition, for error messages.
	Target string
	// MaxAttempts is the attempt budget. Must be at least 1.
	MaxAttempts int
	// Delay is the sleep between attempts (not before the first, not
	// after the last).
	Delay time.Duration
	// AttemptTimeout bounds each individual check invocation.
	AttemptTimeout time.Duration
}

// TimeoutError reports that the attempt budget was exhausted without the
// target condition holding.
type TimeoutError struct {
	Entity   string
	Target   string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s to reach %s after %d attempts",
		e.Entity, e.Target, e.Attempts)
}

// TerminalError reports that a known unrecoverable state was observed.
type TerminalError struct {
	Entity string
	Cause  error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s entered a terminal failure state: %v", e.Entity, e.Cause)
}

func (e *TerminalError) Unwrap() error {
	return e.Cause
}

// WaitUntil polls check until it reports Done, a Terminal outcome aborts the
// wait, the parent context is cancelled, or MaxAttempts is exhausted.
// It never returns success without the check actually having reported Done.
func WaitUntil(ctx context.Context, cfg Config, check Check) error {
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("poll %s: max attempts must be at least 1", cfg.Entity)
	}

	logger := log.WithComponent("poll")

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		metrics.PollAttemptsTotal.WithLabelValues(cfg.Entity).Inc()

		outcome, err := runAttempt(ctx, cfg.AttemptTimeout, check)
		switch outcome {
		case Done:
			logger.Debug().
				Str("entity", cfg.Entity).
				Str("target", cfg.Target).
				Int("attempt", attempt).
				Msg("target state reached")
			return nil
		case Terminal:
			return &TerminalError{Entity: cfg.Entity, Cause: err}
		default:
			logger.Debug().
				Err(err).
				Str("entity", cfg.Entity).
				Str("target", cfg.Target).
				Int("attempt", attempt).
				Int("max_attempts", cfg.MaxAttempts).
				Msg("not ready yet")
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	metrics.PollTimeoutsTotal.WithLabelValues(cfg.Entity).Inc()
	return &TimeoutError{Entity: cfg.Entity, Target: cfg.Target, Attempts: cfg.MaxAttempts}
}

// runAttempt bounds a single check with the per-attempt timeout. An attempt
// that exceeds its timeout counts as transient, not fatal.
func runAttempt(ctx context.Context, timeout time.Duration, check Check) (Outcome, error) {
	if timeout <= 0 {
		return check(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := check(attemptCtx)
	if attemptCtx.Err() != nil && outcome != Done && outcome != Terminal {
		return Transient, fmt.Errorf("attempt timed out: %w", attemptCtx.Err())
	}
	return outcome, err
}
