package poll

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	m.Run()
}

func TestSucceedsOnNthAttempt(t *testing.T) {
	attempts := 0
	check := func(ctx context.Context) (Outcome, error) {
		attempts++
		if attempts == 3 {
			return Done, nil
		}
		return Transient, nil
	}

	err := WaitUntil(context.Background(), Config{
		Entity:      "node node1",
		Target:      "ACTIVE",
		MaxAttempts: 10,
		Delay:       time.Millisecond,
	}, check)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "exactly 3 predicate evaluations expected")
}

func TestBoundedAttempts(t *testing.T) {
	attempts := 0
	check := func(ctx context.Context) (Outcome, error) {
		attempts++
		return Transient, errors.New("still starting")
	}

	err := WaitUntil(context.Background(), Config{
		Entity:      "pod network-node1-0",
		Target:      "Running",
		MaxAttempts: 5,
		Delay:       time.Millisecond,
	}, check)

	require.Error(t, err)
	assert.Equal(t, 5, attempts, "poller must perform at most MaxAttempts evaluations")

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "pod network-node1-0", timeoutErr.Entity)
	assert.Equal(t, "Running", timeoutErr.Target)
	assert.Equal(t, 5, timeoutErr.Attempts)
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestTerminalShortCircuit(t *testing.T) {
	attempts := 0
	cause := errors.New("status CATASTROPHIC_FAILURE")
	check := func(ctx context.Context) (Outcome, error) {
		attempts++
		if attempts == 2 {
			return Terminal, cause
		}
		return Transient, nil
	}

	err := WaitUntil(context.Background(), Config{
		Entity:      "node node1",
		Target:      "ACTIVE",
		MaxAttempts: 100,
		Delay:       time.Millisecond,
	}, check)

	require.Error(t, err)
	assert.Equal(t, 2, attempts, "terminal outcome must stop polling on the same attempt")

	var terminalErr *TerminalError
	require.ErrorAs(t, err, &terminalErr)
	assert.ErrorIs(t, err, cause)
}

func TestDelayOnlyBetweenAttempts(t *testing.T) {
	const delay = 20 * time.Millisecond
	attempts := 0
	check := func(ctx context.Context) (Outcome, error) {
		attempts++
		if attempts == 3 {
			return Done, nil
		}
		return Transient, nil
	}

	start := time.Now()
	err := WaitUntil(context.Background(), Config{
		Entity:      "node node1",
		Target:      "ACTIVE",
		MaxAttempts: 10,
		Delay:       delay,
	}, check)
	elapsed := time.Since(start)

	require.NoError(t, err)
	// Two sleeps: between attempts 1->2 and 2->3, none after success.
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 6*delay)
}

func TestAttemptTimeoutCountsAsTransient(t *testing.T) {
	attempts := 0
	check := func(ctx context.Context) (Outcome, error) {
		attempts++
		if attempts >= 2 {
			return Done, nil
		}
		<-ctx.Done()
		return Transient, ctx.Err()
	}

	err := WaitUntil(context.Background(), Config{
		Entity:         "node node1",
		Target:         "ACTIVE",
		MaxAttempts:    3,
		Delay:          time.Millisecond,
		AttemptTimeout: 10 * time.Millisecond,
	}, check)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestParentCancellationStopsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	check := func(ctx context.Context) (Outcome, error) {
		attempts++
		cancel()
		return Transient, nil
	}

	err := WaitUntil(ctx, Config{
		Entity:      "node node1",
		Target:      "ACTIVE",
		MaxAttempts: 100,
		Delay:       time.Hour,
	}, check)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestZeroMaxAttemptsRejected(t *testing.T) {
	err := WaitUntil(context.Background(), Config{Entity: "x"}, func(ctx context.Context) (Outcome, error) {
		return Done, nil
	})
	require.Error(t, err)
}
