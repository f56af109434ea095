package task

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
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

func noop(ctx context.Context, run *Context) (*List, error) {
	return nil, nil
}

func TestSequentialOrdering(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(name string) Action {
		return func(ctx context.Context, run *Context) (*List, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	list := NewList(
		New("first", record("first")),
		New("second", record("second")),
		New("third", record("third")),
	)

	err := NewRunner().Run(context.Background(), list, NewContext(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSequentialContextWritesVisibleToLaterTasks(t *testing.T) {
	list := NewList(
		New("write", func(ctx context.Context, run *Context) (*List, error) {
			run.Set("new-node-alias", "node3")
			return nil, nil
		}),
		New("read", func(ctx context.Context, run *Context) (*List, error) {
			alias := run.MustGet("new-node-alias").(string)
			if alias != "node3" {
				return nil, errors.New("unexpected alias")
			}
			return nil, nil
		}),
	)

	err := NewRunner().Run(context.Background(), list, NewContext(nil))
	require.NoError(t, err)
}

func TestSkipPredicatePurity(t *testing.T) {
	ran := false
	run := NewContext(nil)

	list := NewList(
		New("skipped", func(ctx context.Context, rc *Context) (*List, error) {
			ran = true
			rc.Set("side-effect", true)
			return nil, nil
		}).SkipWhen(func(*Context) bool { return true }),
	)

	err := NewRunner().Run(context.Background(), list, run)
	require.NoError(t, err)
	assert.False(t, ran, "skipped task action must never be invoked")
	assert.Empty(t, run.Keys(), "skipped task must leave the context unchanged")
}

func TestSequentialStopsAtFirstFailure(t *testing.T) {
	var thirdRan bool
	boom := errors.New("boom")

	list := NewList(
		New("ok", noop),
		New("fails", func(ctx context.Context, run *Context) (*List, error) {
			return nil, boom
		}),
		New("never", func(ctx context.Context, run *Context) (*List, error) {
			thirdRan = true
			return nil, nil
		}),
	)

	err := NewRunner().Run(context.Background(), list, NewContext(nil))
	require.Error(t, err)
	assert.False(t, thirdRan)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `task "fails"`)
}

func TestConcurrentGroupAwaitsAllSiblings(t *testing.T) {
	var started, finished atomic.Int32
	slow := func(ctx context.Context, run *Context) (*List, error) {
		started.Add(1)
		time.Sleep(20 * time.Millisecond)
		finished.Add(1)
		return nil, nil
	}

	list := NewConcurrentList(
		New("a", slow),
		New("b", slow),
		New("c", slow),
	)

	err := NewRunner().Run(context.Background(), list, NewContext(nil))
	require.NoError(t, err)
	assert.Equal(t, int32(3), started.Load())
	assert.Equal(t, int32(3), finished.Load(), "parent must not proceed before all siblings settle")
}

func TestConcurrentStartedSiblingsFinishAfterFailure(t *testing.T) {
	gate := make(chan struct{})
	var slowFinished atomic.Bool
	boom := errors.New("boom")

	list := NewConcurrentList(
		New("slow", func(ctx context.Context, run *Context) (*List, error) {
			close(gate)
			time.Sleep(30 * time.Millisecond)
			slowFinished.Store(true)
			return nil, nil
		}),
		New("fails", func(ctx context.Context, run *Context) (*List, error) {
			<-gate
			return nil, boom
		}),
	)

	err := NewRunner().Run(context.Background(), list, NewContext(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, slowFinished.Load(), "already-started sibling must finish its own side effects")
}

func TestNestedListExecution(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(name string) Action {
		return func(ctx context.Context, run *Context) (*List, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	list := NewList(
		New("parent", func(ctx context.Context, run *Context) (*List, error) {
			return NewList(
				New("child-1", record("child-1")),
				New("child-2", record("child-2")),
			), nil
		}),
		New("after", record("after")),
	)

	err := NewRunner().Run(context.Background(), list, NewContext(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"child-1", "child-2", "after"}, order)
}

func TestCleanupsRunOnFailureInReverseOrder(t *testing.T) {
	var cleanups []string
	runner := NewRunner()
	runner.Defer(func() error {
		cleanups = append(cleanups, "first-registered")
		return nil
	})
	runner.Defer(func() error {
		cleanups = append(cleanups, "second-registered")
		return nil
	})

	list := NewList(New("fails", func(ctx context.Context, run *Context) (*List, error) {
		return nil, errors.New("boom")
	}))

	err := runner.Run(context.Background(), list, NewContext(nil))
	require.Error(t, err)
	assert.Equal(t, []string{"second-registered", "first-registered"}, cleanups)
}

func TestCleanupErrorDoesNotMaskRunError(t *testing.T) {
	boom := errors.New("original failure")
	runner := NewRunner()
	runner.Defer(func() error { return errors.New("cleanup failure") })

	list := NewList(New("fails", func(ctx context.Context, run *Context) (*List, error) {
		return nil, boom
	}))

	err := runner.Run(context.Background(), list, NewContext(nil))
	assert.ErrorIs(t, err, boom)
}

func TestCleanupsRunOnSuccess(t *testing.T) {
	released := false
	runner := NewRunner()
	runner.Defer(func() error {
		released = true
		return nil
	})

	err := runner.Run(context.Background(), NewList(New("ok", noop)), NewContext(nil))
	require.NoError(t, err)
	assert.True(t, released)
}

func TestMustGetPanicsOnForwardReference(t *testing.T) {
	run := NewContext(nil)
	assert.Panics(t, func() { run.MustGet("never-written") })
}

func TestCancelledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	list := NewList(New("never", func(ctx context.Context, run *Context) (*List, error) {
		ran = true
		return nil, nil
	}))

	err := NewRunner().Run(ctx, list, NewContext(nil))
	require.Error(t, err)
	assert.False(t, ran)
}
