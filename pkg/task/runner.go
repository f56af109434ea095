package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/metrics"
)

// RunError wraps the first task failure of a run into the single
// application-level error kind surfaced at the CLI boundary.
type RunError struct {
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("operation failed: %v", e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Runner executes task lists against a run context. Cleanup functions
// registered with Defer run on every exit path, in reverse registration
// order, before the wrapped error propagates.
type Runner struct {
	logger zerolog.Logger

	mu       sync.Mutex
	cleanups []func() error
}

// NewRunner creates a task runner.
func NewRunner() *Runner {
	return &Runner{logger: log.WithComponent("task-runner")}
}

// Defer registers a cleanup function executed after the run finishes,
// whether it succeeded or failed. Cleanup failures are logged and
// swallowed so the original run error is preserved as the reported cause.
func (r *Runner) Defer(cleanup func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanups = append(r.cleanups, cleanup)
}

// Run executes the list top to bottom. The first task to fail aborts the
// run; the error is wrapped in a RunError after cleanups have executed.
func (r *Runner) Run(ctx context.Context, list *List, run *Context) error {
	err := r.runList(ctx, list, run)
	r.runCleanups()
	if err != nil {
		return &RunError{Err: err}
	}
	return nil
}

func (r *Runner) runCleanups() {
	r.mu.Lock()
	cleanups := r.cleanups
	r.cleanups = nil
	r.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			r.logger.Warn().Err(err).Msg("cleanup failed")
		}
	}
}

func (r *Runner) runList(ctx context.Context, list *List, run *Context) error {
	if list == nil || len(list.Tasks) == 0 {
		return nil
	}
	if list.Mode == Concurrent {
		return r.runConcurrent(ctx, list, run)
	}
	for _, t := range list.Tasks {
		if err := r.runTask(ctx, t, run); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runConcurrent(ctx context.Context, list *List, run *Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range list.Tasks {
		g.Go(func() error {
			// Once a sibling has failed, unstarted siblings stay
			// unstarted. Siblings already past this gate keep the
			// parent context so they can finish on their own terms.
			if gctx.Err() != nil {
				return nil
			}
			return r.runTask(ctx, t, run)
		})
	}
	return g.Wait()
}

func (r *Runner) runTask(ctx context.Context, t *Task, run *Context) error {
	if t.Skip != nil && t.Skip(run) {
		metrics.TasksExecutedTotal.WithLabelValues("skipped").Inc()
		r.logger.Debug().Str("task", t.Title).Msg("task skipped")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.logger.Info().Str("task", t.Title).Msg("task started")
	timer := metrics.NewTimer()

	nested, err := t.Action(ctx, run)
	timer.ObserveDuration(metrics.TaskDuration)
	if err != nil {
		metrics.TasksExecutedTotal.WithLabelValues("failed").Inc()
		r.logger.Error().Err(err).Str("task", t.Title).Msg("task failed")
		return fmt.Errorf("task %q: %w", t.Title, err)
	}

	metrics.TasksExecutedTotal.WithLabelValues("run").Inc()

	if nested != nil {
		return r.runList(ctx, nested, run)
	}

	r.logger.Debug().Str("task", t.Title).Msg("task completed")
	return nil
}
