/*
Package task provides the step registry and task runner that sequence
hivectl's multi-step operations against a cluster and a consensus network.

A Task is a titled unit of work with an optional skip predicate. Tasks are
assembled into Lists that run either sequentially or concurrently; an action
may return a nested List, which the runner executes before proceeding to the
next sibling. The Context is the per-run state bag: the resolved command
configuration plus values computed by earlier tasks for later ones.

# Execution semantics

Sequential lists guarantee task N+1 never starts until task N (including any
nested sub-tasks) has fully resolved. Concurrent lists start tasks in list
order without waiting; completion order is unconstrained and the group as a
whole is awaited before the parent proceeds. The first failure anywhere
aborts the run: unstarted siblings do not start, already-started concurrent
siblings finish best-effort and their results are discarded.

The runner performs no retries. Retry-with-backoff is a domain concern that
lives inside individual task actions, backed by the poll package.

# Cleanup

Cleanup functions registered with Runner.Defer (lease release, client close,
chart rollback) run on every exit path before the wrapped RunError reaches
the CLI boundary. Cleanup failures are logged and swallowed so the original
error stays the reported cause.

	runner := task.NewRunner()
	runner.Defer(lease.Release)

	list := task.NewList(
		task.New("Initialize", initAction),
		task.New("Check network pods are running", waitAction).
			SkipWhen(func(c *task.Context) bool { return cfg.SkipWait }),
	)
	err := runner.Run(ctx, list, task.NewContext(cfg))
*/
package task
