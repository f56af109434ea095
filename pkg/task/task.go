package task

import "context"

// Mode controls how the tasks of a List are executed relative to each other.
type Mode int

const (
	// Sequential runs tasks strictly in list order.
	Sequential Mode = iota
	// Concurrent starts tasks in list order without waiting for earlier
	// ones to finish; the whole group is awaited before the parent
	// proceeds. Completion order is unconstrained.
	Concurrent
)

// Action is the unit of work a Task performs. It may return a nested List
// which the runner executes before moving to the next sibling.
type Action func(ctx context.Context, run *Context) (*List, error)

// Task is a named unit of work with an optional skip predicate.
type Task struct {
	Title  string
	Skip   func(*Context) bool
	Action Action
}

// New creates a task with the given title and action.
func New(title string, action Action) *Task {
	return &Task{Title: title, Action: action}
}

// SkipWhen attaches a skip predicate and returns the task for chaining.
// A task whose predicate evaluates true at execution time never runs its
// action and leaves the run context untouched.
func (t *Task) SkipWhen(skip func(*Context) bool) *Task {
	t.Skip = skip
	return t
}

// List is an ordered group of tasks with an execution mode.
type List struct {
	Mode  Mode
	Tasks []*Task
}

// NewList creates a sequential task list.
func NewList(tasks ...*Task) *List {
	return &List{Mode: Sequential, Tasks: tasks}
}

// NewConcurrentList creates a concurrent task list.
func NewConcurrentList(tasks ...*Task) *List {
	return &List{Mode: Concurrent, Tasks: tasks}
}

// Append adds tasks to the list and returns it for chaining.
func (l *List) Append(tasks ...*Task) *List {
	l.Tasks = append(l.Tasks, tasks...)
	return l
}
