package task

import (
	"fmt"
	"sync"
)

// Context is the per-run mutable state bag threaded through every task.
// It carries the resolved command configuration plus values computed by
// earlier tasks and consumed by later ones.
//
// Reading a key that no earlier task wrote is a programming error in the
// task graph, not a runtime condition; MustGet panics so the defect
// surfaces in tests rather than being silently tolerated.
type Context struct {
	Config any

	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates a run context holding the resolved configuration.
func NewContext(config any) *Context {
	return &Context{
		Config: config,
		values: make(map[string]any),
	}
}

// Set stores a value under key. Concurrent sibling tasks may write
// distinct keys; writes to the same key from siblings are a graph defect.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get returns the value for key and whether it was set.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// MustGet returns the value for key, panicking if no earlier task wrote it.
func (c *Context) MustGet(key string) any {
	v, ok := c.Get(key)
	if !ok {
		panic(fmt.Sprintf("task context: %q read before any task wrote it", key))
	}
	return v
}

// Keys returns the set of keys currently present, for diagnostics.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}
