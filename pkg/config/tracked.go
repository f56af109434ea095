package config

import (
	"reflect"
	"sort"
	"sync"
)

// Tracked wraps a resolved config and records which of its fields were
// actually read, so fields supplied but never consumed can be reported as
// developer diagnostics. Accessors mark fields explicitly; there is no
// runtime interception.
type Tracked[T any] struct {
	value *T

	mu   sync.Mutex
	read map[string]bool
}

// NewTracked wraps a config for read tracking.
func NewTracked[T any](value *T) *Tracked[T] {
	return &Tracked[T]{
		value: value,
		read:  make(map[string]bool),
	}
}

// Use marks the named fields as read and returns the config.
func (t *Tracked[T]) Use(fields ...string) *T {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range fields {
		t.read[f] = true
	}
	return t.value
}

// UnusedFields returns the declared field names never passed to Use,
// sorted for stable output. Embedded structs are traversed; their own
// fields are reported flat, matching how Use names them.
func (t *Tracked[T]) UnusedFields() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var unused []string
	for _, name := range declaredFields(reflect.TypeFor[T]()) {
		if !t.read[name] {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	return unused
}

func declaredFields(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			names = append(names, declaredFields(field.Type)...)
			continue
		}
		if field.IsExported() {
			names = append(names, field.Name)
		}
	}
	return names
}
