// Package lease provides namespace-scoped mutual exclusion for mutating
// commands, so two invocations targeting the same namespace never run
// their mutating phases concurrently.
package lease
