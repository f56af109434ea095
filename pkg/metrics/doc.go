// Package metrics exposes Prometheus collectors for task execution, polling,
// lease activity, and ledger transaction counts. A debug listener can be
// enabled with the root --metrics-addr flag; long-running operations such as
// node add-execute benefit from watching poll attempt counters live.
package metrics
