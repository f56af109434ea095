// Package lifecycle holds the node-lifecycle state machine: it derives
// node identities, resolves endpoints, and builds the task pipelines for
// every operation that stands up, mutates, or tears down the network.
//
// The engine only sequences calls against the cluster, chart, and ledger
// collaborators. Ordering, concurrency, readiness gating, and the
// cross-invocation continuation records are decided here; the
// collaborators' own behavior is not.
package lifecycle
