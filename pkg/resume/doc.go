// Package resume persists a partially-completed multi-step operation to a
// JSON file so a later CLI invocation can pick it up where the earlier one
// stopped.
package resume
