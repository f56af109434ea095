package storage

import "github.com/hiveops/hivectl/pkg/types"

// Store persists small amounts of local state across CLI invocations:
// remembered flag values and a short history of command runs.
type Store interface {
	// Flag operations
	SaveFlag(namespace, name, value string) error
	GetFlag(namespace, name string) (string, bool, error)
	DeleteFlag(namespace, name string) error

	// Run history operations
	SaveRun(rec *types.RunRecord) error
	ListRuns() ([]*types.RunRecord, error)

	Close() error
}
