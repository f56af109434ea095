package lease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/metrics"
	"github.com/hiveops/hivectl/pkg/task"
)

// acquireRetry is how long one lock attempt waits before checking the
// caller's context and trying again. Acquisition itself has no overall
// timeout; only the caller's context stops it.
const acquireRetry = time.Second

// Holder describes who owns a lease, recorded inside the lock file for
// post-mortem inspection.
type Holder struct {
	ID         string `json:"id"`
	PID        int    `json:"pid"`
	AcquiredAt string `json:"acquired_at"`
}

// Manager hands out namespace-scoped leases backed by lock files under the
// data directory. Mutual exclusion comes from the file lock held by the
// open database, so it holds across processes on the same host.
type Manager struct {
	dataDir string
}

// NewManager creates a lease manager rooted at dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{dataDir: dataDir}
}

// New creates an unacquired lease for a namespace. Release is safe to call
// on it even if acquisition never ran or never completed.
func (m *Manager) New(namespace string) *Lease {
	return &Lease{
		path:      filepath.Join(m.dataDir, "leases", namespace+".lock"),
		namespace: namespace,
		holderID:  uuid.NewString(),
		logger:    log.WithComponent("lease"),
	}
}

// Lease is a mutual-exclusion token for one namespace.
type Lease struct {
	path      string
	namespace string
	holderID  string
	logger    zerolog.Logger

	mu       sync.Mutex
	db       *bolt.DB
	released bool
}

var bucketHolder = []byte("holder")

// Acquire blocks until exclusive ownership of the namespace lock is
// obtained or ctx is cancelled.
func (l *Lease) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return nil
	}
	if l.released {
		return fmt.Errorf("lease for namespace %s already released", l.namespace)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create lease directory: %w", err)
	}

	waiting := false
	for {
		db, err := bolt.Open(l.path, 0600, &bolt.Options{Timeout: acquireRetry})
		if err == nil {
			if err := l.recordHolder(db); err != nil {
				db.Close()
				return err
			}
			l.db = db
			metrics.LeaseAcquisitionsTotal.Inc()
			l.logger.Info().
				Str("namespace", l.namespace).
				Str("holder", l.holderID).
				Msg("lease acquired")
			return nil
		}
		if !errors.Is(err, bolt.ErrTimeout) {
			return fmt.Errorf("failed to acquire lease for namespace %s: %w", l.namespace, err)
		}

		if !waiting {
			waiting = true
			l.logger.Info().Str("namespace", l.namespace).Msg("lease held elsewhere, waiting")
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for lease on namespace %s: %w", l.namespace, ctx.Err())
		default:
		}
	}
}

func (l *Lease) recordHolder(db *bolt.DB) error {
	holder := Holder{
		ID:         l.holderID,
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(holder)
	if err != nil {
		return fmt.Errorf("failed to serialize lease holder: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketHolder)
		if err != nil {
			return err
		}
		return b.Put([]byte("current"), data)
	})
	if err != nil {
		return fmt.Errorf("failed to record lease holder: %w", err)
	}
	return nil
}

// AcquireTask wraps Acquire as the first mutating step of a command
// pipeline.
func (l *Lease) AcquireTask() *task.Task {
	title := fmt.Sprintf("Acquire lease for namespace %s", l.namespace)
	return task.New(title, func(ctx context.Context, _ *task.Context) (*task.List, error) {
		return nil, l.Acquire(ctx)
	})
}

// Release gives up the lease. It is idempotent and a no-op when
// acquisition never completed.
func (l *Lease) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}
	l.released = true

	if l.db == nil {
		return nil
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketHolder); b != nil {
			return b.Delete([]byte("current"))
		}
		return nil
	})
	closeErr := l.db.Close()
	l.db = nil

	metrics.LeaseReleasesTotal.Inc()
	l.logger.Info().Str("namespace", l.namespace).Msg("lease released")

	if err != nil {
		return fmt.Errorf("failed to clear lease holder: %w", err)
	}
	return closeErr
}

// Held reports whether this lease currently owns the lock.
func (l *Lease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db != nil
}
