package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiveops/hivectl/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketFlags = []byte("flags")
	bucketRuns  = []byte("runs")
)

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store under dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "hivectl.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketFlags, bucketRuns} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func flagKey(namespace, name string) []byte {
	return []byte(namespace + "/" + name)
}

// SaveFlag persists a remembered flag value for a namespace
func (s *BoltStore) SaveFlag(namespace, name, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFlags).Put(flagKey(namespace, name), []byte(value))
	})
}

// GetFlag returns a remembered flag value, reporting whether it was set
func (s *BoltStore) GetFlag(namespace, name string) (string, bool, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketFlags).Get(flagKey(namespace, name))
		if data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	return value, found, err
}

// DeleteFlag removes a remembered flag value
func (s *BoltStore) DeleteFlag(namespace, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFlags).Delete(flagKey(namespace, name))
	})
}

// SaveRun appends a command run record to local history
func (s *BoltStore) SaveRun(rec *types.RunRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.ID), data)
	})
}

// ListRuns returns all recorded command runs
func (s *BoltStore) ListRuns() ([]*types.RunRecord, error) {
	var runs []*types.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var rec types.RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt run record %s: %w", k, err)
			}
			runs = append(runs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}
