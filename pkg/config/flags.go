package config

import (
	"fmt"
	"strconv"

	"github.com/hiveops/hivectl/pkg/storage"
)

// FlagStore persists chosen flag values across invocations, namespaced so
// different deployments never see each other's checkpoints. Persistence is
// an explicit call at well-defined checkpoints, never implicit on read.
type FlagStore struct {
	store storage.Store
}

// NewFlagStore wraps a storage backend.
func NewFlagStore(store storage.Store) *FlagStore {
	return &FlagStore{store: store}
}

// Bool returns the persisted value for a flag and whether one exists.
func (f *FlagStore) Bool(namespace, name string) (bool, bool, error) {
	raw, ok, err := f.store.GetFlag(namespace, name)
	if err != nil || !ok {
		return false, false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("corrupt flag %s/%s: %w", namespace, name, err)
	}
	return value, true, nil
}

// SetBool persists a flag value.
func (f *FlagStore) SetBool(namespace, name string, value bool) error {
	return f.store.SaveFlag(namespace, name, strconv.FormatBool(value))
}

// Clear removes a persisted flag so the next invocation falls back to its
// default.
func (f *FlagStore) Clear(namespace, name string) error {
	return f.store.DeleteFlag(namespace, name)
}

// Flag names persisted by the keys and add flows.
const (
	FlagGenerateGossipKeys = "generate-gossip-keys"
	FlagGenerateTLSKeys    = "generate-tls-keys"
)
