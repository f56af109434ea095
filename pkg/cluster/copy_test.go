package cluster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageFilteredExcludesSubtrees(t *testing.T) {
	root := t.TempDir()
	for _, path := range []string{
		"apps/app.jar",
		"data/keys/s-node1-key.pem",
		"data/config/config.txt",
		"data/apps/other.jar",
	} {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(path), 0644))
	}

	// Same filter the platform fetch uses: everything except data/keys
	// and data/config.
	filter := func(path string) bool {
		return !strings.HasPrefix(path, "data/keys") && !strings.HasPrefix(path, "data/config")
	}

	staged, cleanup, err := stageFiltered(root, filter)
	require.NoError(t, err)
	defer cleanup()

	assert.FileExists(t, filepath.Join(staged, "apps", "app.jar"))
	assert.FileExists(t, filepath.Join(staged, "data", "apps", "other.jar"))
	assert.NoFileExists(t, filepath.Join(staged, "data", "keys", "s-node1-key.pem"))
	assert.NoFileExists(t, filepath.Join(staged, "data", "config", "config.txt"))
}

func TestMatchesSelector(t *testing.T) {
	labels := map[string]string{
		"solo.hedera.com/type": "network-node",
		"app":                  "network-node1",
	}

	assert.True(t, matchesSelector(labels, "app=network-node1"))
	assert.True(t, matchesSelector(labels, "solo.hedera.com/type=network-node,app=network-node1"))
	assert.False(t, matchesSelector(labels, "app=network-node2"))
	assert.False(t, matchesSelector(labels, "missing=value"))
}
