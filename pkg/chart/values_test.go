package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValuesSetNested(t *testing.T) {
	values := Values{}
	values.Set("hedera.nodes.node1.accountId", "0.0.3")
	values.Set("hedera.nodes.node1.enabled", true)
	values.Set("defaults.root.resources.requests.cpu", "2")

	nodes := values["hedera"].(Values)["nodes"].(Values)
	node1 := nodes["node1"].(Values)
	assert.Equal(t, "0.0.3", node1["accountId"])
	assert.Equal(t, true, node1["enabled"])
}

func TestWriteValuesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "values")
	values := Values{}
	values.Set("hedera.nodes.node1.accountId", "0.0.3")

	path, err := WriteValuesFile(dir, "network.yaml", values)
	require.NoError(t, err)
	assert.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	hedera := decoded["hedera"].(map[string]any)
	nodes := hedera["nodes"].(map[string]any)
	node1 := nodes["node1"].(map[string]any)
	assert.Equal(t, "0.0.3", node1["accountId"])
}
