package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/cluster"
	"github.com/hiveops/hivectl/pkg/types"
)

func TestDiscoverNodes(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	// A pod outside the network selector is invisible.
	env.cluster.AddPod("solo", cluster.Pod{
		Name:   "minio-0",
		Phase:  "Running",
		Labels: map[string]string{"app": "minio"},
	})

	nodes, err := env.engine.DiscoverNodes(context.Background(), "solo")
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "node0", nodes[0].Alias)
	assert.Equal(t, int64(0), nodes[0].NodeID)
	assert.Equal(t, types.AccountID{Num: 3}, nodes[0].AccountID)
	assert.Equal(t, "network-node0-0", nodes[0].PodName)
	assert.Equal(t, "node1", nodes[1].Alias)
}

func TestDiscoverNodesRejectsUnlabeledPod(t *testing.T) {
	env := newTestEnv(t)
	env.cluster.Namespaces["solo"] = true
	env.cluster.AddPod("solo", cluster.Pod{
		Name:   "network-node0-0",
		Phase:  "Running",
		Labels: map[string]string{"app": "network-node"},
	})

	_, err := env.engine.DiscoverNodes(context.Background(), "solo")
	assert.Error(t, err)
}

func TestFilterNodes(t *testing.T) {
	nodes := []types.NodeIdentity{
		{Alias: "node0"}, {Alias: "node1"}, {Alias: "node2"},
	}

	selected, err := filterNodes(nodes, []string{"node2", "node0"})
	require.NoError(t, err)
	assert.Equal(t, []string{selected[0].Alias, selected[1].Alias}, []string{"node2", "node0"})

	_, err = filterNodes(nodes, []string{"node9"})
	assert.Error(t, err)
}
