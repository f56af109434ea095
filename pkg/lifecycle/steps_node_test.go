package lifecycle

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

func TestStopStepsExecOnEveryTargetedNode(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
		"node2": "0.0.5",
	})

	cfg := &config.NodeStopConfig{NodeCommon: config.NodeCommon{
		Namespace:   "solo",
		NodeAliases: []string{"node0", "node2"},
		CacheDir:    t.TempDir(),
	}}

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.StopSteps(cfg), task.NewContext(cfg)))

	stopped := make(map[string]bool)
	for _, call := range env.cluster.ExecCalls {
		require.Equal(t, []string{nodeCtl, "stop"}, call.Command)
		stopped[call.Pod] = true
	}
	assert.Equal(t, map[string]bool{
		"network-node0-0": true,
		"network-node2-0": true,
	}, stopped, "only the targeted aliases are stopped")
}

func TestStopStepsMissingNamespace(t *testing.T) {
	env := newTestEnv(t)

	cfg := &config.NodeStopConfig{NodeCommon: config.NodeCommon{
		Namespace:   "absent",
		NodeAliases: []string{"node0"},
		CacheDir:    t.TempDir(),
	}}

	err := task.NewRunner().Run(context.Background(), env.engine.StopSteps(cfg), task.NewContext(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Empty(t, env.cluster.ExecCalls, "nothing executes when the namespace is missing")
}

func TestSetupStepsCopiesLocalBuild(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{"node0": "0.0.3"})

	cfg := &config.NodeSetupConfig{
		NodeCommon: config.NodeCommon{
			Namespace:   "solo",
			NodeAliases: []string{"node0"},
			CacheDir:    t.TempDir(),
		},
		LocalBuildPath: "/builds/current",
	}

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.SetupSteps(cfg), task.NewContext(cfg)))

	require.Len(t, env.cluster.CopyCalls, 1)
	copied := env.cluster.CopyCalls[0]
	assert.True(t, copied.ToPod)
	assert.Equal(t, "/builds/current", copied.Local)
	assert.Equal(t, remoteAppDir, copied.Remote)

	// Setup runs after the copy.
	require.NotEmpty(t, env.cluster.ExecCalls)
	assert.Equal(t, []string{nodeCtl, "setup"}, env.cluster.ExecCalls[len(env.cluster.ExecCalls)-1].Command)
}

func TestSetupStepsDownloadsReleaseWithoutLocalBuild(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{"node0": "0.0.3"})

	cfg := &config.NodeSetupConfig{
		NodeCommon: config.NodeCommon{
			Namespace:   "solo",
			NodeAliases: []string{"node0"},
			CacheDir:    t.TempDir(),
			ReleaseTag:  "v0.1.0",
		},
	}

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.SetupSteps(cfg), task.NewContext(cfg)))

	assert.Empty(t, env.cluster.CopyCalls)
	require.NotEmpty(t, env.cluster.ExecCalls)
	assert.Equal(t, []string{installScript, "download", "v0.1.0"}, env.cluster.ExecCalls[0].Command)
}

func TestExcludeNodeData(t *testing.T) {
	assert.False(t, excludeNodeData("data/keys"))
	assert.False(t, excludeNodeData("data/keys/private.pem"))
	assert.False(t, excludeNodeData("data/config"))
	assert.False(t, excludeNodeData("data/config/settings.txt"))
	assert.True(t, excludeNodeData("data/apps/app.jar"))
	assert.True(t, excludeNodeData("lib/platform.jar"))

	// Sibling entries sharing the directory name as a prefix are wiped.
	assert.True(t, excludeNodeData("data/keysfoo"))
	assert.True(t, excludeNodeData("data/config.bak"))
}

// activeStatusServer serves an ACTIVE platform status for every path, so
// both the metrics scrape and the proxy check succeed against it.
func activeStatusServer(t *testing.T) int {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "%s %d\n", platform.StatusMetricPrefix, int(platform.StatusActive))
	}))
	t.Cleanup(server.Close)

	_, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

func startTestConfig(namespace string, aliases ...string) *config.NodeStartConfig {
	return &config.NodeStartConfig{
		NodeCommon: config.NodeCommon{
			Namespace:   namespace,
			NodeAliases: aliases,
		},
		Ledger: config.Ledger{
			OperatorID:      types.AccountID{Num: 2},
			OperatorKeyPath: "/keys/operator.pem",
		},
	}
}

func TestStartStakesEachNodeWhenEnabled(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	port := activeStatusServer(t)
	env.cluster.ForwardPort = func(int) int { return port }

	cfg := startTestConfig("solo", "node0", "node1")
	cfg.Stake = true

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.StartSteps(cfg), task.NewContext(cfg)))

	assert.Equal(t, []string{"account-stake-update", "account-stake-update"}, env.ledger.SubmissionKinds())
	assert.Zero(t, env.cluster.OpenForwards, "status forwards are closed after the waits")
}

func TestStartSkipsStakingByDefault(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{"node0": "0.0.3"})
	port := activeStatusServer(t)
	env.cluster.ForwardPort = func(int) int { return port }

	cfg := startTestConfig("solo", "node0")

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.StartSteps(cfg), task.NewContext(cfg)))

	assert.Empty(t, env.ledger.SubmissionKinds())
}

func TestKeysStepsGeneratesOnlyRequestedKinds(t *testing.T) {
	env := newTestEnv(t)
	keysDir := t.TempDir()

	cfg := &config.NodeKeysConfig{
		Namespace:       "solo",
		NodeAliases:     []string{"node0", "node1"},
		KeysDir:         keysDir,
		GenerateTLSKeys: true,
	}

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.KeysSteps(cfg), task.NewContext(cfg)))

	for _, alias := range cfg.NodeAliases {
		files := keys.Files(keysDir, alias)
		assert.True(t, files.TLSKeysExist(), "TLS keys for %s", alias)
		assert.False(t, files.GossipKeysExist(), "gossip generation was not requested for %s", alias)
	}

	// The chosen flags are checkpointed for the next invocation.
	gossip, ok, err := env.flags.Bool("solo", config.FlagGenerateGossipKeys)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, gossip)

	tls, ok, err := env.flags.Bool("solo", config.FlagGenerateTLSKeys)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, tls)
}
