package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/resume"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

func addTestConfig(t *testing.T) *config.NodeAddConfig {
	t.Helper()

	keysDir := t.TempDir()
	cacheDir := t.TempDir()

	// Admin key material referenced by path.
	adminFiles, err := keys.GenerateTLSKeyPair(keysDir, "admin")
	require.NoError(t, err)

	cfg := &config.NodeAddConfig{
		Namespace:    "solo",
		KeysDir:      keysDir,
		CacheDir:     cacheDir,
		ReleaseTag:   "v0.1.0",
		OutputDir:    t.TempDir(),
		AdminKeyPath: adminFiles.TLSKey,
		Ledger: config.Ledger{
			OperatorID:      types.AccountID{Num: 2},
			OperatorKeyPath: filepath.Join(keysDir, "operator.pem"),
		},
		EndpointType: types.EndpointTypeFQDN,
		ChartRef:     "charts/network",
		PVCsEnabled:  true,
	}

	// Staging content the upgrade artifact is built from.
	require.NoError(t, os.MkdirAll(cfg.StagingDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StagingDir(), "config.txt"), []byte("settings"), 0644))

	return cfg
}

func TestAddPrepareDerivesNewNode(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	cfg := addTestConfig(t)

	run := task.NewContext(cfg)
	err := task.NewRunner().Run(context.Background(), env.engine.AddPrepareSteps(cfg), run)
	require.NoError(t, err)

	var saved resume.AddContext
	require.NoError(t, resume.Load(cfg.OutputDir, resume.AddContextFile, &saved))

	assert.Equal(t, "node2", saved.NewNode.Alias)
	assert.Equal(t, "0.0.5", saved.NewNode.AccountID.String())
	assert.Equal(t, int64(2), saved.NewNode.NodeID)

	// FQDN synthesis: exactly two gossip endpoints on the gossip port.
	require.Len(t, saved.NewNode.GossipEndpoints, 2)
	assert.Equal(t, 50111, saved.NewNode.GossipEndpoints[0].Port)
	assert.Equal(t, 50111, saved.NewNode.GossipEndpoints[1].Port)
	require.Len(t, saved.NewNode.GrpcEndpoints, 1)
	assert.Equal(t, 50211, saved.NewNode.GrpcEndpoints[0].Port)

	assert.NotEmpty(t, saved.GossipCACert)
	assert.Len(t, saved.TLSCertHash, 48, "TLS certificate hash is SHA-384")
	assert.NotEmpty(t, saved.AdminKey)
	assert.Len(t, saved.UpgradeFileHash, 48)
	assert.Len(t, saved.ExistingNodes, 2)

	// Generated key files for the new alias landed in the keys directory.
	files := keys.Files(cfg.KeysDir, "node2")
	assert.True(t, files.GossipKeysExist())
	assert.True(t, files.TLSKeysExist())

	// Prepare submits no ledger transactions.
	assert.Empty(t, env.ledger.SubmissionKinds())
}

func TestAddPrepareRequiresPVCs(t *testing.T) {
	env := newTestEnv(t)
	cfg := addTestConfig(t)
	cfg.PVCsEnabled = false

	err := task.NewRunner().Run(context.Background(), env.engine.AddPrepareSteps(cfg), task.NewContext(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent volume claims")
}

func TestAddPrepareChecksMinimumStakes(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	env.ledger.Balances["0.0.3"] = 1000
	env.ledger.Balances["0.0.4"] = 10

	cfg := addTestConfig(t)
	cfg.MinStake = 500

	err := task.NewRunner().Run(context.Background(), env.engine.AddPrepareSteps(cfg), task.NewContext(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum stake")
}

func TestAddSubmitTransactionSequence(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	cfg := addTestConfig(t)

	// Combined flow: prepare leaves the context in memory, so the load
	// task in the submit phase must skip.
	run := task.NewContext(cfg)
	runner := task.NewRunner()
	require.NoError(t, runner.Run(context.Background(), env.engine.AddPrepareSteps(cfg), run))
	require.NoError(t, runner.Run(context.Background(), env.engine.AddSubmitSteps(cfg), run))

	assert.Equal(t, []string{"node-create", "prepare-upgrade", "freeze-upgrade"}, env.ledger.SubmissionKinds())

	// The freeze start time was written back into the continuation record.
	var saved resume.AddContext
	require.NoError(t, resume.Load(cfg.OutputDir, resume.AddContextFile, &saved))
	assert.NotEmpty(t, saved.FreezeStartTime)
}

func TestAddSubmitLoadsContinuationAcrossInvocations(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	cfg := addTestConfig(t)

	// Phase one in its own invocation.
	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.AddPrepareSteps(cfg), task.NewContext(cfg)))

	// Phase two starts from a fresh context and must reload from disk.
	run := task.NewContext(cfg)
	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.AddSubmitSteps(cfg), run))

	addCtx := run.MustGet(keyAddContext).(*resume.AddContext)
	assert.Equal(t, "node2", addCtx.NewNode.Alias)
	assert.Equal(t, []string{"node-create", "prepare-upgrade", "freeze-upgrade"}, env.ledger.SubmissionKinds())
}
