package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/ledger"
	"github.com/hiveops/hivectl/pkg/resume"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

func deleteTestConfig(t *testing.T) *config.NodeDeleteConfig {
	t.Helper()
	return &config.NodeDeleteConfig{
		Namespace: "solo",
		NodeAlias: "node1",
		OutputDir: t.TempDir(),
		Ledger: config.Ledger{
			OperatorID:      types.AccountID{Num: 2},
			OperatorKeyPath: "/keys/operator.pem",
		},
		ChartRef: "charts/network",
	}
}

func TestDeletePrepareRecordsRemainingNodes(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
		"node2": "0.0.5",
	})
	env.ledger.Files[DefaultUpgradeFileID] = []byte("upgrade payload")
	cfg := deleteTestConfig(t)

	require.NoError(t, task.NewRunner().Run(context.Background(), env.engine.DeletePrepareSteps(cfg), task.NewContext(cfg)))

	var saved resume.DeleteContext
	require.NoError(t, resume.Load(cfg.OutputDir, resume.DeleteContextFile, &saved))

	assert.Equal(t, "node1", saved.Node.Alias)
	assert.Equal(t, int64(1), saved.Node.NodeID)
	require.Len(t, saved.RemainingNodes, 2)
	assert.Equal(t, "node0", saved.RemainingNodes[0].Alias)
	assert.Equal(t, "node2", saved.RemainingNodes[1].Alias)
	assert.Len(t, saved.UpgradeFileHash, 48)
}

func TestDeletePrepareUnknownAlias(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{"node0": "0.0.3"})
	cfg := deleteTestConfig(t)
	cfg.NodeAlias = "node9"

	err := task.NewRunner().Run(context.Background(), env.engine.DeletePrepareSteps(cfg), task.NewContext(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node9")
}

func TestDeleteSubmitTransactionSequence(t *testing.T) {
	env := newTestEnv(t)
	env.seedNetwork("solo", map[string]string{
		"node0": "0.0.3",
		"node1": "0.0.4",
	})
	env.ledger.Files[DefaultUpgradeFileID] = []byte("upgrade payload")
	cfg := deleteTestConfig(t)

	run := task.NewContext(cfg)
	runner := task.NewRunner()
	require.NoError(t, runner.Run(context.Background(), env.engine.DeletePrepareSteps(cfg), run))
	require.NoError(t, runner.Run(context.Background(), env.engine.DeleteSubmitSteps(cfg), run))

	assert.Equal(t, []string{"node-delete", "prepare-upgrade", "freeze-upgrade"}, env.ledger.SubmissionKinds())

	// The delete transaction names the node by numeric id.
	var deleted ledger.Submission
	for _, s := range env.ledger.Submissions() {
		if s.Kind == "node-delete" {
			deleted = s
		}
	}
	assert.Equal(t, int64(1), deleted.Detail)
}
