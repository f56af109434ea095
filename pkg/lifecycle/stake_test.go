package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/types"
)

func TestRecalculateStakesIssuesOneTransferPerNode(t *testing.T) {
	env := newTestEnv(t)
	operator := types.AccountID{Num: 2}
	nodes := []types.NodeIdentity{
		{Alias: "node0", AccountID: types.AccountID{Num: 3}},
		{Alias: "node1", AccountID: types.AccountID{Num: 4}},
		{Alias: "node2", AccountID: types.AccountID{Num: 5}},
	}

	require.NoError(t, env.engine.RecalculateStakes(context.Background(), operator, nodes))

	assert.Equal(t, []string{"transfer", "transfer", "transfer"}, env.ledger.SubmissionKinds())
}

func TestCheckMinimumStakes(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.Balances["0.0.3"] = 1000
	env.ledger.Balances["0.0.4"] = 10

	nodes := []types.NodeIdentity{
		{Alias: "node0", AccountID: types.AccountID{Num: 3}},
		{Alias: "node1", AccountID: types.AccountID{Num: 4}},
	}

	assert.NoError(t, env.engine.CheckMinimumStakes(context.Background(), nodes, 0),
		"zero threshold disables the check")
	assert.NoError(t, env.engine.CheckMinimumStakes(context.Background(), nodes[:1], 500))

	err := env.engine.CheckMinimumStakes(context.Background(), nodes, 500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node1")
}

func TestStakeNode(t *testing.T) {
	env := newTestEnv(t)
	node := types.NodeIdentity{Alias: "node1", NodeID: 1, AccountID: types.AccountID{Num: 4}}

	require.NoError(t, env.engine.StakeNode(context.Background(), node))
	assert.Equal(t, []string{"account-stake-update"}, env.ledger.SubmissionKinds())
}
