package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/hiveops/hivectl/pkg/types"
)

// recalcTransferAmount is the minimal transfer that nudges the network
// into recomputing stake weights.
const recalcTransferAmount = 1

// StakeNode points a node account's stake at its own node id.
func (e *Engine) StakeNode(ctx context.Context, node types.NodeIdentity) error {
	if err := e.Ledger.UpdateAccountStake(ctx, node.AccountID, node.NodeID); err != nil {
		return fmt.Errorf("failed to stake node %s: %w", node.Alias, err)
	}
	return nil
}

// RecalculateStakes triggers a network-wide stake-weight recalculation:
// wait out the settle delay, then issue one minimal transfer per existing
// node account, sequentially because they share one ledger client.
func (e *Engine) RecalculateStakes(ctx context.Context, operator types.AccountID, nodes []types.NodeIdentity) error {
	if e.Timing.StakeSettle > 0 {
		e.logger.Info().
			Dur("settle", e.Timing.StakeSettle).
			Msg("waiting before stake recalculation")
		select {
		case <-time.After(e.Timing.StakeSettle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, node := range nodes {
		if err := e.Ledger.Transfer(ctx, operator, node.AccountID, recalcTransferAmount); err != nil {
			return fmt.Errorf("stake recalculation transfer to %s failed: %w", node.Alias, err)
		}
	}
	return nil
}

// CheckMinimumStakes verifies every existing node account holds at least
// minStake before a membership change proceeds.
func (e *Engine) CheckMinimumStakes(ctx context.Context, nodes []types.NodeIdentity, minStake int64) error {
	if minStake <= 0 {
		return nil
	}
	for _, node := range nodes {
		balance, err := e.Ledger.AccountBalance(ctx, node.AccountID)
		if err != nil {
			return fmt.Errorf("failed to read balance of %s: %w", node.Alias, err)
		}
		if balance < uint64(minStake) {
			return fmt.Errorf("node %s account %s holds %d, below the required minimum stake %d",
				node.Alias, node.AccountID, balance, minStake)
		}
	}
	return nil
}
