package lifecycle

import (
	"context"
	"time"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/resume"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

func deleteContextFrom(run *task.Context) *resume.DeleteContext {
	return run.MustGet(keyDeleteContext).(*resume.DeleteContext)
}

func (e *Engine) loadDeleteContextTask(cfg *config.NodeDeleteConfig) *task.Task {
	return task.New("Load delete continuation record", func(ctx context.Context, run *task.Context) (*task.List, error) {
		var delCtx resume.DeleteContext
		if err := resume.Load(cfg.OutputDir, resume.DeleteContextFile, &delCtx); err != nil {
			return nil, err
		}
		run.Set(keyDeleteContext, &delCtx)
		return nil, nil
	}).SkipWhen(func(run *task.Context) bool {
		_, ok := run.Get(keyDeleteContext)
		return ok
	})
}

func (e *Engine) saveDeleteContextTask(cfg *config.NodeDeleteConfig) *task.Task {
	return task.New("Save delete continuation record", func(ctx context.Context, run *task.Context) (*task.List, error) {
		return nil, resume.Save(cfg.OutputDir, resume.DeleteContextFile, deleteContextFrom(run))
	})
}

// DeletePrepareSteps builds the first phase of `node delete`: record which
// node leaves and which remain.
func (e *Engine) DeletePrepareSteps(cfg *config.NodeDeleteConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, nil),

		task.New("Resolve node to delete", func(ctx context.Context, run *task.Context) (*task.List, error) {
			nodes := nodesFrom(run)
			node, err := findNode(nodes, cfg.NodeAlias)
			if err != nil {
				return nil, err
			}
			remaining := make([]types.NodeIdentity, 0, len(nodes)-1)
			for _, n := range nodes {
				if n.Alias != node.Alias {
					remaining = append(remaining, n)
				}
			}
			run.Set(keyDeleteContext, &resume.DeleteContext{
				Namespace:      cfg.Namespace,
				Node:           node,
				RemainingNodes: remaining,
				UpgradeFileID:  DefaultUpgradeFileID,
			})
			return nil, nil
		}),

		task.New("Read upgrade file hash", func(ctx context.Context, run *task.Context) (*task.List, error) {
			// A delete carries no new artifact; the freeze references the
			// upgrade file already on the ledger.
			contents, err := e.Ledger.FileContents(ctx, DefaultUpgradeFileID)
			if err != nil {
				return nil, err
			}
			deleteContextFrom(run).UpgradeFileHash = keys.CertHash(contents)
			return nil, nil
		}),

		e.saveDeleteContextTask(cfg),
	)
}

// DeleteSubmitSteps builds the second phase of `node delete`: the node
// delete transaction by numeric id, then prepare and freeze.
func (e *Engine) DeleteSubmitSteps(cfg *config.NodeDeleteConfig) *task.List {
	return task.NewList(
		e.loadDeleteContextTask(cfg),

		task.New("Submit node delete transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			return nil, e.Ledger.DeleteNode(ctx, deleteContextFrom(run).Node.NodeID)
		}),

		task.New("Submit prepare upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			delCtx := deleteContextFrom(run)
			return nil, e.Ledger.PrepareUpgrade(ctx, delCtx.UpgradeFileID, delCtx.UpgradeFileHash)
		}),

		task.New("Submit freeze upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			delCtx := deleteContextFrom(run)
			start := time.Now().Add(defaultFreezeDelay)
			delCtx.FreezeStartTime = start.UTC().Format(time.RFC3339)
			return nil, e.Ledger.FreezeUpgrade(ctx, start, delCtx.UpgradeFileID, delCtx.UpgradeFileHash)
		}),

		e.saveDeleteContextTask(cfg),
	)
}

// DeleteExecuteSteps builds the third phase of `node delete`: redeploy
// without the departed member, recreate pods, and bring the remainder
// back to ACTIVE.
func (e *Engine) DeleteExecuteSteps(cfg *config.NodeDeleteConfig) *task.List {
	return task.NewList(
		e.loadDeleteContextTask(cfg),

		task.New("Wait for nodes to freeze", func(ctx context.Context, run *task.Context) (*task.List, error) {
			delCtx := deleteContextFrom(run)
			group := task.NewConcurrentList()
			for _, node := range delCtx.RemainingNodes {
				group.Append(task.New("Wait for "+node.Alias+" to freeze", func(ctx context.Context, _ *task.Context) (*task.List, error) {
					return nil, e.waitNodeStatus(ctx, cfg.Namespace, node, platform.StatusFreezeComplete)
				}))
			}
			return group, nil
		}),

		task.New("Update network deployment", func(ctx context.Context, run *task.Context) (*task.List, error) {
			delCtx := deleteContextFrom(run)
			valuesFile, err := writeNetworkValues(cfg.OutputDir, delCtx.RemainingNodes)
			if err != nil {
				return nil, err
			}
			return nil, e.Charts.Upgrade(ctx, cfg.Namespace, NetworkRelease, cfg.ChartRef, cfg.ChartVersion, valuesFile)
		}),

		task.New("Recreate network pods", func(ctx context.Context, run *task.Context) (*task.List, error) {
			delCtx := deleteContextFrom(run)
			if err := e.Cluster.DeletePod(ctx, cfg.Namespace, delCtx.Node.PodName); err != nil {
				// The departed pod may already be gone after the redeploy.
				e.logger.Debug().Err(err).Str("pod", delCtx.Node.PodName).Msg("departed pod already absent")
			}
			for _, node := range delCtx.RemainingNodes {
				if err := e.Cluster.DeletePod(ctx, cfg.Namespace, node.PodName); err != nil {
					return nil, err
				}
			}
			return nil, e.WaitPodsRunning(ctx, cfg.Namespace, networkNodeSelector, len(delCtx.RemainingNodes))
		}),

		task.New("Refresh node identities", func(ctx context.Context, run *task.Context) (*task.List, error) {
			nodes, err := e.DiscoverNodes(ctx, cfg.Namespace)
			if err != nil {
				return nil, err
			}
			run.Set(keyNodes, nodes)
			return nil, nil
		}),

		e.nodeCtlTask("Restart node services", cfg.Namespace, "restart"),
		e.waitActiveTask(cfg.Namespace, platform.StatusActive),
		e.waitProxiesTask(cfg.Namespace),

		task.New("Recalculate stake weights", func(ctx context.Context, run *task.Context) (*task.List, error) {
			delCtx := deleteContextFrom(run)
			return nil, e.RecalculateStakes(ctx, cfg.OperatorID, delCtx.RemainingNodes)
		}),
	)
}

// DeleteSteps builds the combined `node delete` pipeline.
func (e *Engine) DeleteSteps(cfg *config.NodeDeleteConfig) *task.List {
	list := e.DeletePrepareSteps(cfg)
	list.Append(e.DeleteSubmitSteps(cfg).Tasks...)
	list.Append(e.DeleteExecuteSteps(cfg).Tasks...)
	return list
}
