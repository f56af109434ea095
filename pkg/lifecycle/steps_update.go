package lifecycle

import (
	"context"
	"time"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/ledger"
	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/resume"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

func updateContextFrom(run *task.Context) *resume.UpdateContext {
	return run.MustGet(keyUpdateContext).(*resume.UpdateContext)
}

func (e *Engine) loadUpdateContextTask(cfg *config.NodeUpdateConfig) *task.Task {
	return task.New("Load update continuation record", func(ctx context.Context, run *task.Context) (*task.List, error) {
		var upCtx resume.UpdateContext
		if err := resume.Load(cfg.OutputDir, resume.UpdateContextFile, &upCtx); err != nil {
			return nil, err
		}
		run.Set(keyUpdateContext, &upCtx)
		return nil, nil
	}).SkipWhen(func(run *task.Context) bool {
		_, ok := run.Get(keyUpdateContext)
		return ok
	})
}

func (e *Engine) saveUpdateContextTask(cfg *config.NodeUpdateConfig) *task.Task {
	return task.New("Save update continuation record", func(ctx context.Context, run *task.Context) (*task.List, error) {
		return nil, resume.Save(cfg.OutputDir, resume.UpdateContextFile, updateContextFrom(run))
	})
}

// UpdatePrepareSteps builds the first phase of `node update`: re-derive
// the target node's endpoints, load rotated key material if any, and
// write the continuation record.
func (e *Engine) UpdatePrepareSteps(cfg *config.NodeUpdateConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, nil),

		task.New("Resolve updated node identity", func(ctx context.Context, run *task.Context) (*task.List, error) {
			node, err := findNode(nodesFrom(run), cfg.NodeAlias)
			if err != nil {
				return nil, err
			}
			node.GossipEndpoints, err = ResolveEndpoints(GossipEndpoints, cfg.GossipEndpoints, cfg.EndpointType, cfg.Namespace, node.Alias)
			if err != nil {
				return nil, err
			}
			node.GrpcEndpoints, err = ResolveEndpoints(GrpcEndpoints, cfg.GrpcEndpoints, cfg.EndpointType, cfg.Namespace, node.Alias)
			if err != nil {
				return nil, err
			}
			if cfg.NewAccountID != "" {
				if node.AccountID, err = types.ParseAccountID(cfg.NewAccountID); err != nil {
					return nil, err
				}
			}
			run.Set(keyUpdateContext, &resume.UpdateContext{
				Namespace:     cfg.Namespace,
				Node:          node,
				ExistingNodes: nodesFrom(run),
				NewAccountID:  cfg.NewAccountID,
				UpgradeFileID: DefaultUpgradeFileID,
			})
			return nil, nil
		}),

		task.New("Load rotated key material", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			if cfg.GossipCertPath != "" {
				der, err := keys.LoadCertDER(cfg.GossipCertPath)
				if err != nil {
					return nil, err
				}
				upCtx.GossipCACert = der
			}
			if cfg.TLSCertPath != "" {
				der, err := keys.LoadCertDER(cfg.TLSCertPath)
				if err != nil {
					return nil, err
				}
				upCtx.TLSCertHash = keys.CertHash(der)
			}
			if cfg.NewAdminKeyPath != "" {
				adminKey, err := keys.LoadPublicKeyDER(cfg.NewAdminKeyPath)
				if err != nil {
					return nil, err
				}
				upCtx.NewAdminKey = adminKey
			}
			return nil, nil
		}).SkipWhen(func(*task.Context) bool {
			return cfg.GossipCertPath == "" && cfg.TLSCertPath == "" && cfg.NewAdminKeyPath == ""
		}),

		task.New("Build upgrade artifact", func(ctx context.Context, run *task.Context) (*task.List, error) {
			_, hash, err := buildUpgradeArtifact(cfg.StagingDir())
			if err != nil {
				return nil, err
			}
			updateContextFrom(run).UpgradeFileHash = hash
			return nil, nil
		}),

		e.saveUpdateContextTask(cfg),
	)
}

// UpdateSubmitSteps builds the second phase of `node update`: the node
// update transaction (old admin key always signs; rotated material signs
// additionally behind the ledger boundary) followed by prepare and freeze.
func (e *Engine) UpdateSubmitSteps(cfg *config.NodeUpdateConfig) *task.List {
	return task.NewList(
		e.loadUpdateContextTask(cfg),

		task.New("Submit node update transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			return nil, e.Ledger.UpdateNode(ctx, ledger.NodeUpdateParams{
				NodeID:           upCtx.Node.NodeID,
				AccountID:        upCtx.Node.AccountID,
				Description:      upCtx.Node.Alias,
				GossipEndpoints:  upCtx.Node.GossipEndpoints,
				ServiceEndpoints: upCtx.Node.GrpcEndpoints,
				GossipCACert:     upCtx.GossipCACert,
				TLSCertHash:      upCtx.TLSCertHash,
				NewAdminKey:      upCtx.NewAdminKey,
			})
		}),

		task.New("Submit prepare upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			return nil, e.Ledger.PrepareUpgrade(ctx, upCtx.UpgradeFileID, upCtx.UpgradeFileHash)
		}),

		task.New("Submit freeze upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			start := time.Now().Add(defaultFreezeDelay)
			upCtx.FreezeStartTime = start.UTC().Format(time.RFC3339)
			return nil, e.Ledger.FreezeUpgrade(ctx, start, upCtx.UpgradeFileID, upCtx.UpgradeFileHash)
		}),

		e.saveUpdateContextTask(cfg),
	)
}

// UpdateExecuteSteps builds the third phase of `node update`: redeploy,
// recreate pods when the account moved, and bring the network back.
func (e *Engine) UpdateExecuteSteps(cfg *config.NodeUpdateConfig) *task.List {
	return task.NewList(
		e.loadUpdateContextTask(cfg),

		task.New("Wait for nodes to freeze", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			group := task.NewConcurrentList()
			for _, node := range upCtx.ExistingNodes {
				group.Append(task.New("Wait for "+node.Alias+" to freeze", func(ctx context.Context, _ *task.Context) (*task.List, error) {
					return nil, e.waitNodeStatus(ctx, cfg.Namespace, node, platform.StatusFreezeComplete)
				}))
			}
			return group, nil
		}),

		task.New("Update network deployment", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			nodes := make([]types.NodeIdentity, len(upCtx.ExistingNodes))
			copy(nodes, upCtx.ExistingNodes)
			for i := range nodes {
				if nodes[i].Alias == upCtx.Node.Alias {
					nodes[i] = upCtx.Node
				}
			}
			valuesFile, err := writeNetworkValues(cfg.StagingDir(), nodes)
			if err != nil {
				return nil, err
			}
			return nil, e.Charts.Upgrade(ctx, cfg.Namespace, NetworkRelease, cfg.ChartRef, cfg.ChartVersion, valuesFile)
		}),

		task.New("Recreate network pods", func(ctx context.Context, run *task.Context) (*task.List, error) {
			upCtx := updateContextFrom(run)
			for _, node := range upCtx.ExistingNodes {
				if err := e.Cluster.DeletePod(ctx, cfg.Namespace, node.PodName); err != nil {
					return nil, err
				}
			}
			return nil, e.WaitPodsRunning(ctx, cfg.Namespace, networkNodeSelector, len(upCtx.ExistingNodes))
		}).SkipWhen(func(run *task.Context) bool {
			// Pods only need recreating when the account mapping changed.
			upCtx, ok := run.Get(keyUpdateContext)
			return ok && upCtx.(*resume.UpdateContext).NewAccountID == ""
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
			upCtx := updateContextFrom(run)
			return nil, e.RecalculateStakes(ctx, cfg.OperatorID, upCtx.ExistingNodes)
		}),
	)
}

// UpdateSteps builds the combined `node update` pipeline.
func (e *Engine) UpdateSteps(cfg *config.NodeUpdateConfig) *task.List {
	list := e.UpdatePrepareSteps(cfg)
	list.Append(e.UpdateSubmitSteps(cfg).Tasks...)
	list.Append(e.UpdateExecuteSteps(cfg).Tasks...)
	return list
}
