package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/ledger"
	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/resume"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

// defaultFreezeDelay is how far in the future a membership-change freeze
// is scheduled.
const defaultFreezeDelay = 60 * time.Second

func addContextFrom(run *task.Context) *resume.AddContext {
	return run.MustGet(keyAddContext).(*resume.AddContext)
}

// loadAddContextTask reloads the continuation record at the start of a
// later phase. Skipped when the combined command already holds the context
// in memory.
func (e *Engine) loadAddContextTask(cfg *config.NodeAddConfig) *task.Task {
	return task.New("Load add continuation record", func(ctx context.Context, run *task.Context) (*task.List, error) {
		var addCtx resume.AddContext
		if err := resume.Load(cfg.OutputDir, resume.AddContextFile, &addCtx); err != nil {
			return nil, err
		}
		run.Set(keyAddContext, &addCtx)
		return nil, nil
	}).SkipWhen(func(run *task.Context) bool {
		_, ok := run.Get(keyAddContext)
		return ok
	})
}

func (e *Engine) saveAddContextTask(cfg *config.NodeAddConfig) *task.Task {
	return task.New("Save add continuation record", func(ctx context.Context, run *task.Context) (*task.List, error) {
		return nil, resume.Save(cfg.OutputDir, resume.AddContextFile, addContextFrom(run))
	})
}

// AddPrepareSteps builds the first phase of `node add`: derive the new
// node's identity and key material, resolve its endpoints, build the
// upgrade artifact, and write the continuation record the later phases
// run from.
func (e *Engine) AddPrepareSteps(cfg *config.NodeAddConfig) *task.List {
	return task.NewList(
		task.New("Check persistent volume claims are enabled", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			if !cfg.PVCsEnabled {
				return nil, fmt.Errorf("adding a node requires persistent volume claims to be enabled")
			}
			return nil, nil
		}),
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, nil),

		task.New("Check existing node stakes", func(ctx context.Context, run *task.Context) (*task.List, error) {
			return nil, e.CheckMinimumStakes(ctx, nodesFrom(run), cfg.MinStake)
		}).SkipWhen(func(*task.Context) bool { return cfg.MinStake <= 0 }),

		task.New("Derive new node identity", func(ctx context.Context, run *task.Context) (*task.List, error) {
			newNode, err := DeriveNewNode(nodesFrom(run))
			if err != nil {
				return nil, err
			}
			newNode.GossipEndpoints, err = ResolveEndpoints(GossipEndpoints, cfg.GossipEndpoints, cfg.EndpointType, cfg.Namespace, newNode.Alias)
			if err != nil {
				return nil, err
			}
			newNode.GrpcEndpoints, err = ResolveEndpoints(GrpcEndpoints, cfg.GrpcEndpoints, cfg.EndpointType, cfg.Namespace, newNode.Alias)
			if err != nil {
				return nil, err
			}
			run.Set(keyNewNode, newNode)
			e.logger.Info().
				Str("alias", newNode.Alias).
				Str("account", newNode.AccountID.String()).
				Int64("node_id", newNode.NodeID).
				Msg("new node identity derived")
			return nil, nil
		}),

		task.New("Generate new node keys", func(ctx context.Context, run *task.Context) (*task.List, error) {
			newNode := run.MustGet(keyNewNode).(types.NodeIdentity)
			files := keys.Files(cfg.KeysDir, newNode.Alias)
			if cfg.GenerateGossipKeys || !files.GossipKeysExist() {
				if _, err := keys.GenerateGossipKeyPair(cfg.KeysDir, newNode.Alias); err != nil {
					return nil, err
				}
			}
			if cfg.GenerateTLSKeys || !files.TLSKeysExist() {
				if _, err := keys.GenerateTLSKeyPair(cfg.KeysDir, newNode.Alias); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}),

		task.New("Load certificates and compute hashes", func(ctx context.Context, run *task.Context) (*task.List, error) {
			newNode := run.MustGet(keyNewNode).(types.NodeIdentity)
			files := keys.Files(cfg.KeysDir, newNode.Alias)

			gossipDER, err := keys.LoadCertDER(files.GossipCert)
			if err != nil {
				return nil, err
			}
			tlsDER, err := keys.LoadCertDER(files.TLSCert)
			if err != nil {
				return nil, err
			}
			adminKey, err := keys.LoadPublicKeyDER(cfg.AdminKeyPath)
			if err != nil {
				return nil, err
			}

			run.Set(keyAddContext, &resume.AddContext{
				Namespace:     cfg.Namespace,
				NewNode:       newNode,
				ExistingNodes: nodesFrom(run),
				GossipCACert:  gossipDER,
				TLSCertHash:   keys.CertHash(tlsDER),
				AdminKey:      adminKey,
				UpgradeFileID: DefaultUpgradeFileID,
			})
			return nil, nil
		}),

		task.New("Build upgrade artifact", func(ctx context.Context, run *task.Context) (*task.List, error) {
			_, hash, err := buildUpgradeArtifact(cfg.StagingDir())
			if err != nil {
				return nil, err
			}
			addContextFrom(run).UpgradeFileHash = hash
			return nil, nil
		}),

		e.saveAddContextTask(cfg),
	)
}

// AddSubmitSteps builds the second phase of `node add`: the ledger
// transactions. All three share one ledger client, so they run strictly
// in sequence.
func (e *Engine) AddSubmitSteps(cfg *config.NodeAddConfig) *task.List {
	return task.NewList(
		e.loadAddContextTask(cfg),

		task.New("Submit node create transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			return nil, e.Ledger.CreateNode(ctx, ledger.NodeCreateParams{
				AccountID:        addCtx.NewNode.AccountID,
				Description:      addCtx.NewNode.Alias,
				GossipEndpoints:  addCtx.NewNode.GossipEndpoints,
				ServiceEndpoints: addCtx.NewNode.GrpcEndpoints,
				GossipCACert:     addCtx.GossipCACert,
				TLSCertHash:      addCtx.TLSCertHash,
				AdminKey:         addCtx.AdminKey,
			})
		}),

		task.New("Submit prepare upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			return nil, e.Ledger.PrepareUpgrade(ctx, addCtx.UpgradeFileID, addCtx.UpgradeFileHash)
		}),

		task.New("Submit freeze upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			start := time.Now().Add(defaultFreezeDelay)
			addCtx.FreezeStartTime = start.UTC().Format(time.RFC3339)
			return nil, e.Ledger.FreezeUpgrade(ctx, start, addCtx.UpgradeFileID, addCtx.UpgradeFileHash)
		}),

		e.saveAddContextTask(cfg),
	)
}

// AddExecuteSteps builds the third phase of `node add`: redeploy the
// network with the new member, seed it with a state snapshot, bring
// everything back to ACTIVE, and stake the joiner.
func (e *Engine) AddExecuteSteps(cfg *config.NodeAddConfig) *task.List {
	return task.NewList(
		e.loadAddContextTask(cfg),

		task.New("Download generated files from existing node", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			source := addCtx.ExistingNodes[0]
			return nil, e.Cluster.CopyFromPod(ctx, cfg.Namespace, source.PodName, nodeContainer,
				remoteConfigDir, cfg.StagingDir()+"/config")
		}),

		task.New("Stage new node keys", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			files := keys.Files(cfg.KeysDir, addCtx.NewNode.Alias)
			secret := &clusterSecret{
				name: "network-node-keys-" + addCtx.NewNode.Alias,
				files: []string{
					files.GossipKey, files.GossipCert, files.TLSKey, files.TLSCert,
				},
			}
			return nil, e.createKeySecret(ctx, cfg.Namespace, secret)
		}),

		task.New("Wait for existing nodes to freeze", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			group := task.NewConcurrentList()
			for _, node := range addCtx.ExistingNodes {
				group.Append(task.New(fmt.Sprintf("Wait for %s to reach %s", node.Alias, platform.StatusFreezeComplete), func(ctx context.Context, _ *task.Context) (*task.List, error) {
					return nil, e.waitNodeStatus(ctx, cfg.Namespace, node, platform.StatusFreezeComplete)
				}))
			}
			return group, nil
		}),

		task.New("Update network deployment", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			all := append(append([]types.NodeIdentity{}, addCtx.ExistingNodes...), addCtx.NewNode)
			valuesFile, err := writeNetworkValues(cfg.StagingDir(), all)
			if err != nil {
				return nil, err
			}
			return nil, e.Charts.Upgrade(ctx, cfg.Namespace, NetworkRelease, cfg.ChartRef, cfg.ChartVersion, valuesFile)
		}),

		task.New("Recreate network pods", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			// Existing pods must restart to pick up the new config map.
			for _, node := range addCtx.ExistingNodes {
				if err := e.Cluster.DeletePod(ctx, cfg.Namespace, node.PodName); err != nil {
					return nil, err
				}
			}
			expected := len(addCtx.ExistingNodes) + 1
			return nil, e.WaitPodsRunning(ctx, cfg.Namespace, networkNodeSelector, expected)
		}),

		task.New("Refresh node identities", func(ctx context.Context, run *task.Context) (*task.List, error) {
			// Pods were recreated; the mapping must be rebuilt, not reused.
			nodes, err := e.DiscoverNodes(ctx, cfg.Namespace)
			if err != nil {
				return nil, err
			}
			run.Set(keyNodes, nodes)
			return nil, nil
		}),

		e.fetchSoftwareTask(cfg.Namespace, "", cfg.ReleaseTag),

		task.New("Transfer state snapshot to new node", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			return nil, e.TransferStateSnapshot(ctx, cfg.Namespace, addCtx.ExistingNodes[0], addCtx.NewNode)
		}),

		e.nodeCtlTask("Run node setup", cfg.Namespace, "setup"),
		e.nodeCtlTask("Restart node services", cfg.Namespace, "restart"),
		e.waitActiveTask(cfg.Namespace, platform.StatusActive),
		e.waitProxiesTask(cfg.Namespace),

		task.New("Stake new node", func(ctx context.Context, run *task.Context) (*task.List, error) {
			return nil, e.StakeNode(ctx, addContextFrom(run).NewNode)
		}),

		task.New("Recalculate stake weights", func(ctx context.Context, run *task.Context) (*task.List, error) {
			addCtx := addContextFrom(run)
			return nil, e.RecalculateStakes(ctx, cfg.OperatorID, addCtx.ExistingNodes)
		}),

		task.New("Reset key generation flags", func(ctx context.Context, run *task.Context) (*task.List, error) {
			if err := e.Flags.Clear(cfg.Namespace, config.FlagGenerateGossipKeys); err != nil {
				return nil, err
			}
			return nil, e.Flags.Clear(cfg.Namespace, config.FlagGenerateTLSKeys)
		}),
	)
}

// AddSteps builds the combined `node add` pipeline: all three phases in
// one invocation, sharing the in-memory context so the load tasks skip.
func (e *Engine) AddSteps(cfg *config.NodeAddConfig) *task.List {
	list := e.AddPrepareSteps(cfg)
	list.Append(e.AddSubmitSteps(cfg).Tasks...)
	list.Append(e.AddExecuteSteps(cfg).Tasks...)
	return list
}
