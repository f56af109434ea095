package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hiveops/hivectl/pkg/cluster"
	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

func nodesFrom(run *task.Context) []types.NodeIdentity {
	return run.MustGet(keyNodes).([]types.NodeIdentity)
}

// DebugForwardFrom returns the debug port-forward a start pipeline opened,
// if any. The command boundary closes it when the run ends.
func DebugForwardFrom(run *task.Context) (cluster.PortForward, bool) {
	v, ok := run.Get(keyDebugForward)
	if !ok {
		return nil, false
	}
	return v.(cluster.PortForward), true
}

// checkNamespaceTask verifies the namespace before anything mutates.
func (e *Engine) checkNamespaceTask(namespace string) *task.Task {
	return task.New("Check namespace "+namespace, func(ctx context.Context, _ *task.Context) (*task.List, error) {
		return nil, e.CheckNamespace(ctx, namespace)
	})
}

// identifyNodesTask discovers the network nodes and stores the ones the
// command targets under keyNodes.
func (e *Engine) identifyNodesTask(namespace string, aliases []string) *task.Task {
	return task.New("Identify network nodes", func(ctx context.Context, run *task.Context) (*task.List, error) {
		nodes, err := e.DiscoverNodes(ctx, namespace)
		if err != nil {
			return nil, err
		}
		if len(aliases) > 0 {
			if nodes, err = filterNodes(nodes, aliases); err != nil {
				return nil, err
			}
		}
		if len(nodes) == 0 {
			return nil, fmt.Errorf("no network nodes found in namespace %s", namespace)
		}
		run.Set(keyNodes, nodes)
		return nil, nil
	})
}

// excludeNodeData filters the platform software copy so node-local key and
// config material inside the pod is never overwritten.
func excludeNodeData(path string) bool {
	return !underDir(path, "data/keys") && !underDir(path, "data/config")
}

// underDir matches the directory itself and entries below it, never
// siblings sharing the name as a prefix.
func underDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+"/")
}

// fetchSoftwareTask distributes the platform software to every targeted
// node concurrently: a local build is copied in, otherwise the release is
// downloaded inside the container.
func (e *Engine) fetchSoftwareTask(namespace, localBuildPath, releaseTag string) *task.Task {
	return task.New("Fetch platform software", func(ctx context.Context, run *task.Context) (*task.List, error) {
		group := task.NewConcurrentList()
		for _, node := range nodesFrom(run) {
			group.Append(task.New("Fetch software for "+node.Alias, func(ctx context.Context, _ *task.Context) (*task.List, error) {
				if localBuildPath != "" {
					err := e.Cluster.CopyToPod(ctx, namespace, node.PodName, nodeContainer,
						localBuildPath, remoteAppDir, excludeNodeData)
					if err != nil {
						return nil, fmt.Errorf("failed to copy build into %s: %w", node.Alias, err)
					}
					return nil, nil
				}
				_, err := e.Cluster.ExecInPod(ctx, namespace, node.PodName, nodeContainer,
					[]string{installScript, "download", releaseTag})
				if err != nil {
					return nil, fmt.Errorf("failed to download release on %s: %w", node.Alias, err)
				}
				return nil, nil
			}))
		}
		return group, nil
	})
}

// nodeCtlTask runs a node-ctl verb on every targeted node concurrently.
func (e *Engine) nodeCtlTask(title, namespace, verb string) *task.Task {
	return task.New(title, func(ctx context.Context, run *task.Context) (*task.List, error) {
		group := task.NewConcurrentList()
		for _, node := range nodesFrom(run) {
			group.Append(task.New(fmt.Sprintf("node-ctl %s on %s", verb, node.Alias), func(ctx context.Context, _ *task.Context) (*task.List, error) {
				_, err := e.Cluster.ExecInPod(ctx, namespace, node.PodName, nodeContainer, []string{nodeCtl, verb})
				if err != nil {
					return nil, fmt.Errorf("node-ctl %s failed on %s: %w", verb, node.Alias, err)
				}
				return nil, nil
			}))
		}
		return group, nil
	})
}

// waitActiveTask waits for every targeted node to report the target
// platform status, concurrently.
func (e *Engine) waitActiveTask(namespace string, target platform.Status) *task.Task {
	title := fmt.Sprintf("Wait for nodes to reach %s", target)
	return task.New(title, func(ctx context.Context, run *task.Context) (*task.List, error) {
		group := task.NewConcurrentList()
		for _, node := range nodesFrom(run) {
			group.Append(task.New(fmt.Sprintf("Wait for %s to reach %s", node.Alias, target), func(ctx context.Context, _ *task.Context) (*task.List, error) {
				return nil, e.waitNodeStatus(ctx, namespace, node, target)
			}))
		}
		return group, nil
	})
}

// waitProxiesTask waits for every targeted node's proxy, concurrently.
func (e *Engine) waitProxiesTask(namespace string) *task.Task {
	return task.New("Check node proxies", func(ctx context.Context, run *task.Context) (*task.List, error) {
		group := task.NewConcurrentList()
		for _, node := range nodesFrom(run) {
			group.Append(task.New("Check proxy for "+node.Alias, func(ctx context.Context, _ *task.Context) (*task.List, error) {
				return nil, e.waitNodeProxy(ctx, namespace, node)
			}))
		}
		return group, nil
	})
}

// SetupSteps builds the `node setup` pipeline.
func (e *Engine) SetupSteps(cfg *config.NodeSetupConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, cfg.NodeAliases),
		e.fetchSoftwareTask(cfg.Namespace, cfg.LocalBuildPath, cfg.ReleaseTag),
		e.nodeCtlTask("Run node setup", cfg.Namespace, "setup"),
	)
}

// StartSteps builds the `node start` pipeline: restart services, wait for
// activeness on every alias, check proxies unless a non-default app is
// running, then stake each node against itself sequentially (one shared
// ledger client, so staking never runs concurrently).
func (e *Engine) StartSteps(cfg *config.NodeStartConfig) *task.List {
	list := task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, cfg.NodeAliases),
		e.nodeCtlTask("Restart node services", cfg.Namespace, "restart"),
	)

	if cfg.DebugNodeAlias != "" {
		list.Append(task.New("Open debug port-forward for "+cfg.DebugNodeAlias, func(ctx context.Context, run *task.Context) (*task.List, error) {
			node, err := findNode(nodesFrom(run), cfg.DebugNodeAlias)
			if err != nil {
				return nil, err
			}
			forward, err := e.Cluster.PortForwardPod(ctx, cfg.Namespace, node.PodName, DebugPort, DebugPort)
			if err != nil {
				return nil, fmt.Errorf("failed to open debug port-forward: %w", err)
			}
			run.Set(keyDebugForward, forward)
			return nil, nil
		}))
	}

	list.Append(e.waitActiveTask(cfg.Namespace, platform.StatusActive))

	list.Append(e.waitProxiesTask(cfg.Namespace).SkipWhen(func(*task.Context) bool {
		// A non-default application has no proxy in front of it.
		return cfg.App != ""
	}))

	list.Append(task.New("Stake nodes", func(ctx context.Context, run *task.Context) (*task.List, error) {
		for _, node := range nodesFrom(run) {
			if err := e.StakeNode(ctx, node); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}).SkipWhen(func(*task.Context) bool { return !cfg.Stake }))

	return list
}

// StopSteps builds the `node stop` pipeline.
func (e *Engine) StopSteps(cfg *config.NodeStopConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, cfg.NodeAliases),
		e.nodeCtlTask("Stop node services", cfg.Namespace, "stop"),
	)
}

// KeysSteps builds the `node keys` pipeline. Generation is conditional per
// key kind; the chosen flags are checkpointed so repeated invocations do
// not regenerate unless explicitly asked.
func (e *Engine) KeysSteps(cfg *config.NodeKeysConfig) *task.List {
	gossip := task.New("Generate gossip key pairs", func(ctx context.Context, _ *task.Context) (*task.List, error) {
		for _, alias := range cfg.NodeAliases {
			if _, err := keys.GenerateGossipKeyPair(cfg.KeysDir, alias); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}).SkipWhen(func(*task.Context) bool { return !cfg.GenerateGossipKeys })

	tls := task.New("Generate TLS key pairs", func(ctx context.Context, _ *task.Context) (*task.List, error) {
		for _, alias := range cfg.NodeAliases {
			if _, err := keys.GenerateTLSKeyPair(cfg.KeysDir, alias); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}).SkipWhen(func(*task.Context) bool { return !cfg.GenerateTLSKeys })

	persist := task.New("Persist key generation flags", func(ctx context.Context, _ *task.Context) (*task.List, error) {
		if err := e.Flags.SetBool(cfg.Namespace, config.FlagGenerateGossipKeys, cfg.GenerateGossipKeys); err != nil {
			return nil, err
		}
		return nil, e.Flags.SetBool(cfg.Namespace, config.FlagGenerateTLSKeys, cfg.GenerateTLSKeys)
	})

	return task.NewList(gossip, tls, persist)
}

// RefreshSteps builds the `node refresh` pipeline: stop, wipe node state,
// re-stage software, start, and wait for activeness.
func (e *Engine) RefreshSteps(cfg *config.NodeRefreshConfig) *task.List {
	wipe := task.New("Wipe node state", func(ctx context.Context, run *task.Context) (*task.List, error) {
		group := task.NewConcurrentList()
		for _, node := range nodesFrom(run) {
			group.Append(task.New("Wipe state on "+node.Alias, func(ctx context.Context, _ *task.Context) (*task.List, error) {
				_, err := e.Cluster.ExecInPod(ctx, cfg.Namespace, node.PodName, nodeContainer,
					[]string{"bash", "-c", fmt.Sprintf("rm -rf %s/*", remoteSavedDir)})
				if err != nil {
					return nil, fmt.Errorf("failed to wipe state on %s: %w", node.Alias, err)
				}
				return nil, nil
			}))
		}
		return group, nil
	})

	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, cfg.NodeAliases),
		e.nodeCtlTask("Stop node services", cfg.Namespace, "stop"),
		wipe,
		e.fetchSoftwareTask(cfg.Namespace, cfg.LocalBuildPath, cfg.ReleaseTag),
		e.nodeCtlTask("Run node setup", cfg.Namespace, "setup"),
		e.nodeCtlTask("Restart node services", cfg.Namespace, "restart"),
		e.waitActiveTask(cfg.Namespace, platform.StatusActive),
	)
}

// LogsSteps builds the `node logs` pipeline: pull each node's log
// directory into OutputDir/<alias>/, concurrently.
func (e *Engine) LogsSteps(cfg *config.NodeLogsConfig) *task.List {
	download := task.New("Download node logs", func(ctx context.Context, run *task.Context) (*task.List, error) {
		group := task.NewConcurrentList()
		for _, node := range nodesFrom(run) {
			group.Append(task.New("Download logs from "+node.Alias, func(ctx context.Context, _ *task.Context) (*task.List, error) {
				local := filepath.Join(cfg.OutputDir, node.Alias)
				err := e.Cluster.CopyFromPod(ctx, cfg.Namespace, node.PodName, nodeContainer, remoteLogsDir, local)
				if err != nil {
					return nil, fmt.Errorf("failed to download logs from %s: %w", node.Alias, err)
				}
				return nil, nil
			}))
		}
		return group, nil
	})

	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, cfg.NodeAliases),
		download,
	)
}

// DownloadGeneratedFilesSteps pulls the config and key files an existing
// node generated into the local staging directory.
func (e *Engine) DownloadGeneratedFilesSteps(namespace, stagingDir string) *task.List {
	return task.NewList(
		e.checkNamespaceTask(namespace),
		e.identifyNodesTask(namespace, nil),
		task.New("Download generated files", func(ctx context.Context, run *task.Context) (*task.List, error) {
			source := nodesFrom(run)[0]
			err := e.Cluster.CopyFromPod(ctx, namespace, source.PodName, nodeContainer,
				remoteConfigDir, filepath.Join(stagingDir, "config"))
			if err != nil {
				return nil, fmt.Errorf("failed to download generated config from %s: %w", source.Alias, err)
			}
			err = e.Cluster.CopyFromPod(ctx, namespace, source.PodName, nodeContainer,
				remoteKeysDir, filepath.Join(stagingDir, "keys"))
			if err != nil {
				return nil, fmt.Errorf("failed to download generated keys from %s: %w", source.Alias, err)
			}
			return nil, nil
		}),
	)
}
