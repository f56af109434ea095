package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiveops/hivectl/pkg/chart"
	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/task"
)

// valuesDir is where auxiliary chart values files are rendered.
func valuesDir() string {
	return filepath.Join(os.TempDir(), "hivectl-values")
}

// ClusterSetupSteps builds the `cluster setup` pipeline: create the
// namespace when absent and install the shared-services chart unless it
// already is.
func (e *Engine) ClusterSetupSteps(cfg *config.ClusterSetupConfig) *task.List {
	return task.NewList(
		task.New("Create namespace "+cfg.Namespace, func(ctx context.Context, _ *task.Context) (*task.List, error) {
			exists, err := e.Cluster.NamespaceExists(ctx, cfg.Namespace)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, nil
			}
			return nil, e.Cluster.CreateNamespace(ctx, cfg.Namespace)
		}),

		task.New("Install cluster chart", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			installed, err := e.Charts.IsInstalled(ctx, cfg.Namespace, cfg.Release)
			if err != nil {
				return nil, err
			}
			if installed {
				e.logger.Info().Str("release", cfg.Release).Msg("chart already installed")
				return nil, nil
			}
			values := chart.Values{}
			values.Set("cluster.namespace", cfg.Namespace)
			valuesFile, err := chart.WriteValuesFile(valuesDir(), "cluster-values.yaml", values)
			if err != nil {
				return nil, err
			}
			return nil, e.Charts.Install(ctx, cfg.Namespace, cfg.Release, cfg.ChartRef, cfg.ChartVersion, valuesFile)
		}),
	)
}

// ClusterResetSteps builds the `cluster reset` pipeline: uninstall the
// chart, delete leftover PVCs and secrets, then drop the namespace.
func (e *Engine) ClusterResetSteps(cfg *config.ClusterResetConfig) *task.List {
	return task.NewList(
		task.New("Check namespace "+cfg.Namespace, func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.CheckNamespace(ctx, cfg.Namespace)
		}).SkipWhen(func(*task.Context) bool { return cfg.Force }),

		task.New("Uninstall cluster chart", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			installed, err := e.Charts.IsInstalled(ctx, cfg.Namespace, cfg.Release)
			if err != nil {
				return nil, err
			}
			if !installed {
				return nil, nil
			}
			return nil, e.Charts.Uninstall(ctx, cfg.Namespace, cfg.Release)
		}),

		task.New("Delete persistent volume claims", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			pvcs, err := e.Cluster.ListPVCs(ctx, cfg.Namespace, "")
			if err != nil {
				return nil, err
			}
			for _, pvc := range pvcs {
				if err := e.Cluster.DeletePVC(ctx, cfg.Namespace, pvc); err != nil {
					return nil, fmt.Errorf("failed to delete pvc %s: %w", pvc, err)
				}
			}
			return nil, nil
		}),

		task.New("Delete namespace "+cfg.Namespace, func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.Cluster.DeleteNamespace(ctx, cfg.Namespace)
		}),
	)
}

// MirrorDeploySteps builds the `mirror-node deploy` pipeline.
func (e *Engine) MirrorDeploySteps(cfg *config.MirrorConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),

		task.New("Deploy mirror node chart", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			installed, err := e.Charts.IsInstalled(ctx, cfg.Namespace, cfg.Release)
			if err != nil {
				return nil, err
			}
			values := chart.Values{}
			values.Set("mirror.namespace", cfg.Namespace)
			valuesFile, err := chart.WriteValuesFile(valuesDir(), "mirror-values.yaml", values)
			if err != nil {
				return nil, err
			}
			if installed {
				return nil, e.Charts.Upgrade(ctx, cfg.Namespace, cfg.Release, cfg.ChartRef, cfg.ChartVersion, valuesFile)
			}
			return nil, e.Charts.Install(ctx, cfg.Namespace, cfg.Release, cfg.ChartRef, cfg.ChartVersion, valuesFile)
		}),

		task.New("Wait for mirror node pods", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.WaitPodsReady(ctx, cfg.Namespace, "app=mirror-node", 1)
		}),
	)
}

// MirrorDestroySteps builds the `mirror-node destroy` pipeline.
func (e *Engine) MirrorDestroySteps(cfg *config.MirrorConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		task.New("Uninstall mirror node chart", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.Charts.Uninstall(ctx, cfg.Namespace, cfg.Release)
		}),
	)
}

// RelayDeploySteps builds the `relay deploy` pipeline. The relay fronts a
// subset of nodes, so their aliases land in the chart values.
func (e *Engine) RelayDeploySteps(cfg *config.RelayConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		e.identifyNodesTask(cfg.Namespace, cfg.NodeAliases),

		task.New("Deploy relay chart", func(ctx context.Context, run *task.Context) (*task.List, error) {
			installed, err := e.Charts.IsInstalled(ctx, cfg.Namespace, cfg.Release)
			if err != nil {
				return nil, err
			}
			values := chart.Values{}
			for i, node := range nodesFrom(run) {
				prefix := fmt.Sprintf("relay.nodes.n%d", i)
				values.Set(prefix+".alias", node.Alias)
				values.Set(prefix+".accountId", node.AccountID.String())
			}
			valuesFile, err := chart.WriteValuesFile(valuesDir(), "relay-values.yaml", values)
			if err != nil {
				return nil, err
			}
			if installed {
				return nil, e.Charts.Upgrade(ctx, cfg.Namespace, cfg.Release, cfg.ChartRef, cfg.ChartVersion, valuesFile)
			}
			return nil, e.Charts.Install(ctx, cfg.Namespace, cfg.Release, cfg.ChartRef, cfg.ChartVersion, valuesFile)
		}),

		task.New("Wait for relay pods", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.WaitPodsReady(ctx, cfg.Namespace, "app=relay", 1)
		}),
	)
}

// RelayDestroySteps builds the `relay destroy` pipeline.
func (e *Engine) RelayDestroySteps(cfg *config.RelayConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),
		task.New("Uninstall relay chart", func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.Charts.Uninstall(ctx, cfg.Namespace, cfg.Release)
		}),
	)
}
