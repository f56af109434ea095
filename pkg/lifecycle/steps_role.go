package lifecycle

import (
	"context"
	"fmt"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/task"
)

// RoleRegisterSteps builds the `role register` pipeline: create a cluster
// role from apiGroup:resource:verbs rules. Cluster-scoped, so there is no
// namespace check.
func (e *Engine) RoleRegisterSteps(cfg *config.RoleRegisterConfig) *task.List {
	return task.NewList(
		task.New("Register cluster role "+cfg.Name, func(ctx context.Context, _ *task.Context) (*task.List, error) {
			if err := e.Cluster.CreateClusterRole(ctx, cfg.Name, cfg.Rules); err != nil {
				return nil, fmt.Errorf("failed to register cluster role %s: %w", cfg.Name, err)
			}
			return nil, nil
		}),
	)
}

// RoleLoginSteps builds the `role login` pipeline: bind a service account
// to a registered role. The binding name is derived from the role name.
func (e *Engine) RoleLoginSteps(cfg *config.RoleLoginConfig) *task.List {
	return task.NewList(
		task.New("Bind service account to role "+cfg.Name, func(ctx context.Context, _ *task.Context) (*task.List, error) {
			binding := cfg.Name + "-binding"
			if err := e.Cluster.CreateClusterRoleBinding(ctx, binding, cfg.Name, cfg.ServiceAccount); err != nil {
				return nil, fmt.Errorf("failed to bind %s to role %s: %w", cfg.ServiceAccount, cfg.Name, err)
			}
			return nil, nil
		}),
	)
}

// RoleDeleteSteps builds the `role delete` pipeline.
func (e *Engine) RoleDeleteSteps(cfg *config.RoleDeleteConfig) *task.List {
	return task.NewList(
		task.New("Delete cluster role "+cfg.Name, func(ctx context.Context, _ *task.Context) (*task.List, error) {
			return nil, e.Cluster.DeleteClusterRole(ctx, cfg.Name)
		}),
	)
}
