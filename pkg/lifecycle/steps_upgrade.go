package lifecycle

import (
	"context"
	"time"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/keys"
	"github.com/hiveops/hivectl/pkg/task"
)

// PrepareUpgradeSteps builds the standalone `node prepare-upgrade`
// pipeline: hash the upgrade file already on the ledger and stage it.
func (e *Engine) PrepareUpgradeSteps(cfg *config.UpgradeConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),

		task.New("Submit prepare upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			contents, err := e.Ledger.FileContents(ctx, cfg.UpgradeFileID)
			if err != nil {
				return nil, err
			}
			return nil, e.Ledger.PrepareUpgrade(ctx, cfg.UpgradeFileID, keys.CertHash(contents))
		}),
	)
}

// FreezeUpgradeSteps builds the standalone `node freeze-upgrade` pipeline.
func (e *Engine) FreezeUpgradeSteps(cfg *config.UpgradeConfig) *task.List {
	return task.NewList(
		e.checkNamespaceTask(cfg.Namespace),

		task.New("Submit freeze upgrade transaction", func(ctx context.Context, run *task.Context) (*task.List, error) {
			contents, err := e.Ledger.FileContents(ctx, cfg.UpgradeFileID)
			if err != nil {
				return nil, err
			}
			delay := time.Duration(cfg.FreezeDelaySeconds) * time.Second
			if delay == 0 {
				delay = defaultFreezeDelay
			}
			start := time.Now().Add(delay)
			return nil, e.Ledger.FreezeUpgrade(ctx, start, cfg.UpgradeFileID, keys.CertHash(contents))
		}),
	)
}
