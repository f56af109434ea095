package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hiveops/hivectl/pkg/types"
)

// TransferStateSnapshot copies the newest saved-state directory from a
// source node to a target node so the joiner does not replay the whole
// event stream. The snapshot is zipped inside the source pod, pulled to a
// local scratch directory, pushed into the target pod, and unpacked there.
func (e *Engine) TransferStateSnapshot(ctx context.Context, namespace string, source, target types.NodeIdentity) error {
	newest, err := e.Cluster.ExecInPod(ctx, namespace, source.PodName, nodeContainer,
		[]string{"bash", "-c", fmt.Sprintf("ls -t %s | head -1", remoteSavedDir)})
	if err != nil {
		return fmt.Errorf("failed to find newest saved state on %s: %w", source.Alias, err)
	}
	newest = strings.TrimSpace(newest)
	if newest == "" {
		return fmt.Errorf("node %s has no saved state to transfer", source.Alias)
	}

	remoteZip := remoteSavedDir + "/snapshot.zip"
	_, err = e.Cluster.ExecInPod(ctx, namespace, source.PodName, nodeContainer,
		[]string{"bash", "-c", fmt.Sprintf("cd %s && zip -rq %s %s", remoteSavedDir, remoteZip, newest)})
	if err != nil {
		return fmt.Errorf("failed to archive saved state on %s: %w", source.Alias, err)
	}

	scratch, err := os.MkdirTemp("", "hivectl-snapshot-")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	localZip := filepath.Join(scratch, "snapshot.zip")
	if err := e.Cluster.CopyFromPod(ctx, namespace, source.PodName, nodeContainer, remoteZip, localZip); err != nil {
		return fmt.Errorf("failed to pull snapshot from %s: %w", source.Alias, err)
	}
	if err := e.Cluster.CopyToPod(ctx, namespace, target.PodName, nodeContainer, localZip, remoteZip, nil); err != nil {
		return fmt.Errorf("failed to push snapshot to %s: %w", target.Alias, err)
	}

	_, err = e.Cluster.ExecInPod(ctx, namespace, target.PodName, nodeContainer,
		[]string{"bash", "-c", fmt.Sprintf("cd %s && unzip -oq %s && rm -f %s", remoteSavedDir, remoteZip, remoteZip)})
	if err != nil {
		return fmt.Errorf("failed to unpack snapshot on %s: %w", target.Alias, err)
	}

	e.logger.Info().
		Str("source", source.Alias).
		Str("target", target.Alias).
		Str("state", newest).
		Msg("state snapshot transferred")
	return nil
}
