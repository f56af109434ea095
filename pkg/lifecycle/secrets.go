package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiveops/hivectl/pkg/cluster"
)

type clusterSecret struct {
	name  string
	files []string
}

// createKeySecret bundles local key files into a cluster secret keyed by
// file basename, replacing any existing secret of the same name.
func (e *Engine) createKeySecret(ctx context.Context, namespace string, secret *clusterSecret) error {
	data := make(map[string][]byte, len(secret.files))
	for _, path := range secret.files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read key file for secret %s: %w", secret.name, err)
		}
		data[filepath.Base(path)] = content
	}

	// Replace, not merge: stale key material must never linger.
	if existing, err := e.Cluster.GetSecret(ctx, namespace, secret.name); err == nil && existing != nil {
		if err := e.Cluster.DeleteSecret(ctx, namespace, secret.name); err != nil {
			return fmt.Errorf("failed to replace secret %s: %w", secret.name, err)
		}
	}

	err := e.Cluster.CreateSecret(ctx, namespace, &cluster.Secret{Name: secret.name, Data: data})
	if err != nil {
		return fmt.Errorf("failed to create secret %s: %w", secret.name, err)
	}
	return nil
}
