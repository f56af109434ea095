package lifecycle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hiveops/hivectl/pkg/keys"
)

// DefaultUpgradeFileID is the system file upgrade artifacts are staged in.
const DefaultUpgradeFileID = "0.0.150"

// buildUpgradeArtifact zips the staging directory into an upgrade artifact
// and returns the artifact path and its SHA-384 hash, which prepare/freeze
// transactions carry.
func buildUpgradeArtifact(stagingDir string) (string, []byte, error) {
	artifactPath := filepath.Join(stagingDir, "upgrade.zip")

	out, err := os.Create(artifactPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create upgrade artifact: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(stagingDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == artifactPath {
			return nil
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return "", nil, fmt.Errorf("failed to build upgrade artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to finalize upgrade artifact: %w", err)
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upgrade artifact: %w", err)
	}
	return artifactPath, keys.CertHash(data), nil
}
