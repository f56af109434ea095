package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/types"
)

// SchemaVersion guards continuation files against phase/binary skew. A
// mismatch on load is fatal; silently ignoring missing fields would let a
// later phase run against state it cannot trust.
const SchemaVersion = 1

// Continuation filenames, one fixed name per split operation.
const (
	AddContextFile    = "add-context.json"
	DeleteContextFile = "delete-context.json"
	UpdateContextFile = "update-context.json"
)

// AddContext is the projection of the add flow's state written at the end
// of the prepare phase and consumed by submit-transactions and execute.
type AddContext struct {
	Namespace     string               `json:"namespace"`
	NewNode       types.NodeIdentity   `json:"new_node"`
	ExistingNodes []types.NodeIdentity `json:"existing_nodes"`

	GossipCACert []byte `json:"gossip_ca_cert"`
	TLSCertHash  []byte `json:"tls_cert_hash"`
	AdminKey     []byte `json:"admin_key"`

	UpgradeFileID   string `json:"upgrade_file_id"`
	UpgradeFileHash []byte `json:"upgrade_file_hash"`
	FreezeStartTime string `json:"freeze_start_time"`
}

// UpdateContext carries the update flow's state across its phases.
type UpdateContext struct {
	Namespace     string               `json:"namespace"`
	Node          types.NodeIdentity   `json:"node"`
	ExistingNodes []types.NodeIdentity `json:"existing_nodes"`

	NewAccountID string `json:"new_account_id,omitempty"`
	GossipCACert []byte `json:"gossip_ca_cert,omitempty"`
	TLSCertHash  []byte `json:"tls_cert_hash,omitempty"`
	NewAdminKey  []byte `json:"new_admin_key,omitempty"`

	UpgradeFileID   string `json:"upgrade_file_id"`
	UpgradeFileHash []byte `json:"upgrade_file_hash"`
	FreezeStartTime string `json:"freeze_start_time"`
}

// DeleteContext carries the delete flow's state across its phases.
type DeleteContext struct {
	Namespace      string               `json:"namespace"`
	Node           types.NodeIdentity   `json:"node"`
	RemainingNodes []types.NodeIdentity `json:"remaining_nodes"`

	UpgradeFileID   string `json:"upgrade_file_id"`
	UpgradeFileHash []byte `json:"upgrade_file_hash"`
	FreezeStartTime string `json:"freeze_start_time"`
}

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	SavedAt       string          `json:"saved_at"`
	Context       json.RawMessage `json:"context"`
}

// Save serializes a context fragment under dir/filename, creating the
// directory if absent. The file is the sole channel of state transfer to
// the later phase, so every field that phase dereferences must be in the
// fragment.
func Save(dir, filename string, fragment any) error {
	if dir == "" {
		return fmt.Errorf("output directory is required to save %s", filename)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	raw, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("failed to serialize continuation context: %w", err)
	}

	data, err := json.MarshalIndent(envelope{
		SchemaVersion: SchemaVersion,
		SavedAt:       time.Now().UTC().Format(time.RFC3339),
		Context:       raw,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize continuation envelope: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write continuation file: %w", err)
	}

	logger := log.WithComponent("resume")
	logger.Info().Str("file", path).Msg("continuation saved")
	return nil
}

// Load reads dir/filename into fragment. A missing file or a schema
// version mismatch is fatal, not a condition to work around.
func Load(dir, filename string, fragment any) error {
	if dir == "" {
		return fmt.Errorf("input directory is required to load %s", filename)
	}

	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read continuation file %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("corrupt continuation file %s: %w", path, err)
	}
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("continuation file %s has schema version %d, this build expects %d",
			path, env.SchemaVersion, SchemaVersion)
	}
	if err := json.Unmarshal(env.Context, fragment); err != nil {
		return fmt.Errorf("corrupt continuation context in %s: %w", path, err)
	}

	logger := log.WithComponent("resume")
	logger.Debug().Str("file", path).Msg("continuation loaded")
	return nil
}
