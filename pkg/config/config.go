package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/hiveops/hivectl/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a resolved config against its struct tags. Validation
// failures are configuration errors: fatal, no retry.
func Validate(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Ledger holds the fields every ledger-transaction-issuing command shares.
type Ledger struct {
	OperatorID      types.AccountID `validate:"required"`
	OperatorKeyPath string          `validate:"required"`
}

// NodeCommon holds the fields every node subcommand shares.
type NodeCommon struct {
	Namespace   string   `validate:"required"`
	NodeAliases []string `validate:"required,min=1,dive,required"`
	CacheDir    string   `validate:"required"`
	ReleaseTag  string
	App         string
}

// StagingDir is where config templates and keys are assembled before being
// pushed into pods, derived from the cache dir and release tag.
func (c NodeCommon) StagingDir() string {
	return filepath.Join(c.CacheDir, c.ReleaseTag, "staging")
}

// NodeSetupConfig drives `node setup`.
type NodeSetupConfig struct {
	NodeCommon
	// LocalBuildPath, when set, is copied into each pod instead of
	// triggering a release download inside the container.
	LocalBuildPath string
}

// NodeStartConfig drives `node start`.
type NodeStartConfig struct {
	NodeCommon
	Ledger
	// DebugNodeAlias selects the one node that gets a debug port-forward.
	DebugNodeAlias string
	// Stake enables the self-stake step after the network is active: each
	// node's account points its stake target at the node's own id. No
	// amount is involved; it is a stake-target update.
	Stake bool
}

// NodeStopConfig drives `node stop`.
type NodeStopConfig struct {
	NodeCommon
}

// NodeKeysConfig drives `node keys`.
type NodeKeysConfig struct {
	Namespace          string   `validate:"required"`
	NodeAliases        []string `validate:"required,min=1,dive,required"`
	KeysDir            string   `validate:"required"`
	GenerateGossipKeys bool
	GenerateTLSKeys    bool
}

// NodeRefreshConfig drives `node refresh`.
type NodeRefreshConfig struct {
	NodeCommon
	LocalBuildPath string
}

// NodeAddConfig drives `node add` and its three phases. OutputDir is where
// the continuation record lands between phases.
type NodeAddConfig struct {
	Namespace    string `validate:"required"`
	KeysDir      string `validate:"required"`
	CacheDir     string `validate:"required"`
	ReleaseTag   string
	OutputDir    string `validate:"required"`
	AdminKeyPath string `validate:"required"`

	Ledger

	// Explicit endpoint lists as comma-separated host:port entries; empty
	// means synthesize per EndpointType.
	GossipEndpoints string
	GrpcEndpoints   string
	EndpointType    types.EndpointType `validate:"required,oneof=FQDN IP"`

	ChartRef     string `validate:"required"`
	ChartVersion string

	GenerateGossipKeys bool
	GenerateTLSKeys    bool
	PVCsEnabled        bool

	// MinStake is the threshold existing nodes must meet before a new
	// node joins.
	MinStake int64 `validate:"gte=0"`
}

// StagingDir mirrors NodeCommon.StagingDir for the add flow.
func (c NodeAddConfig) StagingDir() string {
	return filepath.Join(c.CacheDir, c.ReleaseTag, "staging")
}

// NodeUpdateConfig drives `node update` and its three phases.
type NodeUpdateConfig struct {
	Namespace  string `validate:"required"`
	NodeAlias  string `validate:"required"`
	CacheDir   string `validate:"required"`
	ReleaseTag string
	OutputDir  string `validate:"required"`

	Ledger

	// NewAccountID, when set, moves the node to a different account;
	// pods are recreated in that case.
	NewAccountID string
	// Key rotation inputs; empty means keep current material.
	NewAdminKeyPath  string
	TLSCertPath      string
	GossipCertPath   string
	GossipEndpoints  string
	GrpcEndpoints    string
	EndpointType     types.EndpointType `validate:"required,oneof=FQDN IP"`
	ChartRef         string             `validate:"required"`
	ChartVersion     string
}

// StagingDir mirrors NodeCommon.StagingDir for the update flow.
func (c NodeUpdateConfig) StagingDir() string {
	return filepath.Join(c.CacheDir, c.ReleaseTag, "staging")
}

// NodeDeleteConfig drives `node delete` and its three phases.
type NodeDeleteConfig struct {
	Namespace string `validate:"required"`
	NodeAlias string `validate:"required"`
	OutputDir string `validate:"required"`

	Ledger

	ChartRef     string `validate:"required"`
	ChartVersion string
}

// DownloadConfig drives `node download-generated-files`.
type DownloadConfig struct {
	Namespace  string `validate:"required"`
	CacheDir   string `validate:"required"`
	ReleaseTag string
}

// StagingDir mirrors NodeCommon.StagingDir.
func (c DownloadConfig) StagingDir() string {
	return filepath.Join(c.CacheDir, c.ReleaseTag, "staging")
}

// NodeLogsConfig drives `node logs`.
type NodeLogsConfig struct {
	Namespace   string   `validate:"required"`
	NodeAliases []string `validate:"required,min=1,dive,required"`
	OutputDir   string   `validate:"required"`
}

// UpgradeConfig drives `node prepare-upgrade` and `node freeze-upgrade`.
type UpgradeConfig struct {
	Namespace string `validate:"required"`

	Ledger

	// UpgradeFileID is the system file holding the upgrade artifact.
	UpgradeFileID string `validate:"required"`
	// FreezeDelay is how far in the future the freeze is scheduled.
	FreezeDelaySeconds int `validate:"gte=0"`
}

// RoleRegisterConfig drives `role register`. Rules use the
// apiGroup:resource:verbs form.
type RoleRegisterConfig struct {
	Name  string   `validate:"required"`
	Rules []string `validate:"required,min=1,dive,required"`
}

// RoleLoginConfig drives `role login`: granting a service account an
// already-registered role.
type RoleLoginConfig struct {
	Name string `validate:"required"`
	// ServiceAccount is the namespace:name of the account to bind.
	ServiceAccount string `validate:"required"`
}

// RoleDeleteConfig drives `role delete`.
type RoleDeleteConfig struct {
	Name string `validate:"required"`
}

// ClusterSetupConfig drives `cluster setup`.
type ClusterSetupConfig struct {
	Namespace    string `validate:"required"`
	Release      string `validate:"required"`
	ChartRef     string `validate:"required"`
	ChartVersion string
}

// ClusterResetConfig drives `cluster reset`.
type ClusterResetConfig struct {
	Namespace string `validate:"required"`
	Release   string `validate:"required"`
	// Force skips the namespace-exists check and deletes what it finds.
	Force bool
}

// MirrorConfig drives `mirror-node deploy|destroy`.
type MirrorConfig struct {
	Namespace    string `validate:"required"`
	Release      string `validate:"required"`
	ChartRef     string `validate:"required"`
	ChartVersion string
}

// RelayConfig drives `relay deploy|destroy`. A relay serves a subset of
// nodes, so it carries aliases like the node commands do.
type RelayConfig struct {
	Namespace    string   `validate:"required"`
	Release      string   `validate:"required"`
	NodeAliases  []string `validate:"required,min=1,dive,required"`
	ChartRef     string   `validate:"required"`
	ChartVersion string
}
