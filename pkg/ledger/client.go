package ledger

import (
	"context"
	"time"

	"github.com/hiveops/hivectl/pkg/types"
)

// Config identifies the network and operator a client signs with. Key
// material is referenced by path; the SDK binding loads it.
type Config struct {
	// Nodes maps consensus node endpoints to their account ids.
	Nodes map[string]types.AccountID
	// OperatorID is the paying/signing account.
	OperatorID types.AccountID
	// OperatorKeyPath points at the operator's private key file.
	OperatorKeyPath string
}

// NodeCreateParams carries everything a node create transaction needs.
type NodeCreateParams struct {
	AccountID        types.AccountID
	Description      string
	GossipEndpoints  []types.Endpoint
	ServiceEndpoints []types.Endpoint
	// GossipCACert is the DER-encoded signing certificate.
	GossipCACert []byte
	// TLSCertHash is the SHA-384 hash of the TLS certificate.
	TLSCertHash []byte
	// AdminKey is the DER-encoded admin public key.
	AdminKey []byte
}

// NodeUpdateParams carries a node update transaction. Nil/empty fields are
// left unchanged by the network.
type NodeUpdateParams struct {
	NodeID           int64
	AccountID        types.AccountID
	Description      string
	GossipEndpoints  []types.Endpoint
	ServiceEndpoints []types.Endpoint
	GossipCACert     []byte
	TLSCertHash      []byte
	// NewAdminKey rotates the admin key when set; the old admin key
	// always signs, the new material signs additionally.
	NewAdminKey []byte
}

// Client is the ledger SDK collaborator boundary. The orchestration core
// decides when and with what parameters these are invoked; transaction
// construction, signing, and receipt polling live behind this interface.
type Client interface {
	AccountBalance(ctx context.Context, account types.AccountID) (uint64, error)
	// UpdateAccountStake points an account's stake at a node id.
	UpdateAccountStake(ctx context.Context, account types.AccountID, nodeID int64) error
	// Transfer moves tinybars between accounts; used to nudge the
	// network into recalculating stake weights.
	Transfer(ctx context.Context, from, to types.AccountID, amount int64) error

	CreateNode(ctx context.Context, params NodeCreateParams) error
	UpdateNode(ctx context.Context, params NodeUpdateParams) error
	DeleteNode(ctx context.Context, nodeID int64) error

	// PrepareUpgrade stages the upgrade file identified by fileID with
	// the given hash; FreezeUpgrade schedules the network freeze.
	PrepareUpgrade(ctx context.Context, fileID string, fileHash []byte) error
	FreezeUpgrade(ctx context.Context, startTime time.Time, fileID string, fileHash []byte) error

	// FileContents reads a system file, used for fee and exchange-rate
	// seeding of upgrade artifacts.
	FileContents(ctx context.Context, fileID string) ([]byte, error)

	Close() error
}
