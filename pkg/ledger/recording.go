package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/metrics"
	"github.com/hiveops/hivectl/pkg/types"
)

// Submission records one transaction handed to the client.
type Submission struct {
	Kind   string
	Detail any
}

// Recording is a Client that records and logs every submission instead of
// sending it. It backs tests and record-only runs where no SDK binding is
// linked; each would-be transaction is printed so an operator can replay it.
type Recording struct {
	mu          sync.Mutex
	submissions []Submission

	// Balances seeds AccountBalance responses for tests.
	Balances map[string]uint64
	// Files seeds FileContents responses for tests.
	Files map[string][]byte
	// FailOn makes the named operation fail, for rollback tests.
	FailOn map[string]error

	logger zerolog.Logger
	closed bool
}

// NewRecording creates an empty recording client.
func NewRecording() *Recording {
	return &Recording{
		Balances: make(map[string]uint64),
		Files:    make(map[string][]byte),
		FailOn:   make(map[string]error),
		logger:   log.WithComponent("ledger"),
	}
}

// Submissions returns a copy of everything submitted so far.
func (r *Recording) Submissions() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Submission(nil), r.submissions...)
}

// SubmissionKinds returns just the ordered transaction kinds.
func (r *Recording) SubmissionKinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.submissions))
	for i, s := range r.submissions {
		kinds[i] = s.Kind
	}
	return kinds
}

func (r *Recording) submit(kind string, detail any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailOn[kind]; err != nil {
		return err
	}
	r.submissions = append(r.submissions, Submission{Kind: kind, Detail: detail})
	metrics.LedgerTransactionsTotal.WithLabelValues(kind).Inc()
	r.logger.Info().Str("kind", kind).Any("detail", detail).Msg("ledger transaction recorded")
	return nil
}

func (r *Recording) AccountBalance(ctx context.Context, account types.AccountID) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Balances[account.String()], nil
}

func (r *Recording) UpdateAccountStake(ctx context.Context, account types.AccountID, nodeID int64) error {
	return r.submit("account-stake-update", map[string]any{
		"account": account.String(),
		"node_id": nodeID,
	})
}

func (r *Recording) Transfer(ctx context.Context, from, to types.AccountID, amount int64) error {
	return r.submit("transfer", map[string]any{
		"from":   from.String(),
		"to":     to.String(),
		"amount": amount,
	})
}

func (r *Recording) CreateNode(ctx context.Context, params NodeCreateParams) error {
	return r.submit("node-create", params)
}

func (r *Recording) UpdateNode(ctx context.Context, params NodeUpdateParams) error {
	return r.submit("node-update", params)
}

func (r *Recording) DeleteNode(ctx context.Context, nodeID int64) error {
	return r.submit("node-delete", nodeID)
}

func (r *Recording) PrepareUpgrade(ctx context.Context, fileID string, fileHash []byte) error {
	return r.submit("prepare-upgrade", fileID)
}

func (r *Recording) FreezeUpgrade(ctx context.Context, startTime time.Time, fileID string, fileHash []byte) error {
	return r.submit("freeze-upgrade", startTime.UTC().Format(time.RFC3339))
}

func (r *Recording) FileContents(ctx context.Context, fileID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Files[fileID], nil
}

// Close is idempotent.
func (r *Recording) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called, for cleanup tests.
func (r *Recording) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
