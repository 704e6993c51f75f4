package storage

import (
	"errors"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

// Repository defines the complete storage interface. It allows swapping
// implementations (SQLite, PostgreSQL, ...) and makes testing with the
// in-memory mock straightforward.
type Repository interface {
	TransactionRepository
	Close() error
}

// TransactionRepository handles transaction persistence. Mutations that
// span multiple rows (BulkImport, UpdateLinks) are atomic: either every
// row is written or none is. DeleteTransaction intentionally does not
// clean up counterpart reimbursement links; detecting the stale
// references that leaves behind is the diagnostics engine's job.
type TransactionRepository interface {
	// GetAllTransactions returns a snapshot of the full persisted set.
	GetAllTransactions() ([]ledger.Transaction, error)

	// GetTransaction retrieves one transaction by id.
	GetTransaction(id string) (*ledger.Transaction, error)

	// SaveTransaction inserts or replaces a single transaction.
	SaveTransaction(t *ledger.Transaction) error

	// BulkImport writes a batch of new transactions in one transaction.
	BulkImport(txns []ledger.Transaction) error

	// UpdateLinks applies a set of reimbursement-link writes atomically.
	// A failure on any row rolls back the whole batch, so no pair is
	// ever left linked on one side only.
	UpdateLinks(updates []LinkUpdate) error

	// DeleteTransaction removes one transaction by id.
	DeleteTransaction(id string) error
}

// LinkUpdate is one side of a reimbursement-link write. An empty
// ReimbursementID clears the link (and its provenance). A non-nil Notes
// also rewrites the notes column, so unmatching can strip legacy match
// annotations in the same atomic batch.
type LinkUpdate struct {
	ID              string
	ReimbursementID string
	Match           *ledger.MatchInfo
	Notes           *string
}
