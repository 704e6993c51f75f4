// Package diagnostics audits the persisted transaction set's transfer
// links. Deletions and partial writes can leave reimbursement references
// dangling or one-directional; this report makes the divergence between
// "transactions carrying any link" and "genuinely reciprocal pairs"
// explicit. The audit is read-only and never fails: bad links are
// findings, not errors.
package diagnostics

import (
	"time"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// OrphanedReference is a reimbursement link pointing at a transaction ID
// that no longer exists, typically left behind when the counterpart was
// deleted without clearing this side. Description, amount and date are
// denormalized for human inspection.
type OrphanedReference struct {
	TransactionID   string    `json:"transaction_id"`
	ReimbursementID string    `json:"reimbursement_id"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	Date            time.Time `json:"date"`
}

// LinkIssue is a link whose target exists but does not point back.
type LinkIssue struct {
	TransactionID   string `json:"transaction_id"`
	ReimbursementID string `json:"reimbursement_id"`
	TargetLinksTo   string `json:"target_links_to,omitempty"`
}

// Report aggregates link-health counts over the whole persisted set.
type Report struct {
	TotalTransactions    int                 `json:"total_transactions"`
	TransferTransactions int                 `json:"transfer_transactions"`
	LinkedTransactions   int                 `json:"linked_transactions"`
	ActualMatches        int                 `json:"actual_matches"`
	OrphanedReferences   []OrphanedReference `json:"orphaned_references"`
	BidirectionalIssues  []LinkIssue         `json:"bidirectional_issues"`
}

// Audit inspects every reimbursement link in the set. ActualMatches
// counts each genuinely reciprocal pair once, not once per side.
func Audit(txns []ledger.Transaction) *Report {
	report := &Report{
		TotalTransactions:   len(txns),
		OrphanedReferences:  make([]OrphanedReference, 0),
		BidirectionalIssues: make([]LinkIssue, 0),
	}

	byID := make(map[string]*ledger.Transaction, len(txns))
	for i := range txns {
		byID[txns[i].ID] = &txns[i]
	}

	for i := range txns {
		t := &txns[i]
		if t.IsTransfer() {
			report.TransferTransactions++
		}
		if !t.IsLinked() {
			continue
		}
		report.LinkedTransactions++

		target, exists := byID[t.ReimbursementID]
		if !exists {
			report.OrphanedReferences = append(report.OrphanedReferences, OrphanedReference{
				TransactionID:   t.ID,
				ReimbursementID: t.ReimbursementID,
				Description:     t.Description,
				Amount:          t.Amount,
				Date:            t.Date,
			})
			continue
		}

		if target.ReimbursementID != t.ID {
			report.BidirectionalIssues = append(report.BidirectionalIssues, LinkIssue{
				TransactionID:   t.ID,
				ReimbursementID: t.ReimbursementID,
				TargetLinksTo:   target.ReimbursementID,
			})
			continue
		}

		// Reciprocal pair; count it once from the lexically smaller side.
		if t.ID < target.ID {
			report.ActualMatches++
		}
	}

	return report
}
