// Package ledger defines the core transaction model shared by the
// matching, duplicate-detection and diagnostics engines.
package ledger

import (
	"math"
	"time"
)

// TransactionType classifies the direction/intent of a transaction.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// MatchType describes how a transfer pairing was established.
type MatchType string

const (
	MatchExact       MatchType = "exact"
	MatchApproximate MatchType = "approximate"
	MatchManual      MatchType = "manual"
)

// MatchInfo is the structured provenance of an applied transfer pairing.
// It replaces the old convention of embedding bracketed markers in Notes;
// rendering into human-readable text happens only at the API boundary and
// is never parsed back.
type MatchInfo struct {
	CounterpartID string    `json:"counterpart_id"`
	Confidence    float64   `json:"confidence"`
	MatchType     MatchType `json:"match_type"`
	Reasoning     string    `json:"reasoning,omitempty"`
	MatchedAt     time.Time `json:"matched_at"`
}

// Transaction is a single financial event. Amount is signed: negative
// means money left the account, positive means money arrived.
type Transaction struct {
	ID               string          `json:"id"`
	Date             time.Time       `json:"date"`
	Amount           float64         `json:"amount"`
	Description      string          `json:"description"`
	Category         string          `json:"category,omitempty"`
	Account          string          `json:"account"`
	Type             TransactionType `json:"type"`
	OriginalCurrency string          `json:"original_currency,omitempty"` // empty = household default
	ReimbursementID  string          `json:"reimbursement_id,omitempty"`  // counterpart leg of a transfer
	Match            *MatchInfo      `json:"match,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	IsVerified       bool            `json:"is_verified"`
}

// IsTransfer reports whether the transaction is categorized as a transfer leg.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TypeTransfer
}

// IsLinked reports whether the transaction already points at a counterpart.
func (t *Transaction) IsLinked() bool {
	return t.ReimbursementID != ""
}

// DaysBetween returns the whole-day gap between two transaction dates,
// always non-negative. Time-of-day is ignored: transfers are compared at
// calendar-day precision.
func DaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(au.Sub(bu).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// AbsAmount returns the unsigned amount.
func (t *Transaction) AbsAmount() float64 {
	return math.Abs(t.Amount)
}

// OppositeSigns reports whether one transaction is an inflow and the
// other an outflow. Zero-amount transactions never qualify.
func OppositeSigns(a, b *Transaction) bool {
	return (a.Amount < 0 && b.Amount > 0) || (a.Amount > 0 && b.Amount < 0)
}

// Clone returns a deep copy, so matchers can return updated views without
// mutating the caller's snapshot.
func (t *Transaction) Clone() Transaction {
	out := *t
	if t.Match != nil {
		m := *t.Match
		out.Match = &m
	}
	return out
}

// CloneAll deep-copies a transaction slice.
func CloneAll(txns []Transaction) []Transaction {
	out := make([]Transaction, len(txns))
	for i := range txns {
		out[i] = txns[i].Clone()
	}
	return out
}
