package dto

import (
	"fmt"
	"time"

	"github.com/kalder/finlink/internal/domain/duplicate"
	"github.com/kalder/finlink/internal/domain/ledger"
)

// transactionDateLayout is the wire format for transaction dates.
const transactionDateLayout = "2006-01-02"

// TransactionPayload is the wire representation of a transaction.
type TransactionPayload struct {
	ID               string  `json:"id,omitempty"`
	Date             string  `json:"date" binding:"required"`
	Amount           float64 `json:"amount"`
	Description      string  `json:"description"`
	Category         string  `json:"category,omitempty"`
	Account          string  `json:"account" binding:"required"`
	Type             string  `json:"type"`
	OriginalCurrency string  `json:"original_currency,omitempty"`
	ReimbursementID  string  `json:"reimbursement_id,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	IsVerified       bool    `json:"is_verified,omitempty"`
}

// ToTransaction converts the payload into the domain model.
func (p TransactionPayload) ToTransaction() (ledger.Transaction, error) {
	date, err := time.Parse(transactionDateLayout, p.Date)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", p.Date)
	}

	txType := ledger.TransactionType(p.Type)
	switch txType {
	case ledger.TypeIncome, ledger.TypeExpense, ledger.TypeTransfer:
	case "":
		if p.Amount >= 0 {
			txType = ledger.TypeIncome
		} else {
			txType = ledger.TypeExpense
		}
	default:
		return ledger.Transaction{}, fmt.Errorf("invalid transaction type %q", p.Type)
	}

	return ledger.Transaction{
		ID:               p.ID,
		Date:             date,
		Amount:           p.Amount,
		Description:      p.Description,
		Category:         p.Category,
		Account:          p.Account,
		Type:             txType,
		OriginalCurrency: p.OriginalCurrency,
		ReimbursementID:  p.ReimbursementID,
		Notes:            p.Notes,
		IsVerified:       p.IsVerified,
	}, nil
}

// ToTransactions converts a payload batch, reporting the first bad entry.
func ToTransactions(payloads []TransactionPayload) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, 0, len(payloads))
	for i, p := range payloads {
		t, err := p.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// TransactionResponse is the outbound representation. Match provenance
// is rendered into a human-readable note string here, at the UI
// boundary, and nowhere else.
type TransactionResponse struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"`
	Amount           float64 `json:"amount"`
	Description      string  `json:"description"`
	Category         string  `json:"category,omitempty"`
	Account          string  `json:"account"`
	Type             string  `json:"type"`
	OriginalCurrency string  `json:"original_currency,omitempty"`
	ReimbursementID  string  `json:"reimbursement_id,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	MatchNote        string  `json:"match_note,omitempty"`
	IsVerified       bool    `json:"is_verified"`
}

// FromTransaction converts the domain model to the wire shape.
func FromTransaction(t ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               t.ID,
		Date:             t.Date.Format(transactionDateLayout),
		Amount:           t.Amount,
		Description:      t.Description,
		Category:         t.Category,
		Account:          t.Account,
		Type:             string(t.Type),
		OriginalCurrency: t.OriginalCurrency,
		ReimbursementID:  t.ReimbursementID,
		Notes:            t.Notes,
		IsVerified:       t.IsVerified,
	}
	if t.Match != nil {
		resp.MatchNote = fmt.Sprintf("Transfer: %s match with %s (%.0f%% confidence)",
			t.Match.MatchType, t.Match.CounterpartID, t.Match.Confidence*100)
	}
	return resp
}

// FromTransactions converts a batch.
func FromTransactions(txns []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, FromTransaction(t))
	}
	return out
}

// DetectionConfigPayload is the optional duplicate-detection tuning.
type DetectionConfigPayload struct {
	AmountTolerance         *float64 `json:"amount_tolerance,omitempty"`
	DateToleranceDays       *int     `json:"date_tolerance_days,omitempty"`
	RequireExactDescription *bool    `json:"require_exact_description,omitempty"`
	RequireSameAccount      *bool    `json:"require_same_account,omitempty"`
}

// ToConfig merges the payload over the strict defaults. A nil payload
// yields nil, meaning "use defaults" downstream.
func (p *DetectionConfigPayload) ToConfig() *duplicate.DetectionConfig {
	if p == nil {
		return nil
	}
	cfg := duplicate.DefaultConfig()
	if p.AmountTolerance != nil {
		cfg.AmountTolerance = *p.AmountTolerance
	}
	if p.DateToleranceDays != nil {
		cfg.DateToleranceDays = *p.DateToleranceDays
	}
	if p.RequireExactDescription != nil {
		cfg.RequireExactDescription = *p.RequireExactDescription
	}
	if p.RequireSameAccount != nil {
		cfg.RequireSameAccount = *p.RequireSameAccount
	}
	return &cfg
}
