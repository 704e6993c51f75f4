package dto

import (
	"github.com/kalder/finlink/internal/domain/diagnostics"
	"github.com/kalder/finlink/internal/domain/duplicate"
	"github.com/kalder/finlink/internal/domain/transfer"
)

// TransferMatchesResponse is the result of a matching pass.
type TransferMatchesResponse struct {
	Matches   []transfer.Match      `json:"matches"`
	Unmatched []TransactionResponse `json:"unmatched"`
}

// FromTransferResult converts a matching result to the wire shape.
func FromTransferResult(r *transfer.Result) TransferMatchesResponse {
	return TransferMatchesResponse{
		Matches:   r.Matches,
		Unmatched: FromTransactions(r.Unmatched),
	}
}

// DuplicateMatchResponse pairs an incoming row with its persisted double.
type DuplicateMatchResponse struct {
	New         TransactionResponse `json:"new_transaction"`
	Existing    TransactionResponse `json:"existing_transaction"`
	Similarity  float64             `json:"similarity"`
	MatchType   string              `json:"match_type"`
	MatchFields []string            `json:"match_fields"`
	AmountDiff  float64             `json:"amount_difference"`
	DaysDiff    int                 `json:"days_difference"`
}

// DuplicatesResponse partitions an incoming batch.
type DuplicatesResponse struct {
	Duplicates []DuplicateMatchResponse `json:"duplicates"`
	Unique     []TransactionResponse    `json:"unique_transactions"`
}

// FromDuplicateResult converts a detection result to the wire shape.
func FromDuplicateResult(r *duplicate.Result) DuplicatesResponse {
	dups := make([]DuplicateMatchResponse, 0, len(r.Duplicates))
	for _, d := range r.Duplicates {
		dups = append(dups, DuplicateMatchResponse{
			New:         FromTransaction(d.New),
			Existing:    FromTransaction(d.Existing),
			Similarity:  d.Similarity,
			MatchType:   string(d.MatchType),
			MatchFields: d.MatchFields,
			AmountDiff:  d.AmountDiff,
			DaysDiff:    d.DaysDiff,
		})
	}
	return DuplicatesResponse{
		Duplicates: dups,
		Unique:     FromTransactions(r.Unique),
	}
}

// DiagnosticsResponse is the transfer-link consistency report.
type DiagnosticsResponse struct {
	*diagnostics.Report
}

// TransactionListResponse wraps the persisted snapshot.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
}
