package dto

// ImportRequest carries a batch of deserialized transactions to import,
// with optional duplicate-detection tuning.
type ImportRequest struct {
	Transactions []TransactionPayload    `json:"transactions" binding:"required"`
	Config       *DetectionConfigPayload `json:"config,omitempty"`
}

// DetectDuplicatesRequest is ImportRequest without the write.
type DetectDuplicatesRequest struct {
	Transactions []TransactionPayload    `json:"transactions" binding:"required"`
	Config       *DetectionConfigPayload `json:"config,omitempty"`
}

// ManualMatchRequest commits one explicit transfer pair.
type ManualMatchRequest struct {
	SourceID string `json:"source_transaction_id" binding:"required"`
	TargetID string `json:"target_transaction_id" binding:"required"`
}

// UnmatchRequest clears one committed transfer pair.
type UnmatchRequest struct {
	MatchID string `json:"match_id" binding:"required"`
}
