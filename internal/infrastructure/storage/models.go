package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// dateLayout is the column format for transaction dates. Matching works
// at calendar-day precision, so time-of-day is not persisted.
const dateLayout = "2006-01-02"

// transactionColumns is the SELECT list shared by every read query.
const transactionColumns = `id, date, amount, description, category, account,
	type, original_currency, reimbursement_id, match_json, notes, is_verified`

// scanTransaction maps one row onto the domain model.
func scanTransaction(scan func(dest ...any) error) (*ledger.Transaction, error) {
	var (
		t         ledger.Transaction
		dateStr   string
		matchJSON sql.NullString
	)

	err := scan(
		&t.ID,
		&dateStr,
		&t.Amount,
		&t.Description,
		&t.Category,
		&t.Account,
		&t.Type,
		&t.OriginalCurrency,
		&t.ReimbursementID,
		&matchJSON,
		&t.Notes,
		&t.IsVerified,
	)
	if err != nil {
		return nil, err
	}

	t.Date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("malformed date %q for transaction %s: %w", dateStr, t.ID, err)
	}

	if matchJSON.Valid && matchJSON.String != "" {
		var info ledger.MatchInfo
		if err := json.Unmarshal([]byte(matchJSON.String), &info); err != nil {
			return nil, fmt.Errorf("malformed match provenance for transaction %s: %w", t.ID, err)
		}
		t.Match = &info
	}

	return &t, nil
}

// writeArgs maps the domain model onto insert/replace arguments in
// transactionColumns order.
func writeArgs(t *ledger.Transaction) ([]any, error) {
	var matchJSON any
	if t.Match != nil {
		raw, err := json.Marshal(t.Match)
		if err != nil {
			return nil, fmt.Errorf("failed to encode match provenance for %s: %w", t.ID, err)
		}
		matchJSON = string(raw)
	}

	return []any{
		t.ID,
		t.Date.Format(dateLayout),
		t.Amount,
		t.Description,
		t.Category,
		t.Account,
		t.Type,
		t.OriginalCurrency,
		t.ReimbursementID,
		matchJSON,
		t.Notes,
		t.IsVerified,
	}, nil
}
