package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// Storage provides SQLite database access for transactions.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// GetAllTransactions returns every persisted transaction ordered by date.
func (s *Storage) GetAllTransactions() ([]ledger.Transaction, error) {
	rows, err := s.db.Query(
		"SELECT " + transactionColumns + " FROM transactions ORDER BY date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

// GetTransaction retrieves one transaction by id.
func (s *Storage) GetTransaction(id string) (*ledger.Transaction, error) {
	row := s.db.QueryRow(
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

// SaveTransaction inserts or replaces a single transaction.
func (s *Storage) SaveTransaction(t *ledger.Transaction) error {
	args, err := writeArgs(t)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
	INSERT OR REPLACE INTO transactions
	(`+transactionColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return err
}

// BulkImport writes a batch of new transactions atomically. Any failure
// (including an id collision) rolls back the entire batch.
func (s *Storage) BulkImport(txns []ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT INTO transactions
	(` + transactionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range txns {
		args, err := writeArgs(&txns[i])
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk import failed on transaction %s: %w", txns[i].ID, err)
		}
	}

	return tx.Commit()
}

// UpdateLinks applies reimbursement-link writes atomically. An unknown
// id fails the whole batch so a pair is never linked on one side only.
func (s *Storage) UpdateLinks(updates []LinkUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	for _, u := range updates {
		var matchJSON any
		if u.Match != nil {
			raw, err := json.Marshal(u.Match)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to encode match provenance for %s: %w", u.ID, err)
			}
			matchJSON = string(raw)
		}

		query := "UPDATE transactions SET reimbursement_id = ?, match_json = ? WHERE id = ?"
		args := []any{u.ReimbursementID, matchJSON, u.ID}
		if u.Notes != nil {
			query = "UPDATE transactions SET reimbursement_id = ?, match_json = ?, notes = ? WHERE id = ?"
			args = []any{u.ReimbursementID, matchJSON, *u.Notes, u.ID}
		}

		res, err := tx.Exec(query, args...)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if affected == 0 {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %s", ErrNotFound, u.ID)
		}
	}

	return tx.Commit()
}

// DeleteTransaction removes one transaction. It deliberately leaves any
// counterpart reimbursement link in place.
func (s *Storage) DeleteTransaction(id string) error {
	res, err := s.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
