// Package service wires the matching, duplicate-detection and
// diagnostics engines to the storage collaborator. All multi-row writes
// go through the repository's atomic primitives; the service never
// performs incremental clear-then-append steps of its own.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kalder/finlink/internal/domain/diagnostics"
	"github.com/kalder/finlink/internal/domain/duplicate"
	"github.com/kalder/finlink/internal/domain/ledger"
	"github.com/kalder/finlink/internal/domain/transfer"
	"github.com/kalder/finlink/internal/infrastructure/config"
	"github.com/kalder/finlink/internal/infrastructure/storage"
)

// ReconService exposes the reconciliation operations to the API and CLI
// layers.
type ReconService struct {
	repo    storage.Repository
	matcher *transfer.Matcher
	cfg     config.MatchingConfig
	logger  *slog.Logger
}

// NewReconService creates the service.
func NewReconService(repo storage.Repository, matcher *transfer.Matcher, cfg config.MatchingConfig, logger *slog.Logger) *ReconService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconService{
		repo:    repo,
		matcher: matcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// AutoOptions returns the configured automatic matching options,
// falling back to the engine defaults for unset values.
func (s *ReconService) AutoOptions() transfer.Options {
	opts := transfer.DefaultAutoOptions()
	if s.cfg.AutoMaxDays > 0 {
		opts.MaxDaysDifference = s.cfg.AutoMaxDays
	}
	if s.cfg.AutoTolerance > 0 {
		opts.TolerancePercentage = s.cfg.AutoTolerance
	}
	return opts
}

// ManualOptions returns the configured manual matching options.
func (s *ReconService) ManualOptions() transfer.Options {
	opts := transfer.DefaultManualOptions()
	if s.cfg.ManualMaxDays > 0 {
		opts.MaxDaysDifference = s.cfg.ManualMaxDays
	}
	if s.cfg.ManualTolerance > 0 {
		opts.TolerancePercentage = s.cfg.ManualTolerance
	}
	return opts
}

// ListTransactions returns the full persisted snapshot.
func (s *ReconService) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	return s.repo.GetAllTransactions()
}

// PreviewTransferMatches is the read-only preview of automatic matching.
func (s *ReconService) PreviewTransferMatches(ctx context.Context, opts transfer.Options) (*transfer.Result, error) {
	txns, err := s.repo.GetAllTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return s.matcher.FindMatches(ctx, txns, opts)
}

// AutoMatchTransfers finds and commits automatic matches using the given
// options, so a preview and the following commit see the same match set.
// The reciprocal link writes for all pairs are applied as one atomic unit.
func (s *ReconService) AutoMatchTransfers(ctx context.Context, opts transfer.Options) (*transfer.Result, error) {
	txns, err := s.repo.GetAllTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	updated, result, err := s.matcher.AutoMatch(ctx, txns, opts)
	if err != nil {
		return nil, err
	}

	if err := s.commitLinks(updated, result.Matches); err != nil {
		return nil, err
	}

	s.logger.Info("automatic transfer matching committed",
		"matches", len(result.Matches), "unmatched", len(result.Unmatched))
	return result, nil
}

// FindManualTransferMatches surfaces relaxed candidate pairs for review.
func (s *ReconService) FindManualTransferMatches(ctx context.Context, opts transfer.Options) (*transfer.Result, error) {
	txns, err := s.repo.GetAllTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return s.matcher.FindManualMatches(ctx, txns, opts)
}

// ManuallyMatchTransfers commits one explicit pair.
func (s *ReconService) ManuallyMatchTransfers(ctx context.Context, sourceID, targetID string) error {
	txns, err := s.repo.GetAllTransactions()
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	updated, err := transfer.ApplyManualMatch(txns, sourceID, targetID)
	if err != nil {
		return err
	}

	return s.commitChanged(txns, updated)
}

// UnmatchTransfers clears one committed pair.
func (s *ReconService) UnmatchTransfers(ctx context.Context, matchID string) error {
	txns, err := s.repo.GetAllTransactions()
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	updated, err := transfer.Unmatch(txns, matchID)
	if err != nil {
		return err
	}

	return s.commitChanged(txns, updated)
}

// DetectDuplicates compares an incoming batch against the persisted set
// without writing anything.
func (s *ReconService) DetectDuplicates(ctx context.Context, incoming []ledger.Transaction, cfg *duplicate.DetectionConfig) (*duplicate.Result, error) {
	existing, err := s.repo.GetAllTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return duplicate.Detect(incoming, existing, cfg)
}

// ImportTransactions runs duplicate detection over an incoming batch and
// persists the unique remainder in one atomic bulk write. Transactions
// arriving without an id are assigned one.
func (s *ReconService) ImportTransactions(ctx context.Context, incoming []ledger.Transaction, cfg *duplicate.DetectionConfig) (*duplicate.Result, error) {
	result, err := s.DetectDuplicates(ctx, incoming, cfg)
	if err != nil {
		return nil, err
	}

	for i := range result.Unique {
		if result.Unique[i].ID == "" {
			result.Unique[i].ID = uuid.NewString()
		}
	}

	if err := s.repo.BulkImport(result.Unique); err != nil {
		return nil, fmt.Errorf("failed to persist imported transactions: %w", err)
	}

	s.logger.Info("import complete",
		"incoming", len(incoming), "unique", len(result.Unique), "duplicates", len(result.Duplicates))
	return result, nil
}

// DiagnoseTransferMatching audits the persisted set's transfer links.
func (s *ReconService) DiagnoseTransferMatching(ctx context.Context) (*diagnostics.Report, error) {
	txns, err := s.repo.GetAllTransactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return diagnostics.Audit(txns), nil
}

// commitLinks translates committed matches into one atomic batch of
// reciprocal link updates.
func (s *ReconService) commitLinks(updated []ledger.Transaction, matches []transfer.Match) error {
	if len(matches) == 0 {
		return nil
	}

	byID := make(map[string]*ledger.Transaction, len(updated))
	for i := range updated {
		byID[updated[i].ID] = &updated[i]
	}

	updates := make([]storage.LinkUpdate, 0, len(matches)*2)
	for _, m := range matches {
		for _, id := range []string{m.SourceID, m.TargetID} {
			t, ok := byID[id]
			if !ok {
				return fmt.Errorf("match %s references unknown transaction %s", m.ID, id)
			}
			updates = append(updates, storage.LinkUpdate{
				ID:              t.ID,
				ReimbursementID: t.ReimbursementID,
				Match:           t.Match,
			})
		}
	}

	if err := s.repo.UpdateLinks(updates); err != nil {
		return fmt.Errorf("failed to commit transfer matches: %w", err)
	}
	return nil
}

// commitChanged diffs link state between the snapshot and the updated
// copy and writes only what changed, atomically.
func (s *ReconService) commitChanged(before, after []ledger.Transaction) error {
	prior := make(map[string]string, len(before))
	for i := range before {
		prior[before[i].ID] = before[i].ReimbursementID
	}

	priorNotes := make(map[string]string, len(before))
	for i := range before {
		priorNotes[before[i].ID] = before[i].Notes
	}

	var updates []storage.LinkUpdate
	for i := range after {
		t := &after[i]
		if prior[t.ID] == t.ReimbursementID && priorNotes[t.ID] == t.Notes {
			continue
		}
		u := storage.LinkUpdate{
			ID:              t.ID,
			ReimbursementID: t.ReimbursementID,
			Match:           t.Match,
		}
		if priorNotes[t.ID] != t.Notes {
			notes := t.Notes
			u.Notes = &notes
		}
		updates = append(updates, u)
	}

	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.UpdateLinks(updates); err != nil {
		return fmt.Errorf("failed to commit link change: %w", err)
	}
	return nil
}
