package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalder/finlink/internal/domain/ledger"
	"github.com/kalder/finlink/internal/domain/transfer"
	"github.com/kalder/finlink/internal/infrastructure/config"
	"github.com/kalder/finlink/internal/infrastructure/storage"
)

var baseDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func makeTransfer(id string, amount float64, account string, daysOffset int) ledger.Transaction {
	return ledger.Transaction{
		ID:          id,
		Date:        baseDate.AddDate(0, 0, daysOffset),
		Amount:      amount,
		Description: "Transfer",
		Account:     account,
		Type:        ledger.TypeTransfer,
	}
}

func newTestService(repo storage.Repository) *ReconService {
	matcher := transfer.NewMatcher(transfer.NewToleranceResolver(nil, "USD", nil), nil)
	return NewReconService(repo, matcher, config.MatchingConfig{}, nil)
}

func TestAutoMatchTransfers_CommitsReciprocalLinks(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	repo.Seed(
		makeTransfer("out1", -500.00, "Checking", 0),
		makeTransfer("in1", 500.00, "Savings", 0),
	)
	svc := newTestService(repo)

	// Act
	result, err := svc.AutoMatchTransfers(context.Background(), svc.AutoOptions())

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.True(t, repo.UpdateLinksCalled)
	assert.Len(t, repo.LastLinkUpdates, 2)

	out, err := repo.GetTransaction("out1")
	require.NoError(t, err)
	in, err := repo.GetTransaction("in1")
	require.NoError(t, err)
	assert.Equal(t, "in1", out.ReimbursementID)
	assert.Equal(t, "out1", in.ReimbursementID)
	require.NotNil(t, out.Match)
	assert.Equal(t, ledger.MatchExact, out.Match.MatchType)
}

func TestAutoMatchTransfers_NoMatches_NoWrite(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.Seed(makeTransfer("lone", -500.00, "Checking", 0))
	svc := newTestService(repo)

	result, err := svc.AutoMatchTransfers(context.Background(), svc.AutoOptions())

	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.False(t, repo.UpdateLinksCalled)
}

func TestAutoMatchTransfers_CommitFailureLeavesNoPartialLink(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.Seed(
		makeTransfer("out1", -500.00, "Checking", 0),
		makeTransfer("in1", 500.00, "Savings", 0),
	)
	repo.UpdateLinksErr = errors.New("disk full")
	svc := newTestService(repo)

	_, err := svc.AutoMatchTransfers(context.Background(), svc.AutoOptions())

	require.Error(t, err)
	// Neither side was linked: the batch is all-or-nothing.
	out, _ := repo.GetTransaction("out1")
	in, _ := repo.GetTransaction("in1")
	assert.Empty(t, out.ReimbursementID)
	assert.Empty(t, in.ReimbursementID)
}

func TestAutoMatchTransfers_HonorsCallerOptions(t *testing.T) {
	// A commit run with widened options must pair what a preview with the
	// same options showed: a 9-day gap is outside the default window but
	// inside the caller's.
	repo := storage.NewMockRepository()
	repo.Seed(
		makeTransfer("out1", -500.00, "Checking", 0),
		makeTransfer("in1", 500.00, "Savings", 9),
	)
	svc := newTestService(repo)
	opts := svc.AutoOptions()
	opts.MaxDaysDifference = 10

	preview, err := svc.PreviewTransferMatches(context.Background(), opts)
	require.NoError(t, err)
	committed, err := svc.AutoMatchTransfers(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, len(preview.Matches), len(committed.Matches))
	require.Len(t, committed.Matches, 1)
	out, _ := repo.GetTransaction("out1")
	assert.Equal(t, "in1", out.ReimbursementID)
}

func TestManuallyMatchTransfers_WritesOnlyChangedRows(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.Seed(
		makeTransfer("out1", -80.00, "Checking", 0),
		makeTransfer("in1", 75.00, "Savings", 3),
		makeTransfer("bystander", -12.00, "Checking", 1),
	)
	svc := newTestService(repo)

	err := svc.ManuallyMatchTransfers(context.Background(), "out1", "in1")

	require.NoError(t, err)
	assert.Len(t, repo.LastLinkUpdates, 2)
	out, _ := repo.GetTransaction("out1")
	require.NotNil(t, out.Match)
	assert.Equal(t, ledger.MatchManual, out.Match.MatchType)
	assert.Equal(t, 1.0, out.Match.Confidence)
}

func TestManuallyMatchTransfers_ValidationFailure_NoWrite(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.Seed(
		makeTransfer("out1", -80.00, "Checking", 0),
		makeTransfer("sibling", 80.00, "Checking", 0),
	)
	svc := newTestService(repo)

	err := svc.ManuallyMatchTransfers(context.Background(), "out1", "sibling")

	assert.ErrorIs(t, err, transfer.ErrSameAccount)
	assert.False(t, repo.UpdateLinksCalled)
}

func TestUnmatchTransfers_ClearsBothSidesAndNotes(t *testing.T) {
	out := makeTransfer("out1", -80.00, "Checking", 0)
	out.ReimbursementID = "in1"
	out.Notes = "[Transfer: manual match with in1]"
	in := makeTransfer("in1", 80.00, "Savings", 0)
	in.ReimbursementID = "out1"
	repo := storage.NewMockRepository()
	repo.Seed(out, in)
	svc := newTestService(repo)

	err := svc.UnmatchTransfers(context.Background(), "out1-in1")

	require.NoError(t, err)
	got, _ := repo.GetTransaction("out1")
	assert.Empty(t, got.ReimbursementID)
	assert.Nil(t, got.Match)
	assert.Empty(t, got.Notes)
	counterpart, _ := repo.GetTransaction("in1")
	assert.Empty(t, counterpart.ReimbursementID)
}

func TestUnmatchTransfers_UnknownMatch(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTestService(repo)

	err := svc.UnmatchTransfers(context.Background(), "a-b")

	assert.ErrorIs(t, err, transfer.ErrMatchNotFound)
}

func TestImportTransactions_SkipsDuplicatesAndMintsIDs(t *testing.T) {
	existing := makeTransfer("e1", -42.50, "Checking", 0)
	existing.Description = "COFFEE SHOP"
	existing.Type = ledger.TypeExpense
	repo := storage.NewMockRepository()
	repo.Seed(existing)
	svc := newTestService(repo)

	dup := makeTransfer("", -42.50, "Checking", 0)
	dup.Description = "COFFEE SHOP"
	dup.Type = ledger.TypeExpense
	fresh := makeTransfer("", -9.99, "Checking", 1)
	fresh.Description = "PARKING"
	fresh.Type = ledger.TypeExpense

	result, err := svc.ImportTransactions(context.Background(), []ledger.Transaction{dup, fresh}, nil)

	require.NoError(t, err)
	assert.Len(t, result.Duplicates, 1)
	require.Len(t, result.Unique, 1)
	assert.NotEmpty(t, result.Unique[0].ID)
	assert.True(t, repo.BulkImportCalled)

	all, err := repo.GetAllTransactions()
	require.NoError(t, err)
	assert.Len(t, all, 2) // existing + fresh, duplicate not persisted
}

func TestImportTransactions_BulkFailurePropagates(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.BulkImportErr = errors.New("disk full")
	svc := newTestService(repo)

	_, err := svc.ImportTransactions(context.Background(), []ledger.Transaction{makeTransfer("", -1, "Checking", 0)}, nil)

	assert.ErrorContains(t, err, "failed to persist")
}

func TestDiagnoseTransferMatching(t *testing.T) {
	a := makeTransfer("a", -10, "Checking", 0)
	a.ReimbursementID = "b"
	b := makeTransfer("b", 10, "Savings", 0)
	b.ReimbursementID = "a"
	dangling := makeTransfer("c", -5, "Checking", 1)
	dangling.ReimbursementID = "gone"
	repo := storage.NewMockRepository()
	repo.Seed(a, b, dangling)
	svc := newTestService(repo)

	report, err := svc.DiagnoseTransferMatching(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.ActualMatches)
	assert.Len(t, report.OrphanedReferences, 1)
}

func TestOptions_ConfigOverridesDefaults(t *testing.T) {
	matcher := transfer.NewMatcher(transfer.NewToleranceResolver(nil, "USD", nil), nil)
	svc := NewReconService(storage.NewMockRepository(), matcher, config.MatchingConfig{
		AutoMaxDays:     3,
		ManualTolerance: 0.2,
	}, nil)

	auto := svc.AutoOptions()
	manual := svc.ManualOptions()

	assert.Equal(t, 3, auto.MaxDaysDifference)
	assert.InDelta(t, 0.01, auto.TolerancePercentage, 1e-9) // default kept
	assert.Equal(t, 8, manual.MaxDaysDifference)            // default kept
	assert.InDelta(t, 0.2, manual.TolerancePercentage, 1e-9)
}

func TestListTransactions_RepoErrorPropagates(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.GetAllErr = errors.New("db closed")
	svc := newTestService(repo)

	_, err := svc.ListTransactions(context.Background())

	assert.Error(t, err)
}
