package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kalder/finlink/internal/domain/ledger"
)

// MockRepository is an in-memory implementation of Repository for
// testing. All data lives in a map, making tests fast and isolated.
type MockRepository struct {
	mu   sync.Mutex
	data map[string]ledger.Transaction

	// Hooks for test assertions
	BulkImportCalled  bool
	UpdateLinksCalled bool
	LastLinkUpdates   []LinkUpdate

	// Error injection for testing error paths
	GetAllErr      error
	BulkImportErr  error
	UpdateLinksErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		data: make(map[string]ledger.Transaction),
	}
}

// Seed loads transactions without going through BulkImport bookkeeping.
func (m *MockRepository) Seed(txns ...ledger.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range txns {
		m.data[t.ID] = t.Clone()
	}
}

func (m *MockRepository) GetAllTransactions() ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}

	out := make([]ledger.Transaction, 0, len(m.data))
	for _, t := range m.data {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockRepository) GetTransaction(id string) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	clone := t.Clone()
	return &clone, nil
}

func (m *MockRepository) SaveTransaction(t *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[t.ID] = t.Clone()
	return nil
}

func (m *MockRepository) BulkImport(txns []ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BulkImportCalled = true
	if m.BulkImportErr != nil {
		return m.BulkImportErr
	}

	// Validate the whole batch before writing anything: all-or-nothing.
	for i := range txns {
		if _, exists := m.data[txns[i].ID]; exists {
			return fmt.Errorf("bulk import failed on transaction %s: id already exists", txns[i].ID)
		}
	}
	for i := range txns {
		m.data[txns[i].ID] = txns[i].Clone()
	}
	return nil
}

func (m *MockRepository) UpdateLinks(updates []LinkUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateLinksCalled = true
	m.LastLinkUpdates = updates
	if m.UpdateLinksErr != nil {
		return m.UpdateLinksErr
	}

	// All-or-nothing, like the SQLite implementation.
	for _, u := range updates {
		if _, ok := m.data[u.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, u.ID)
		}
	}
	for _, u := range updates {
		t := m.data[u.ID]
		t.ReimbursementID = u.ReimbursementID
		if u.Match != nil {
			info := *u.Match
			t.Match = &info
		} else {
			t.Match = nil
		}
		if u.Notes != nil {
			t.Notes = *u.Notes
		}
		m.data[u.ID] = t
	}
	return nil
}

func (m *MockRepository) DeleteTransaction(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.data, id)
	return nil
}

func (m *MockRepository) Close() error { return nil }
