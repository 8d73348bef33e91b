package schedule

import (
	"context"
	"sync"
)

type feeKey struct {
	code     string
	year     int
	modifier string
}

// MemoryStore is an in-memory Store used by tests and fixture-driven runs.
// Safe for concurrent reads after loading.
type MemoryStore struct {
	mu     sync.RWMutex
	fees   map[feeKey]FeeRow
	zips   map[string]LocalityRow // keyed by 3-digit ZIP prefix
	states map[string]LocalityRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fees:   make(map[feeKey]FeeRow),
		zips:   make(map[string]LocalityRow),
		states: make(map[string]LocalityRow),
	}
}

// AddFee registers a fee row under its (code, year, modifier).
func (m *MemoryStore) AddFee(row FeeRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fees[feeKey{code: row.Code, year: row.Year, modifier: row.Modifier}] = row
}

// AddZIPLocality registers a locality under a 3-digit ZIP prefix.
func (m *MemoryStore) AddZIPLocality(prefix string, row LocalityRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zips[prefix] = row
}

// AddStateLocality registers a state-level locality row.
func (m *MemoryStore) AddStateLocality(state string, row LocalityRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = row
}

func (m *MemoryStore) FeeRow(_ context.Context, code string, year int, modifier string) (*FeeRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.fees[feeKey{code: code, year: year, modifier: modifier}]; ok {
		out := row
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) LatestYear(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := 0
	for k := range m.fees {
		if k.year > latest {
			latest = k.year
		}
	}
	if latest == 0 {
		return 0, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) LocalityByZIP(_ context.Context, zip string) (*LocalityRow, error) {
	if len(zip) < 3 {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.zips[zip[:3]]; ok {
		out := row
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) LocalityByState(_ context.Context, state string) (*LocalityRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.states[state]; ok {
		out := row
		return &out, nil
	}
	return nil, ErrNotFound
}

var _ Store = (*MemoryStore)(nil)
