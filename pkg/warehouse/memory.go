package warehouse

import (
	"context"
	"fmt"
	"sync"

	"vitalstats/verity/pkg/table"
)

// Memory implements Writer entirely in memory. It backs tests and dry runs
// where building a snapshot file is not worth the trouble.
type Memory struct {
	mu       sync.RWMutex
	datasets map[Query]*table.Table
	years    []int
	paths    map[int][]int
}

// NewMemory creates an empty in-memory warehouse.
func NewMemory() *Memory {
	return &Memory{
		datasets: make(map[Query]*table.Table),
		paths:    make(map[int][]int),
	}
}

// DrawTable implements Client.
func (m *Memory) DrawTable(_ context.Context, q Query) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.datasets[q]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, q)
	}
	return t, nil
}

// EstimationYears implements Client.
func (m *Memory) EstimationYears(_ context.Context) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.years...), nil
}

// PathToTop implements Client.
func (m *Memory) PathToTop(_ context.Context, locationID int) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.paths[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: location path for %d", ErrNotFound, locationID)
	}
	return append([]int(nil), path...), nil
}

// StoreDrawTable implements Writer.
func (m *Memory) StoreDrawTable(_ context.Context, q Query, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[q] = t
	return nil
}

// StoreEstimationYears implements Writer.
func (m *Memory) StoreEstimationYears(_ context.Context, years []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.years = append([]int(nil), years...)
	return nil
}

// StoreLocationPath implements Writer.
func (m *Memory) StoreLocationPath(_ context.Context, locationID int, path []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[locationID] = append([]int(nil), path...)
	return nil
}

// Close implements Client.
func (m *Memory) Close() error { return nil }
