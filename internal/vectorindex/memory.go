package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store for tests and local runs. It scores with
// cosine similarity regardless of the requested metric.
type Memory struct {
	mu      sync.RWMutex
	name    string
	indexes map[string]map[string]Record
}

var _ Store = (*Memory)(nil)

// NewMemory returns a store bound to name with that index already created.
func NewMemory(name string) *Memory {
	return &Memory{
		name:    name,
		indexes: map[string]map[string]Record{name: {}},
	}
}

func (m *Memory) IndexName() string {
	return m.name
}

func (m *Memory) HasIndex(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *Memory) CreateIndex(_ context.Context, spec IndexSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[spec.Name]; !ok {
		m.indexes[spec.Name] = map[string]Record{}
	}
	return nil
}

func (m *Memory) DeleteIndex(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	delete(m.indexes, name)
	return nil
}

func (m *Memory) Upsert(_ context.Context, records []Record) error {
	if err := checkBatch(records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.indexes[m.name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, m.name)
	}
	for _, r := range records {
		values := make([]float32, len(r.Values))
		copy(values, r.Values)
		r.Values = values
		idx[r.ID] = r
	}
	return nil
}

func (m *Memory) Query(_ context.Context, vector []float32, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[m.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, m.name)
	}

	matches := make([]Match, 0, len(idx))
	for _, r := range idx {
		score := cosineSimilarity(vector, r.Values)
		matches = append(matches, Match{ID: r.ID, Score: &score, Metadata: r.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool {
		if *matches[i].Score != *matches[j].Score {
			return *matches[i].Score > *matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports how many records the bound index holds.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indexes[m.name])
}
