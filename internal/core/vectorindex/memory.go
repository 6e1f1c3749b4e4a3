package vectorindex

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force in-memory index. It exists as the fallback
// backend when no Postgres is configured and as the workhorse for tests; it
// honors the exact ranking and filtering contract of the pgvector backend.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Chunk
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]Chunk)}
}

func (m *MemoryIndex) UpsertChunks(_ context.Context, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		meta := make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
		vec := make([]float32, len(c.Vector))
		copy(vec, c.Vector)
		m.entries[c.ID] = Chunk{ID: c.ID, Vector: vec, Text: c.Text, Metadata: meta}
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, queryVector []float32, k int, filter map[string]string) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Result, 0, len(m.entries))
	for _, e := range m.entries {
		if !matches(e.Metadata, filter) {
			continue
		}
		score := cosine(queryVector, e.Vector)
		// Metadata is copied out so callers can't mutate the stored entry.
		meta := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
		results = append(results, Result{
			ID:       e.ID,
			Text:     e.Text,
			Score:    score,
			Distance: 1 - score,
			Metadata: meta,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryIndex) DeleteByParent(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Metadata[MetaParentDocID] == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *MemoryIndex) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Count: len(m.entries), Backend: "memory"}, nil
}

func matches(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

var _ Index = (*MemoryIndex)(nil)
