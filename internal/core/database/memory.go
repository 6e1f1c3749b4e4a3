package db

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/models"
)

// MemoryStore is a map-backed core.RecordStore for tests and the zero-config
// dev mode. A single mutex serializes all mutations, which trivially
// satisfies the per-document exclusion the interface requires.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User // keyed by email
	docs     map[string]models.Document
	analyses map[string][]models.DocumentAnalysis
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		docs:     make(map[string]models.Document),
		analyses: make(map[string][]models.DocumentAnalysis),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return errors.New("email already registered")
	}
	m.users[user.Email] = *user
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[email]; ok {
		cp := u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *MemoryStore) GetDocument(_ context.Context, id, ownerID string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok && d.OwnerID == ownerID {
		cp := d
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		cp := d
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListDocuments(_ context.Context, ownerID string, skip, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Document
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateDocumentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return core.ErrNotFound
	}
	d.Status = status
	m.docs[id] = d
	return nil
}

func (m *MemoryStore) UpdateDocumentProcessed(_ context.Context, id string, upd *models.DocumentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return core.ErrNotFound
	}
	content := upd.Content
	d.Content = &content
	if upd.Category != "" {
		cat := upd.Category
		d.Category = &cat
	}
	if upd.Summary != "" {
		sum := upd.Summary
		d.Summary = &sum
	}
	d.Confidence = upd.Confidence
	d.Status = upd.Status
	at := upd.ProcessedAt
	d.ProcessedAt = &at
	m.docs[id] = d
	return nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.OwnerID != ownerID {
		return false, nil
	}
	delete(m.docs, id)
	delete(m.analyses, id)
	return true, nil
}

func (m *MemoryStore) CountDocuments(_ context.Context, ownerID string) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total, processed int
	for _, d := range m.docs {
		if d.OwnerID != ownerID {
			continue
		}
		total++
		if d.ProcessedAt != nil {
			processed++
		}
	}
	return total, processed, nil
}

func (m *MemoryStore) CategoryCounts(_ context.Context, ownerID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, d := range m.docs {
		if d.OwnerID != ownerID {
			continue
		}
		cat := ""
		if d.Category != nil {
			cat = *d.Category
		}
		out[cat]++
	}
	return out, nil
}

func (m *MemoryStore) CreateAnalysis(_ context.Context, a *models.DocumentAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[a.DocumentID] = append(m.analyses[a.DocumentID], *a)
	return nil
}

func (m *MemoryStore) ListAnalyses(_ context.Context, documentID string) ([]models.DocumentAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DocumentAnalysis, len(m.analyses[documentID]))
	copy(out, m.analyses[documentID])
	return out, nil
}

var _ core.RecordStore = (*MemoryStore)(nil)
