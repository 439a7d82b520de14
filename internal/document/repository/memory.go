package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jargoyle/jargoyle/internal/document"
)

// MemoryRepo is a simple in-memory repository used for unit tests and local
// runs without MongoDB.
type MemoryRepo struct {
	mu        sync.RWMutex
	docs      map[string]*document.Document
	summaries map[string]*document.Summary
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:      make(map[string]*document.Document),
		summaries: make(map[string]*document.Summary),
	}
}

func (m *MemoryRepo) Create(ctx context.Context, d *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	m.docs[d.ID] = &cp
	return d.ID, nil
}

func (m *MemoryRepo) ListByUser(ctx context.Context, userID string, page, size int) ([]*document.Document, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var owned []*document.Document
	for _, d := range m.docs {
		if d.UserID == userID {
			cp := *d
			owned = append(owned, &cp)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	total := int64(len(owned))
	start := page * size
	if start >= len(owned) {
		return []*document.Document{}, total, nil
	}
	end := start + size
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], total, nil
}

func (m *MemoryRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryRepo) UpdateMeta(ctx context.Context, id, userID string, title, documentType *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	if title != nil {
		d.Title = *title
	}
	if documentType != nil {
		d.DocumentType = *documentType
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	delete(m.docs, id)
	delete(m.summaries, d.ID)
	return nil
}

func (m *MemoryRepo) SetStatus(ctx context.Context, id, status, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.ErrorMessage = errorMessage
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) SaveSummary(ctx context.Context, s *document.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.summaries[s.DocumentID] = &cp
	return nil
}

func (m *MemoryRepo) GetSummary(ctx context.Context, documentID string) (*document.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[documentID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}
