package repository

import (
	"context"
	"errors"

	"github.com/jargoyle/jargoyle/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Repository defines user-scoped persistence for documents and their
// summaries. Lookup and delete always take the owning user id; a document
// belonging to someone else behaves exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, d *document.Document) (string, error)
	ListByUser(ctx context.Context, userID string, page, size int) ([]*document.Document, int64, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*document.Document, error)
	UpdateMeta(ctx context.Context, id, userID string, title, documentType *string) error
	DeleteByIDAndUser(ctx context.Context, id, userID string) error
	SetStatus(ctx context.Context, id, status, errorMessage string) error
	SaveSummary(ctx context.Context, s *document.Summary) error
	GetSummary(ctx context.Context, documentID string) (*document.Summary, error)
}
