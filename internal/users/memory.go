package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jargoyle/jargoyle/internal/models"
)

// MemoryRepository is an in-memory Repository used for unit tests and local
// runs without MongoDB. The mutex gives it the same uniqueness guarantee the
// Mongo index provides.
type MemoryRepository struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	byKey map[string]string // "provider\x00subject" -> id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*models.User),
		byKey: make(map[string]string),
	}
}

func identityKey(provider, subject string) string {
	return provider + "\x00" + subject
}

func (r *MemoryRepository) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[identityKey(provider, subject)]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identityKey(u.OAuthProvider, u.OAuthSubject)
	if _, exists := r.byKey[key]; exists {
		return nil, ErrDuplicateIdentity
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	r.byID[cp.ID] = &cp
	r.byKey[key] = cp.ID
	ret := cp
	return &ret, nil
}

func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.LastLoginAt = at
	return nil
}

// Delete removes a user out-of-band. Tests use it to simulate a session whose
// user record no longer exists.
func (r *MemoryRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byKey, identityKey(u.OAuthProvider, u.OAuthSubject))
		delete(r.byID, id)
	}
}
