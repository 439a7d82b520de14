package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jargoyle/jargoyle/internal/models"
)

const (
	defaultDisplayName = "Unknown"
	defaultEmail       = "notset"
)

// Service bridges verified external identities to local user records.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Resolve maps a verified external identity to exactly one local user record,
// creating it on first sight and bumping lastLoginAt thereafter. Any storage
// failure is wrapped as ErrAuthenticationRejected: the login fails cleanly
// rather than leaving a half-authenticated state.
func (s *Service) Resolve(ctx context.Context, provider, subject string, claims map[string]string) (*models.User, error) {
	provider = strings.TrimSpace(provider)
	subject = strings.TrimSpace(subject)
	if provider == "" {
		return nil, fmt.Errorf("%w: provider not specified", ErrMalformedAssertion)
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: subject not specified", ErrMalformedAssertion)
	}

	existing, err := s.repo.FindByProviderSubject(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup failed: %v", ErrAuthenticationRejected, err)
	}
	if existing != nil {
		return s.login(ctx, existing)
	}

	now := time.Now().UTC()
	u := &models.User{
		DisplayName:   claimOr(claims, "name", defaultDisplayName),
		Email:         claimOr(claims, "email", defaultEmail),
		OAuthProvider: provider,
		OAuthSubject:  subject,
		CreatedAt:     now,
		LastLoginAt:   now,
	}
	created, err := s.repo.Insert(ctx, u)
	if errors.Is(err, ErrDuplicateIdentity) {
		// Lost a race with a concurrent first login for the same identity:
		// the record exists now, so re-read and treat it as a repeat login.
		existing, rerr := s.repo.FindByProviderSubject(ctx, provider, subject)
		if rerr != nil || existing == nil {
			return nil, fmt.Errorf("%w: re-read after duplicate insert failed: %v", ErrAuthenticationRejected, rerr)
		}
		return s.login(ctx, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrAuthenticationRejected, err)
	}
	return created, nil
}

// Lookup returns the local user for an already-established identity, or
// (nil, nil) when the record no longer exists.
func (s *Service) Lookup(ctx context.Context, provider, subject string) (*models.User, error) {
	return s.repo.FindByProviderSubject(ctx, provider, subject)
}

func (s *Service) login(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("%w: login update failed: %v", ErrAuthenticationRejected, err)
	}
	u.LastLoginAt = now
	return u, nil
}

func claimOr(claims map[string]string, key, fallback string) string {
	if v := claims[key]; v != "" {
		return v
	}
	return fallback
}
