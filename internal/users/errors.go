package users

import "errors"

var (
	// ErrMalformedAssertion indicates the inbound OIDC assertion is missing a
	// provider or subject. Raised before any storage access.
	ErrMalformedAssertion = errors.New("malformed identity assertion")

	// ErrAuthenticationRejected wraps any identity-store failure during login.
	// The login fails cleanly; callers must not retry.
	ErrAuthenticationRejected = errors.New("authentication rejected")

	// ErrDuplicateIdentity is returned by Repository.Insert when another user
	// already holds the same (provider, subject) pair.
	ErrDuplicateIdentity = errors.New("identity already exists")
)
