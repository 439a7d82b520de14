package models

import "time"

// User is a local account record bridged from an external OIDC identity.
// The (OAuthProvider, OAuthSubject) pair identifies at most one user; the
// Mongo repository backs this with a unique compound index.
type User struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Email         string    `bson:"email" json:"email"`
	DisplayName   string    `bson:"displayName" json:"displayName"`
	OAuthProvider string    `bson:"oauthProvider" json:"oauthProvider"`
	OAuthSubject  string    `bson:"oauthSubject" json:"-"`
	CreatedAt     time.Time `bson:"createdAt" json:"-"`
	LastLoginAt   time.Time `bson:"lastLoginAt" json:"-"`
}
