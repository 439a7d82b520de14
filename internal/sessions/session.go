package sessions

import "time"

// CookieName is the browser cookie carrying the opaque session id.
const CookieName = "jargoyle_session"

// Session ties a browser to a completed OIDC login. It carries the external
// identity (provider + subject) only; the local user record is re-resolved on
// each read so a deleted user degrades to "unauthenticated" instead of a
// stale profile.
type Session struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
