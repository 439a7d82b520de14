package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jargoyle/jargoyle/internal/sessions"
)

// SessionStore is the minimal session-lookup interface the policy depends on.
type SessionStore interface {
	Get(ctx context.Context, id string) (*sessions.Session, error)
}

const sessionContextKey = "session"

// AccessPolicy classifies every request path into one of three classes and
// decides what an unauthenticated request gets:
//   - public paths are served without authentication
//   - API paths get a bare 401 so programmatic clients see a machine-readable
//     failure instead of a login page
//   - everything else is redirected to the provider login entry point
type AccessPolicy struct {
	store    SessionStore
	loginURL string

	publicExact    map[string]struct{}
	publicPrefixes []string
	apiPrefix      string
}

// NewAccessPolicy builds the policy. loginURL is where unauthenticated
// browser navigation is sent (the OAuth authorization entry point for the
// default provider).
func NewAccessPolicy(store SessionStore, loginURL string) *AccessPolicy {
	return &AccessPolicy{
		store:    store,
		loginURL: loginURL,
		publicExact: map[string]struct{}{
			"/":        {},
			"/error":   {},
			"/health":  {},
			"/ready":   {},
			"/metrics": {},
			// Intentionally public: the SPA probes this path to learn whether
			// it is logged in, and needs a structured 401 instead of a
			// redirect to the OAuth login page.
			"/api/auth/me": {},
		},
		publicPrefixes: []string{"/css/", "/js/", "/oauth2/", "/login/oauth2/", "/swagger/"},
		apiPrefix:      "/api/",
	}
}

// Middleware attaches the current session to the request context when a valid
// cookie is presented and enforces the path-class rules otherwise.
func (p *AccessPolicy) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(sessions.CookieName); err == nil && id != "" {
			// A failed store read degrades to "unauthenticated"; the caller
			// sees a redirect or 401, never a half-authenticated state.
			if sess, err := p.store.Get(c.Request.Context(), id); err == nil && sess != nil {
				c.Set(sessionContextKey, sess)
				c.Next()
				return
			}
		}

		path := c.Request.URL.Path
		if p.isPublic(path) {
			c.Next()
			return
		}
		if strings.HasPrefix(path, p.apiPrefix) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Redirect(http.StatusFound, p.loginURL)
		c.Abort()
	}
}

func (p *AccessPolicy) isPublic(path string) bool {
	if _, ok := p.publicExact[path]; ok {
		return true
	}
	for _, pre := range p.publicPrefixes {
		if strings.HasPrefix(path, pre) {
			return true
		}
	}
	return false
}

// SessionFrom returns the session attached by the policy, or nil when the
// request is unauthenticated.
func SessionFrom(c *gin.Context) *sessions.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*sessions.Session)
	return sess
}
