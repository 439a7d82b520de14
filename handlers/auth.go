package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/jargoyle/jargoyle/internal/config"
	"github.com/jargoyle/jargoyle/internal/oidc"
	"github.com/jargoyle/jargoyle/internal/sessions"
	"github.com/jargoyle/jargoyle/internal/tokens"
	"github.com/jargoyle/jargoyle/internal/users"
	"github.com/jargoyle/jargoyle/pkg/logger"
	"github.com/jargoyle/jargoyle/pkg/metrics"
	"github.com/jargoyle/jargoyle/pkg/middleware"
)

const stateTTL = 10 * time.Minute

// AuthHandler owns the session surface (/api/auth/*) and the OIDC login flow.
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	providers   oidc.Registry
	// customize is an optional authorization-request decorator (e.g. forcing
	// the account chooser in development). Nil means no customization and the
	// flow behaves identically otherwise.
	customize oidc.AuthRequestCustomizer
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, providers oidc.Registry, customize oidc.AuthRequestCustomizer) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, providers: providers, customize: customize}
}

// Register wires the auth routes.
func (h *AuthHandler) Register(r *gin.Engine) {
	r.GET("/api/auth/me", h.Me)
	r.POST("/api/auth/logout", h.Logout)
	r.GET("/oauth2/authorization/:provider", h.BeginLogin)
	r.GET("/login/oauth2/code/:provider", h.Callback)
}

// Me returns the current user's public profile, or a bare 401 when there is
// no session or the session's user record no longer resolves. The projection
// deliberately omits the OAuth subject and timestamps.
func (h *AuthHandler) Me(c *gin.Context) {
	sess := h.currentSession(c)
	if sess == nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	u, err := h.usersSvc.Lookup(c.Request.Context(), sess.Provider, sess.Subject)
	if err != nil {
		logger.Errorf("me: user lookup failed: %v", err)
		c.Status(http.StatusUnauthorized)
		return
	}
	if u == nil {
		// session references a deleted user; unauthenticated, not a 500
		c.Status(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            u.ID,
		"email":         u.Email,
		"displayName":   u.DisplayName,
		"oauthProvider": u.OAuthProvider,
	})
}

// Logout invalidates the current session and clears the cookie. Calling it
// without a session is a no-op; the response is 204 either way.
func (h *AuthHandler) Logout(c *gin.Context) {
	if id, err := c.Cookie(sessions.CookieName); err == nil && id != "" {
		if err := h.sessionsSvc.Delete(c.Request.Context(), id); err != nil {
			logger.Warnf("logout: session delete failed: %v", err)
		}
	}
	c.SetCookie(sessions.CookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// BeginLogin redirects the browser to the provider's authorization endpoint
// with a signed state token.
func (h *AuthHandler) BeginLogin(c *gin.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}
	state, err := tokens.NewState(h.cfg.OAuth.StateSecret, stateTTL)
	if err != nil {
		logger.Errorf("begin login: state token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}
	var opts []oauth2.AuthCodeOption
	if h.customize != nil {
		opts = h.customize()
	}
	c.Redirect(http.StatusFound, p.AuthCodeURL(state, opts...))
}

// Callback completes the authorization-code flow: verify state, exchange the
// code, verify the ID token, bridge the external identity to a local user
// (exactly once per callback) and establish the session. Every failure is a
// login failure, surfaced as a redirect to /error rather than a 500.
func (h *AuthHandler) Callback(c *gin.Context) {
	name := c.Param("provider")
	p, ok := h.providers[name]
	if !ok {
		h.loginFailed(c, name, "unknown provider registration %q", name)
		return
	}
	if err := tokens.VerifyState(h.cfg.OAuth.StateSecret, c.Query("state")); err != nil {
		h.loginFailed(c, name, "state verification failed: %v", err)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.loginFailed(c, name, "callback carried no authorization code")
		return
	}

	ctx := c.Request.Context()
	tok, err := p.Exchange(ctx, code)
	if err != nil {
		h.loginFailed(c, name, "code exchange failed: %v", err)
		return
	}
	rawID, _ := tok.Extra("id_token").(string)
	claims, err := p.VerifyIDToken(ctx, rawID)
	if err != nil {
		h.loginFailed(c, name, "id token verification failed: %v", err)
		return
	}

	sub, _ := claims["sub"].(string)
	profile := map[string]string{}
	if v, ok := claims["name"].(string); ok {
		profile["name"] = v
	}
	if v, ok := claims["email"].(string); ok {
		profile["email"] = v
	}

	u, err := h.usersSvc.Resolve(ctx, name, sub, profile)
	if err != nil {
		h.loginFailed(c, name, "identity resolution failed: %v", err)
		return
	}

	sid, err := h.sessionsSvc.Create(ctx, name, sub, h.cfg.OAuth.SessionTTL)
	if err != nil {
		h.loginFailed(c, name, "session create failed: %v", err)
		return
	}
	c.SetCookie(sessions.CookieName, sid, int(h.cfg.OAuth.SessionTTL.Seconds()), "/", "", false, true)

	metrics.LoginAttempts.WithLabelValues(name, "success").Inc()
	logger.Infof("login: user %s via %s", u.ID, name)
	// Always land on the configured post-login page, not the originally
	// requested resource.
	c.Redirect(http.StatusFound, h.cfg.OAuth.SuccessURL)
}

func (h *AuthHandler) loginFailed(c *gin.Context, provider, format string, args ...interface{}) {
	metrics.LoginAttempts.WithLabelValues(provider, "failure").Inc()
	logger.Warnf("login failed: "+format, args...)
	c.Redirect(http.StatusFound, "/error")
}

func (h *AuthHandler) currentSession(c *gin.Context) *sessions.Session {
	if sess := middleware.SessionFrom(c); sess != nil {
		return sess
	}
	id, err := c.Cookie(sessions.CookieName)
	if err != nil || id == "" {
		return nil
	}
	sess, err := h.sessionsSvc.Get(c.Request.Context(), id)
	if err != nil {
		logger.Warnf("session read failed: %v", err)
		return nil
	}
	return sess
}
