package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jargoyle/jargoyle/internal/config"
	"github.com/jargoyle/jargoyle/internal/models"
	"github.com/jargoyle/jargoyle/internal/oidc"
	"github.com/jargoyle/jargoyle/internal/sessions"
	"github.com/jargoyle/jargoyle/internal/tokens"
	"github.com/jargoyle/jargoyle/internal/users"
)

const testStateSecret = "state-secret-0123456789"

// fakeProvider implements oidc.Provider without any network access.
type fakeProvider struct {
	name        string
	claims      map[string]interface{}
	exchangeErr error
	verifyErr   error
	exchanges   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	cfg := oauth2.Config{
		ClientID:    "client",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example/auth"},
		RedirectURL: "http://localhost/login/oauth2/code/" + f.name,
		Scopes:      []string{"openid"},
	}
	return cfg.AuthCodeURL(state, opts...)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	f.exchanges++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return (&oauth2.Token{AccessToken: "at"}).WithExtra(map[string]interface{}{"id_token": "raw-id-token"}), nil
}

func (f *fakeProvider) VerifyIDToken(ctx context.Context, raw string) (map[string]interface{}, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.claims, nil
}

// countingRepo wraps the memory repository to observe bridge activity.
type countingRepo struct {
	*users.MemoryRepository
	finds   int
	inserts int
	updates int
}

func (r *countingRepo) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	r.finds++
	return r.MemoryRepository.FindByProviderSubject(ctx, provider, subject)
}

func (r *countingRepo) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	r.inserts++
	return r.MemoryRepository.Insert(ctx, u)
}

func (r *countingRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.updates++
	return r.MemoryRepository.UpdateLastLogin(ctx, id, at)
}

type authFixture struct {
	router   *gin.Engine
	handler  *AuthHandler
	repo     *countingRepo
	sessions *sessions.Service
	provider *fakeProvider
}

func newAuthFixture(t *testing.T, customize oidc.AuthRequestCustomizer) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		OAuth: config.OAuthConfig{
			SuccessURL:  "/",
			StateSecret: testStateSecret,
			SessionTTL:  time.Hour,
		},
	}
	repo := &countingRepo{MemoryRepository: users.NewMemoryRepository()}
	usersSvc := users.NewService(repo)
	sessionsSvc := sessions.NewService(sessions.NewMemoryRepository())
	provider := &fakeProvider{
		name:   "google",
		claims: map[string]interface{}{"sub": "sub-123", "name": "Ada", "email": "ada@example.com"},
	}

	h := NewAuthHandler(cfg, usersSvc, sessionsSvc, oidc.Registry{"google": provider}, customize)
	r := gin.New()
	h.Register(r)
	return &authFixture{router: r, handler: h, repo: repo, sessions: sessionsSvc, provider: provider}
}

func (f *authFixture) loginSession(t *testing.T, provider, subject string) string {
	t.Helper()
	id, err := f.sessions.Create(context.Background(), provider, subject, time.Hour)
	require.NoError(t, err)
	return id
}

func doGet(r *gin.Engine, path, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sessionID})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doPost(r *gin.Engine, path, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sessionID})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMe_NoSession(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := doGet(f.router, "/api/auth/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, w.Body.String())
}

func TestMe_ReturnsPublicProjection(t *testing.T) {
	f := newAuthFixture(t, nil)

	u, err := users.NewService(f.repo).Resolve(context.Background(), "google", "sub-123",
		map[string]string{"name": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)

	sid := f.loginSession(t, "google", "sub-123")
	w := doGet(f.router, "/api/auth/me", sid)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, u.ID, got["id"])
	require.Equal(t, "ada@example.com", got["email"])
	require.Equal(t, "Ada", got["displayName"])
	require.Equal(t, "google", got["oauthProvider"])

	// internal fields must never leak
	body := w.Body.String()
	require.NotContains(t, body, "oauthSubject")
	require.NotContains(t, body, "sub-123")
	require.NotContains(t, body, "createdAt")
	require.NotContains(t, body, "lastLoginAt")
}

func TestMe_SessionForDeletedUser(t *testing.T) {
	f := newAuthFixture(t, nil)

	u, err := users.NewService(f.repo).Resolve(context.Background(), "google", "sub-123", nil)
	require.NoError(t, err)
	sid := f.loginSession(t, "google", "sub-123")

	// delete the user out-of-band; the session is now inconsistent
	f.repo.MemoryRepository.Delete(u.ID)

	w := doGet(f.router, "/api/auth/me", sid)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, w.Body.String())
}

func TestLogout_IdempotentNoContent(t *testing.T) {
	f := newAuthFixture(t, nil)
	sid := f.loginSession(t, "google", "sub-123")

	w := doPost(f.router, "/api/auth/logout", sid)
	require.Equal(t, http.StatusNoContent, w.Code)

	// second logout, session already gone
	w = doPost(f.router, "/api/auth/logout", sid)
	require.Equal(t, http.StatusNoContent, w.Code)

	// and with no cookie at all
	w = doPost(f.router, "/api/auth/logout", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	sess, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestBeginLogin_RedirectsToProvider(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := doGet(f.router, "/oauth2/authorization/google", "")
	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	require.Contains(t, loc, "https://idp.example/auth")
	require.Contains(t, loc, "state=")
	require.NotContains(t, loc, "prompt=select_account")
}

func TestBeginLogin_AccountChooserCustomizer(t *testing.T) {
	f := newAuthFixture(t, oidc.ForceAccountChooser)

	w := doGet(f.router, "/oauth2/authorization/google", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "prompt=select_account")
}

func TestBeginLogin_UnknownProvider(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := doGet(f.router, "/oauth2/authorization/github", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func callbackURL(t *testing.T, code string) string {
	t.Helper()
	state, err := tokens.NewState(testStateSecret, time.Minute)
	require.NoError(t, err)
	return fmt.Sprintf("/login/oauth2/code/google?code=%s&state=%s", code, state)
}

func TestCallback_FirstLoginCreatesUserAndSession(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := doGet(f.router, callbackURL(t, "good-code"), "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	// the bridge ran exactly once: one lookup, one insert, no update
	require.Equal(t, 1, f.repo.finds)
	require.Equal(t, 1, f.repo.inserts)
	require.Equal(t, 0, f.repo.updates)

	// session cookie was set and resolves
	var sid string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessions.CookieName {
			sid = ck.Value
		}
	}
	require.NotEmpty(t, sid)
	sess, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "google", sess.Provider)
	require.Equal(t, "sub-123", sess.Subject)
}

func TestCallback_RepeatLoginUpdatesNotInserts(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := doGet(f.router, callbackURL(t, "c1"), "")
	require.Equal(t, http.StatusFound, w.Code)
	w = doGet(f.router, callbackURL(t, "c2"), "")
	require.Equal(t, http.StatusFound, w.Code)

	require.Equal(t, 1, f.repo.inserts)
	require.Equal(t, 1, f.repo.updates)
}

func TestCallback_BadStateIsLoginFailure(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := doGet(f.router, "/login/oauth2/code/google?code=x&state=forged", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/error", w.Header().Get("Location"))
	require.Zero(t, f.provider.exchanges)
	require.Zero(t, f.repo.inserts)
}

func TestCallback_ExchangeFailureIsLoginFailure(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.provider.exchangeErr = fmt.Errorf("idp says no")

	w := doGet(f.router, callbackURL(t, "bad"), "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/error", w.Header().Get("Location"))
	require.Zero(t, f.repo.inserts)
}

func TestCallback_MissingSubjectIsLoginFailure(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.provider.claims = map[string]interface{}{"name": "No Subject"}

	w := doGet(f.router, callbackURL(t, "c"), "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/error", w.Header().Get("Location"))
	// failed before any storage write
	require.Zero(t, f.repo.inserts)
	require.Zero(t, f.repo.updates)
}
