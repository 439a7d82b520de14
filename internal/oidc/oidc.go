package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Provider is the identity-provider integration used by the login flow:
// it builds authorization requests, exchanges codes and verifies ID tokens.
// It is satisfied by *RemoteProvider and by test fakes.
type Provider interface {
	Name() string
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	VerifyIDToken(ctx context.Context, raw string) (map[string]interface{}, error)
}

// AuthRequestCustomizer optionally rewrites the outgoing authorization request.
// It is an absent-capable collaborator: a nil customizer means no rewrite and
// the login flow behaves identically minus the UX nuance.
type AuthRequestCustomizer func() []oauth2.AuthCodeOption

// ForceAccountChooser makes Google always show the account chooser. Without
// it the chooser is skipped when only one provider session is active, which
// makes switching test accounts during development difficult. Injected only
// in development configurations.
func ForceAccountChooser() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")}
}

// RemoteProvider wraps provider discovery, the oauth2 code flow and ID-token
// verification for one configured registration.
type RemoteProvider struct {
	name     string
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewRemoteProvider discovers the issuer and builds the authorization-code
// configuration for the named registration.
func NewRemoteProvider(ctx context.Context, name, issuer, clientID, clientSecret, redirectURL string) (*RemoteProvider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider %q: %w", name, err)
	}
	cfg := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &RemoteProvider{name: name, oauth: cfg, verifier: verifier}, nil
}

func (p *RemoteProvider) Name() string { return p.name }

func (p *RemoteProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return p.oauth.AuthCodeURL(state, opts...)
}

func (p *RemoteProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.oauth.Exchange(ctx, code)
}

// VerifyIDToken validates the raw ID token carried in the token response and
// returns its claims.
func (p *RemoteProvider) VerifyIDToken(ctx context.Context, raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, fmt.Errorf("token response carried no id_token")
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Registry maps registration names (e.g. "google") to providers.
type Registry map[string]Provider
