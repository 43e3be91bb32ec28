package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// KickEndpoint is the OAuth 2.0 endpoint for id.kick.com. The token
// endpoint expects client credentials in the request body.
var KickEndpoint = oauth2.Endpoint{
	AuthURL:   "https://id.kick.com/oauth/authorize",
	TokenURL:  "https://id.kick.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Config carries the settings needed to run the authorization flow.
// A zero Endpoint selects KickEndpoint.
type Config struct {
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	Scopes        string // space-separated, as configured
	Endpoint      oauth2.Endpoint
	RefreshMargin time.Duration
}

// Authenticator runs the authorization-code-with-PKCE flow and the
// token refresh check that precedes every authenticated call.
type Authenticator struct {
	config        *oauth2.Config
	flows         FlowStore
	logger        *log.Logger
	refreshMargin time.Duration
	now           func() time.Time
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(cfg Config, flows FlowStore, logger *log.Logger) *Authenticator {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = KickEndpoint
	}
	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = 30 * time.Second
	}
	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Fields(cfg.Scopes),
			Endpoint:     endpoint,
		},
		flows:         flows,
		logger:        logger,
		refreshMargin: margin,
		now:           time.Now,
	}
}

// AuthURL generates a fresh PKCE pair and state token, records them as a
// pending flow, and returns the provider authorize URL to redirect to.
func (a *Authenticator) AuthURL() (string, error) {
	pkce, err := GeneratePKCE()
	if err != nil {
		return "", fmt.Errorf("generating PKCE pair: %w", err)
	}

	state, err := GenerateState()
	if err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}

	if err := a.flows.Store(state, pkce.Verifier); err != nil {
		return "", fmt.Errorf("storing flow: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	return a.config.AuthCodeURL(state, opts...), nil
}

// Exchange validates the callback parameters and exchanges the
// authorization code for a token pair. The state is checked against the
// pending flow before any network call; the flow record is consumed
// either way.
func (a *Authenticator) Exchange(ctx context.Context, code, state string) (*oauth2.Token, error) {
	if state == "" {
		return nil, ErrStateMismatch
	}
	verifier, err := a.flows.Consume(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}

	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := a.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &TokenExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	return token, nil
}

// NeedsRefresh reports whether the token is missing, expired, or within
// the safety margin of its expiry.
func (a *Authenticator) NeedsRefresh(token *oauth2.Token) bool {
	if token == nil || token.AccessToken == "" || token.Expiry.IsZero() {
		return true
	}
	return !a.now().Before(token.Expiry.Add(-a.refreshMargin))
}

// Refresh exchanges the refresh token for a new token pair. The provider
// rejecting the refresh token surfaces as ErrRefreshFailed; the caller is
// expected to restart the authorization flow, not to retry.
func (a *Authenticator) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrRefreshFailed)
	}

	// Force a refresh by presenting only the refresh token to the source.
	src := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	newToken, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	// Providers may omit the refresh token on rotation; keep the old one.
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = token.RefreshToken
	}
	a.logger.Printf("refreshed access token, new expiry %s", newToken.Expiry.Format(time.RFC3339))
	return newToken, nil
}
