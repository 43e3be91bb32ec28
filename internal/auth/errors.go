package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrStateMismatch is returned when the callback state does not match
	// a pending authorization flow. The request is rejected before any
	// call to the token endpoint.
	ErrStateMismatch = errors.New("state parameter mismatch")

	// ErrMissingCode is returned when the callback carries no
	// authorization code.
	ErrMissingCode = errors.New("missing authorization code")

	// ErrRefreshFailed is returned when the provider rejects a refresh
	// token. The caller must restart the authorization flow.
	ErrRefreshFailed = errors.New("token refresh rejected by provider")
)

// TokenExchangeError reports a non-success response from the provider's
// token endpoint. The raw provider response is carried so it can be
// surfaced to the caller rather than swallowed.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (%d): %s", e.StatusCode, e.Body)
}
