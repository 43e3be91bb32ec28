package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kickdemo-go/internal/metrics"
	"kickdemo-go/internal/session"

	"github.com/google/uuid"
)

const sessionCookieName = "session_id"

// contextKey is a custom type to use as a key for context values.
type contextKey string

// sessionContextKey is the key for storing the session in the request context.
const sessionContextKey = contextKey("session")

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs each request with a generated request ID.
func (a *Application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		a.Logger.Printf("%s %s %s -> %d (%s)", requestID[:8], r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// requireAuth ensures the request carries a session holding a token
// credential. JSON 401 otherwise; token freshness is checked per-handler.
func (a *Application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.currentSession(r)
		if err != nil || !sess.Authenticated() {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized - please log in")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// currentSession loads the session named by the request cookie.
func (a *Application) currentSession(r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, session.ErrNotFound
	}
	return a.Sessions.Get(r.Context(), cookie.Value)
}

// freshToken returns a valid access token for the session, refreshing it
// first when it is expired or inside the safety margin. On a rejected
// refresh the stale credential is dropped and the caller is redirected to
// /login; the false return means the response has been written.
func (a *Application) freshToken(w http.ResponseWriter, r *http.Request, sess *session.Session) (string, bool) {
	if !a.Auth.NeedsRefresh(sess.Token) {
		return sess.Token.AccessToken, true
	}

	newToken, err := a.Auth.Refresh(r.Context(), sess.Token)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		a.Logger.Printf("token refresh failed for session: %v", err)
		if clearErr := a.Sessions.ClearToken(r.Context(), sess.ID); clearErr != nil && !errors.Is(clearErr, session.ErrNotFound) {
			a.Logger.Printf("clearing stale token: %v", clearErr)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return "", false
	}

	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	if err := a.Sessions.SaveToken(r.Context(), sess.ID, newToken); err != nil {
		a.Logger.Printf("storing refreshed token: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to store refreshed token")
		return "", false
	}
	sess.Token = newToken
	return newToken.AccessToken, true
}

// optionalToken returns a valid access token when the request has an
// authenticated session, or "" for anonymous access. Refresh failures are
// treated as anonymous rather than surfaced.
func (a *Application) optionalToken(r *http.Request) string {
	sess, err := a.currentSession(r)
	if err != nil || !sess.Authenticated() {
		return ""
	}
	if !a.Auth.NeedsRefresh(sess.Token) {
		return sess.Token.AccessToken
	}

	newToken, err := a.Auth.Refresh(r.Context(), sess.Token)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		return ""
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	if err := a.Sessions.SaveToken(r.Context(), sess.ID, newToken); err != nil {
		a.Logger.Printf("storing refreshed token: %v", err)
	}
	return newToken.AccessToken
}

// withSession adds the session to the context.
func withSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// sessionFromContext retrieves the session from the request's context.
func sessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	return sess, ok
}
