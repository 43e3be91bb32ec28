package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kickdemo-go/internal/auth"
	"kickdemo-go/internal/kick"
	"kickdemo-go/internal/metrics"

	"github.com/go-chi/chi/v5"
)

//
// Authentication Handlers
//

// handleIndex shows the landing page, or sends a signed-in user to /me.
func (a *Application) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sess, err := a.currentSession(r); err == nil && sess.Authenticated() && !a.Auth.NeedsRefresh(sess.Token) {
		http.Redirect(w, r, "/me", http.StatusSeeOther)
		return
	}
	renderIndex(w, a.Config.Auth.Scopes)
}

// handleLogin initiates the authorization flow by redirecting the user to
// the provider consent page.
func (a *Application) handleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := a.Auth.AuthURL()
	if err != nil {
		a.Logger.Printf("building auth URL: %v", err)
		http.Error(w, "Failed to start login flow", http.StatusInternalServerError)
		return
	}
	metrics.AuthFlowsStarted.Inc()
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback handles the redirect from the provider after consent.
// The state is validated against the pending flow before the code is
// exchanged; the resulting credential is stored in a fresh session.
func (a *Application) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	token, err := a.Auth.Exchange(r.Context(), code, state)
	if err != nil {
		var exchangeErr *auth.TokenExchangeError
		switch {
		case errors.Is(err, auth.ErrStateMismatch):
			metrics.CallbackOutcomes.WithLabelValues("state_mismatch").Inc()
			http.Error(w, "State mismatch. Start the login flow again from /login.", http.StatusBadRequest)
		case errors.Is(err, auth.ErrMissingCode):
			metrics.CallbackOutcomes.WithLabelValues("missing_code").Inc()
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
		case errors.As(err, &exchangeErr):
			metrics.CallbackOutcomes.WithLabelValues("exchange_failed").Inc()
			http.Error(w, fmt.Sprintf("Token exchange failed (%d): %s", exchangeErr.StatusCode, exchangeErr.Body), http.StatusBadGateway)
		default:
			metrics.CallbackOutcomes.WithLabelValues("error").Inc()
			a.Logger.Printf("callback error: %v", err)
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
		}
		return
	}

	sess, err := a.Sessions.Create(r.Context(), a.Config.Session.TTL)
	if err != nil {
		a.Logger.Printf("creating session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	if err := a.Sessions.SaveToken(r.Context(), sess.ID, token); err != nil {
		a.Logger.Printf("storing token: %v", err)
		http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
		return
	}

	metrics.CallbackOutcomes.WithLabelValues("ok").Inc()
	http.SetCookie(w, a.sessionCookie(sess.ID, a.Config.Session.TTL))
	http.Redirect(w, r, "/me", http.StatusSeeOther)
}

// handleLogout clears the user's session and credential.
func (a *Application) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = a.Sessions.Delete(r.Context(), cookie.Value)
	}
	http.SetCookie(w, a.sessionCookie("", -time.Second))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Application) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if value == "" {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(strings.ToLower(a.Config.Auth.RedirectURI), "https"),
	}
}

//
// API Handlers
//

// handleMe returns the authorized user's profile as JSON.
func (a *Application) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no session in context")
		return
	}

	token, ok := a.freshToken(w, r, sess)
	if !ok {
		return
	}

	user, err := a.Kick.CurrentUser(r.Context(), token)
	if err != nil {
		a.writeUpstreamError(w, err, "failed to fetch user profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleChannelsSearch looks up a channel by slug.
func (a *Application) handleChannelsSearch(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		writeJSONError(w, http.StatusBadRequest, "missing slug parameter")
		return
	}

	channel, err := a.Kick.ChannelBySlug(r.Context(), a.optionalToken(r), slug)
	if err != nil {
		if errors.Is(err, kick.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "channel not found")
			return
		}
		a.writeUpstreamError(w, err, "channel lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

// handleChannelRedirect is a convenience path linking directly to a
// channel by slug.
func (a *Application) handleChannelRedirect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	http.Redirect(w, r, "/channels/search?slug="+slug, http.StatusSeeOther)
}

// handleChannelsSuggest returns lightweight channel suggestions for the
// autocomplete. Tries the search endpoint and falls back to an exact slug
// lookup when search yields nothing.
func (a *Application) handleChannelsSuggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, map[string]any{"data": []kick.Suggestion{}})
		return
	}

	token := a.optionalToken(r)

	channels, err := a.Kick.SearchChannels(r.Context(), token, q)
	if err != nil {
		a.Logger.Printf("channel search for %q: %v", q, err)
		channels = nil
	}

	if len(channels) == 0 && len(q) >= 2 {
		if ch, err := a.Kick.ChannelBySlug(r.Context(), token, q); err == nil {
			channels = []kick.Channel{*ch}
		}
	}

	suggestions := make([]kick.Suggestion, 0, len(channels))
	for _, ch := range channels {
		suggestions = append(suggestions, kick.SuggestionFromChannel(ch))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": suggestions})
}

// sendChatRequest is the body of POST /send-chat.
type sendChatRequest struct {
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

// handleSendChat resolves the target channel's broadcaster and posts a
// chat message on the user's behalf.
func (a *Application) handleSendChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no session in context")
		return
	}

	var req sendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeJSONError(w, http.StatusBadRequest, "message content is required")
		return
	}
	if req.Slug == "" {
		writeJSONError(w, http.StatusBadRequest, "channel slug is required")
		return
	}

	token, ok := a.freshToken(w, r, sess)
	if !ok {
		return
	}

	channel, err := a.Kick.ChannelBySlug(r.Context(), token, req.Slug)
	if err != nil {
		if errors.Is(err, kick.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "channel not found")
			return
		}
		a.writeUpstreamError(w, err, "failed to resolve channel")
		return
	}

	if err := a.Kick.SendMessage(r.Context(), token, channel.BroadcasterUserID, req.Content); err != nil {
		a.writeUpstreamError(w, err, "failed to send message")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Message sent"})
}

// handleLiveChat renders the live chat page.
func (a *Application) handleLiveChat(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	renderLiveChat(w, slug)
}

//
// Response helpers
//

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError maps API client errors onto HTTP responses without
// swallowing the provider's payload.
func (a *Application) writeUpstreamError(w http.ResponseWriter, err error, msg string) {
	var upstreamErr *kick.UpstreamError
	switch {
	case errors.Is(err, kick.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized - please log in again")
	case errors.As(err, &upstreamErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   msg,
			"status":  upstreamErr.StatusCode,
			"details": upstreamErr.Body,
		})
	default:
		a.Logger.Printf("%s: %v", msg, err)
		writeJSONError(w, http.StatusBadGateway, msg)
	}
}
