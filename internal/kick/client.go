package kick

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"kickdemo-go/internal/metrics"
)

const (
	defaultAPIBase  = "https://api.kick.com/public/v1"
	defaultSiteBase = "https://kick.com/api/v2"

	requestTimeout = 20 * time.Second

	// The site API rejects requests without browser-like headers.
	siteUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
)

var (
	// ErrUnauthorized is returned when the API rejects the bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a channel lookup matches nothing.
	ErrNotFound = errors.New("not found")
)

// UpstreamError reports any other non-success response from the API. The
// raw body is kept so handlers can surface it instead of swallowing it.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Client is a thin bearer-authenticated wrapper over the Kick public v1
// API plus the site API chatroom resolver. No retries, no caching.
type Client struct {
	httpClient *http.Client
	apiBase    string
	siteBase   string
	logger     *log.Logger
}

// NewClient creates a Client against the production API endpoints.
func NewClient(logger *log.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiBase:    defaultAPIBase,
		siteBase:   defaultSiteBase,
		logger:     logger,
	}
}

// NewClientWithBases creates a Client against custom endpoints. Used by tests.
func NewClientWithBases(logger *log.Logger, apiBase, siteBase string) *Client {
	c := NewClient(logger)
	c.apiBase = apiBase
	c.siteBase = siteBase
	return c
}

// envelope is the {"data": ...} wrapper the public API uses.
type envelope struct {
	Data     []Channel `json:"data"`
	Channels []Channel `json:"channels"`
}

// CurrentUser fetches the profile of the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	body, err := c.get(ctx, "users", c.apiBase+"/users", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []User `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding user payload: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, ErrNotFound
	}
	return &payload.Data[0], nil
}

// ChannelBySlug looks up a single channel by its slug.
func (c *Client) ChannelBySlug(ctx context.Context, accessToken, slug string) (*Channel, error) {
	body, err := c.get(ctx, "channels", c.apiBase+"/channels", accessToken, url.Values{"slug": {slug}})
	if err != nil {
		return nil, err
	}

	var payload envelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding channel payload: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, ErrNotFound
	}
	return &payload.Data[0], nil
}

// SearchChannels queries the public search endpoint. The payload carries
// results under either "data" or "channels" depending on API version.
func (c *Client) SearchChannels(ctx context.Context, accessToken, query string) ([]Channel, error) {
	body, err := c.get(ctx, "channels_search", c.apiBase+"/channels/search", accessToken, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}

	var payload envelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding search payload: %w", err)
	}
	if len(payload.Data) > 0 {
		return payload.Data, nil
	}
	return payload.Channels, nil
}

// SendMessage posts a chat message to a broadcaster's chatroom. Requires
// the chat:write scope.
func (c *Client) SendMessage(ctx context.Context, accessToken string, broadcasterUserID int64, content string) error {
	reqBody, err := json.Marshal(map[string]any{
		"type":                "user",
		"content":             content,
		"broadcaster_user_id": broadcasterUserID,
	})
	if err != nil {
		return fmt.Errorf("encoding chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	_, err = c.do(req, "chat")
	return err
}

// ChatroomID resolves a channel slug to its chatroom ID via the site API.
// The site API is unauthenticated but wants browser-like headers.
func (c *Client) ChatroomID(ctx context.Context, slug string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.siteBase+"/channels/"+url.PathEscape(slug), nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", siteUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://kick.com/")

	body, err := c.do(req, "chatroom_resolve")
	if err != nil {
		return 0, err
	}

	var payload struct {
		Chatroom struct {
			ID int64 `json:"id"`
		} `json:"chatroom"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decoding chatroom payload: %w", err)
	}
	if payload.Chatroom.ID == 0 {
		return 0, fmt.Errorf("unexpected site API response for %q", slug)
	}
	return payload.Chatroom.ID, nil
}

// get performs a bearer-authenticated GET. An empty accessToken sends the
// request unauthenticated; some endpoints allow public access.
func (c *Client) get(ctx context.Context, endpoint, rawURL, accessToken string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req, endpoint)
}

// do executes the request and maps error statuses onto the taxonomy.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Printf("%s returned %d: %s", endpoint, resp.StatusCode, body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
