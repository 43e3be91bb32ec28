package kick

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		io.WriteString(w, `{"data":[{"user_id":42,"name":"streamer","profile_picture":"https://img/pfp.png"}]}`)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	user, err := c.CurrentUser(context.Background(), "token-123")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.UserID)
	assert.Equal(t, "streamer", user.Name)
}

func TestClient_CurrentUser_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	_, err := c.CurrentUser(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_ChannelBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "gmhikaru", r.URL.Query().Get("slug"))
		io.WriteString(w, `{"data":[{"broadcaster_user_id":7,"slug":"gmhikaru","stream":{"is_live":true,"viewer_count":1200},"category":{"id":1,"name":"Chess"}}]}`)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	ch, err := c.ChannelBySlug(context.Background(), "", "gmhikaru")
	require.NoError(t, err)
	assert.Equal(t, int64(7), ch.BroadcasterUserID)
	assert.True(t, ch.Stream.IsLive)
	assert.Equal(t, "Chess", ch.Category.Name)
}

func TestClient_ChannelBySlug_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	_, err := c.ChannelBySlug(context.Background(), "", "no-such-channel")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_SearchChannels(t *testing.T) {
	t.Run("data key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/channels/search", r.URL.Path)
			assert.Equal(t, "gm", r.URL.Query().Get("query"))
			io.WriteString(w, `{"data":[{"slug":"gmhikaru"},{"slug":"gmbotez"}]}`)
		}))
		defer srv.Close()

		c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

		channels, err := c.SearchChannels(context.Background(), "", "gm")
		require.NoError(t, err)
		require.Len(t, channels, 2)
		assert.Equal(t, "gmhikaru", channels[0].Slug)
	})

	t.Run("channels key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"channels":[{"slug":"gmhikaru"}]}`)
		}))
		defer srv.Close()

		c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

		channels, err := c.SearchChannels(context.Background(), "", "gm")
		require.NoError(t, err)
		require.Len(t, channels, 1)
	})
}

func TestClient_SendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user", body["type"])
		assert.Equal(t, "hello chat", body["content"])
		assert.EqualValues(t, 7, body["broadcaster_user_id"])

		io.WriteString(w, `{"data":{"is_sent":true}}`)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	err := c.SendMessage(context.Background(), "token-123", 7, "hello chat")
	assert.NoError(t, err)
}

func TestClient_SendMessage_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"missing chat:write scope"}`)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	err := c.SendMessage(context.Background(), "token-123", 7, "hello")
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusForbidden, upstreamErr.StatusCode)
	assert.Contains(t, upstreamErr.Body, "chat:write")
}

func TestClient_ChatroomID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/gmhikaru", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		io.WriteString(w, `{"chatroom":{"id":12345},"user":{"id":7}}`)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	id, err := c.ChatroomID(context.Background(), "gmhikaru")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), id)
}

func TestClient_ChatroomID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBases(log.New(io.Discard, "", 0), srv.URL, srv.URL)

	_, err := c.ChatroomID(context.Background(), "no-such-channel")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuggestionFromChannel(t *testing.T) {
	ch := Channel{
		Slug:          "gmhikaru",
		BannerPicture: "https://img/banner.png",
		Stream:        Stream{IsLive: true},
		Category:      Category{Name: "Chess"},
	}
	s := SuggestionFromChannel(ch)
	assert.Equal(t, "gmhikaru", s.Slug)
	assert.Equal(t, "https://img/banner.png", s.BannerPicture)
	assert.True(t, s.Stream.IsLive)
	assert.Equal(t, "Chess", s.Category.Name)
}
