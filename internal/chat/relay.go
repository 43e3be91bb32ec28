package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"kickdemo-go/internal/kick"
	"kickdemo-go/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the browser.
	writeWait = 10 * time.Second

	// Send pings to the browser with this period.
	pingPeriod = 25 * time.Second

	// Messages buffered per relay before dropping.
	relayBufferSize = 64
)

// ChatroomResolver resolves a channel slug to a chatroom ID.
type ChatroomResolver interface {
	ChatroomID(ctx context.Context, slug string) (int64, error)
}

// Source delivers chat messages for a chatroom.
type Source interface {
	Subscribe(ctx context.Context, chatroomID int64, handler func(Message)) error
}

// Relay bridges the hosted chat feed to a browser WebSocket. One relay
// connection serves one browser watching one chatroom.
type Relay struct {
	resolver ChatroomResolver
	source   Source
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewRelay creates a Relay.
func NewRelay(resolver ChatroomResolver, source Source, logger *log.Logger) *Relay {
	return &Relay{
		resolver: resolver,
		source:   source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// HandleSocket upgrades the request and streams chat messages for the
// channel named by the slug query parameter until either side closes.
func (rl *Relay) HandleSocket(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		http.Error(w, "missing slug parameter", http.StatusBadRequest)
		return
	}

	chatroomID, err := rl.resolver.ChatroomID(r.Context(), slug)
	if err != nil {
		if errors.Is(err, kick.ErrNotFound) {
			http.Error(w, "channel not found", http.StatusNotFound)
			return
		}
		rl.logger.Printf("resolving chatroom for %q: %v", slug, err)
		http.Error(w, "failed to resolve chatroom", http.StatusBadGateway)
		return
	}

	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rl.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	metrics.ActiveRelays.Inc()
	defer metrics.ActiveRelays.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	msgs := make(chan Message, relayBufferSize)
	subErr := make(chan error, 1)
	go func() {
		subErr <- rl.source.Subscribe(ctx, chatroomID, func(m Message) {
			select {
			case msgs <- m:
			default:
				// Browser is not keeping up; drop rather than block the feed.
			}
		})
	}()

	// The browser sends nothing we care about; reads only detect close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case m := <-msgs:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				return
			}
			metrics.ChatMessagesRelayed.Inc()
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case err := <-subErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				rl.logger.Printf("chat feed for %q ended: %v", slug, err)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}
