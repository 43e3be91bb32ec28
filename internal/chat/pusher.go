// Package chat consumes Kick's hosted Pusher feed and relays live chat
// to the browser. The feed is consumed, not reimplemented: this is a
// protocol-7 Pusher client that only knows how to subscribe and read.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"
)

const (
	// Kick's public Pusher application key and cluster.
	DefaultAppKey  = "32cbd69e4b950bf97679"
	DefaultCluster = "us2"

	chatMessageEvent = `App\Events\ChatMessageEvent`

	eventConnected             = "pusher:connection_established"
	eventSubscribe             = "pusher:subscribe"
	eventPing                  = "pusher:ping"
	eventPong                  = "pusher:pong"
	eventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
)

// Message is one chat line as delivered to the browser.
type Message struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ChannelName returns the Pusher channel for a chatroom.
func ChannelName(chatroomID int64) string {
	return fmt.Sprintf("chatrooms.%d.v2", chatroomID)
}

// frame is a Pusher protocol frame. Incoming data is a JSON-encoded
// string that itself contains JSON.
type frame struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
	Channel string          `json:"channel,omitempty"`
}

type subscribeData struct {
	Auth    string `json:"auth"`
	Channel string `json:"channel"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Subscriber reads chat messages for one chatroom from the hosted feed.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
}

// NewSubscriber creates a Subscriber against Kick's production cluster.
func NewSubscriber(logger *log.Logger) *Subscriber {
	return &Subscriber{
		url: fmt.Sprintf("wss://ws-%s.pusher.com/app/%s?protocol=7&client=kickdemo-go&version=1.0&flash=false",
			DefaultCluster, DefaultAppKey),
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// NewSubscriberWithURL creates a Subscriber against a custom feed URL.
// Used by tests.
func NewSubscriberWithURL(logger *log.Logger, url string) *Subscriber {
	s := NewSubscriber(logger)
	s.url = url
	return s
}

// Subscribe connects to the feed, subscribes to the chatroom's channel,
// and invokes handler for every chat message until ctx is canceled or the
// connection drops.
func (s *Subscriber) Subscribe(ctx context.Context, chatroomID int64, handler func(Message)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dialing chat feed: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	channelName := ChannelName(chatroomID)
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading chat feed: %w", err)
		}

		switch f.Event {
		case eventConnected:
			sub := outFrame{Event: eventSubscribe, Data: subscribeData{Channel: channelName}}
			if err := conn.WriteJSON(sub); err != nil {
				return fmt.Errorf("subscribing to %s: %w", channelName, err)
			}
		case eventSubscriptionSucceeded:
			s.logger.Printf("subscribed to %s", channelName)
		case eventPing:
			if err := conn.WriteJSON(outFrame{Event: eventPong, Data: "{}"}); err != nil {
				return fmt.Errorf("answering ping: %w", err)
			}
		case chatMessageEvent:
			msg, err := decodeChatMessage(f.Data)
			if err != nil {
				s.logger.Printf("skipping malformed chat event: %v", err)
				continue
			}
			handler(msg)
		}
	}
}

// decodeChatMessage unwraps the double-encoded event payload.
func decodeChatMessage(data json.RawMessage) (Message, error) {
	var inner string
	if err := json.Unmarshal(data, &inner); err != nil {
		return Message{}, fmt.Errorf("unwrapping event data: %w", err)
	}

	var payload struct {
		ID        string `json:"id"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
		Sender    struct {
			Username string `json:"username"`
		} `json:"sender"`
	}
	if err := json.Unmarshal([]byte(inner), &payload); err != nil {
		return Message{}, fmt.Errorf("decoding chat message: %w", err)
	}

	return Message{
		ID:        payload.ID,
		Username:  payload.Sender.Username,
		Content:   payload.Content,
		CreatedAt: payload.CreatedAt,
	}, nil
}
