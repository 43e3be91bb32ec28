package kick

// User is the authorized user as returned by the public v1 users endpoint.
type User struct {
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Category is the category a channel is streaming under.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Stream is the live-stream state embedded in a channel payload.
type Stream struct {
	IsLive      bool   `json:"is_live"`
	ViewerCount int    `json:"viewer_count"`
	Language    string `json:"language,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Channel is a channel as returned by the public v1 channels endpoint.
type Channel struct {
	BroadcasterUserID  int64    `json:"broadcaster_user_id"`
	Slug               string   `json:"slug"`
	ChannelDescription string   `json:"channel_description,omitempty"`
	BannerPicture      string   `json:"banner_picture,omitempty"`
	StreamTitle        string   `json:"stream_title,omitempty"`
	Stream             Stream   `json:"stream"`
	Category           Category `json:"category"`
}

// Suggestion is the lightweight channel shape served to the autocomplete.
type Suggestion struct {
	Slug          string   `json:"slug"`
	BannerPicture string   `json:"banner_picture"`
	Stream        Stream   `json:"stream"`
	Category      Category `json:"category"`
}

// SuggestionFromChannel normalizes a channel into the autocomplete shape.
func SuggestionFromChannel(ch Channel) Suggestion {
	return Suggestion{
		Slug:          ch.Slug,
		BannerPicture: ch.BannerPicture,
		Stream:        ch.Stream,
		Category:      ch.Category,
	}
}
