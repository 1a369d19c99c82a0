package domain

import "time"

// SourceType identifies the platform a piece of content came from.
type SourceType string

const (
	SourceTikTok    SourceType = "tiktok"
	SourceInstagram SourceType = "instagram"
	SourceRSS       SourceType = "rss"
)

// MediaType distinguishes video posts from image posts.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

// RawContent is one candidate item captured from a platform.
// Adapters produce it once and never mutate it afterwards.
type RawContent struct {
	SourceType    SourceType
	SourceURL     string
	SourceProfile string
	RawTitle      string
	RawCaption    string
	MediaURL      string
	MediaType     MediaType
	PublishedAt   time.Time

	Views    int
	Likes    int
	Shares   int
	Comments int

	Hashtags []string
	Mentions []string

	SoundID   string
	SoundName string

	CapturedAt time.Time
}

// Engagement sums the interaction counters (everything except views).
func (c RawContent) Engagement() int {
	return c.Likes + c.Shares + c.Comments
}
