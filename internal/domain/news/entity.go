package news

import "time"

// NeutralSentiment is stored until a sentiment model is wired in
const NeutralSentiment = 0.0

// Item is a stored headline; URL is the unique key
type Item struct {
	ID             int64     `db:"id" json:"id"`
	PublishedAt    time.Time `db:"published_at" json:"published_at"`
	Title          string    `db:"title" json:"title"`
	Source         string    `db:"source" json:"source"`
	URL            string    `db:"url" json:"url"`
	SentimentScore float64   `db:"sentiment_score" json:"sentiment_score"`
}

// Feed is one configured news source
type Feed struct {
	URL   string
	Label string // optional; falls back to the feed's own title
}

// FeedEntry is a raw entry as returned by a feed fetcher, before normalization
type FeedEntry struct {
	Title string
	Link  string

	// Published is the raw publish string from the feed
	Published string
	// PublishedAt is set when the parser already understood Published
	PublishedAt *time.Time
}

// FeedResult is what a fetch of one feed yields
type FeedResult struct {
	Title   string
	Entries []FeedEntry
}
