package news

import "context"

// Repository is the news store contract
type Repository interface {
	// InsertIgnoreDuplicate inserts the item unless its URL is already stored.
	// inserted is false for a duplicate; duplicates are never an error.
	InsertIgnoreDuplicate(ctx context.Context, item *Item) (inserted bool, err error)

	// GetRecent returns the most recently published items, newest first
	GetRecent(ctx context.Context, limit int) ([]Item, error)
}

// FeedFetcher retrieves the current entries of a feed
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*FeedResult, error)
}

// SeenCache remembers URLs already stored so repeated runs can skip the database
type SeenCache interface {
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, url string) error
}
