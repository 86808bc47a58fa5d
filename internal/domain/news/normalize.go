package news

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultMaxItemsPerFeed caps how many entries one fetch contributes
const DefaultMaxItemsPerFeed = 5

// publishedLayouts are tried in order on the raw publish string
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// ParsePublished returns the entry's publish time in UTC, or false when
// neither the feed parser nor any known layout understood it.
func ParsePublished(e FeedEntry) (time.Time, bool) {
	if e.PublishedAt != nil && !e.PublishedAt.IsZero() {
		return e.PublishedAt.UTC(), true
	}

	raw := strings.TrimSpace(e.Published)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SelectLatest orders entries newest first and keeps at most limit.
// Undated entries sort after dated ones and keep their feed order.
func SelectLatest(entries []FeedEntry, limit int) []FeedEntry {
	type dated struct {
		entry FeedEntry
		at    time.Time
		ok    bool
	}

	rows := make([]dated, len(entries))
	for i, e := range entries {
		at, ok := ParsePublished(e)
		rows[i] = dated{entry: e, at: at, ok: ok}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		if !rows[i].ok {
			return false
		}
		return rows[i].at.After(rows[j].at)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]FeedEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out
}

// ResolveSource picks the display label: configured label, then the feed's
// own title, then the feed host.
func ResolveSource(feed Feed, feedTitle string) string {
	if label := strings.TrimSpace(feed.Label); label != "" {
		return label
	}
	if title := strings.TrimSpace(feedTitle); title != "" {
		return title
	}
	if u, err := url.Parse(feed.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return feed.URL
}

// NewItem normalizes a feed entry into a storable item.
// now supplies the publish time when the entry has none.
func NewItem(e FeedEntry, source string, now time.Time) Item {
	publishedAt, ok := ParsePublished(e)
	if !ok {
		publishedAt = now.UTC()
	}

	return Item{
		PublishedAt:    publishedAt,
		Title:          cleanText(e.Title),
		Source:         source,
		URL:            strings.TrimSpace(e.Link),
		SentimentScore: NeutralSentiment,
	}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(strings.ToValidUTF8(s, "")), " ")
}
