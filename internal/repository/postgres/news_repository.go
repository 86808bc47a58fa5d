package postgres

import (
	"context"
	"database/sql"

	"marketpulse/internal/domain/news"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ news.Repository = (*NewsRepository)(nil)

// NewsRepository implements news.Repository using sqlx
type NewsRepository struct {
	db DBTX
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db DBTX) *NewsRepository {
	return &NewsRepository{db: db}
}

// InsertIgnoreDuplicate stores the item unless its URL already exists.
// On insert the generated id is written back to item.
func (r *NewsRepository) InsertIgnoreDuplicate(ctx context.Context, item *news.Item) (bool, error) {
	query := `
		INSERT INTO financial_news (published_at, title, source, url, sentiment_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		item.PublishedAt, item.Title, item.Source, item.URL, item.SentimentScore,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to insert news %s", item.URL)
	}

	item.ID = id
	return true, nil
}

// GetRecent returns the most recently published items
func (r *NewsRepository) GetRecent(ctx context.Context, limit int) ([]news.Item, error) {
	var items []news.Item

	query := `
		SELECT id, published_at, title, source, url, sentiment_score
		FROM financial_news
		ORDER BY published_at DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, errors.Wrap(err, "failed to get recent news")
	}

	return items, nil
}

// CountNews returns the total number of stored news items
func (r *NewsRepository) CountNews(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM financial_news`); err != nil {
		return 0, errors.Wrap(err, "failed to count news")
	}
	return count, nil
}
