package analytics

import "time"

// Trend is the discrete classification of the window's percentage change
type Trend string

const (
	TrendStrongUp   Trend = "strong_up"
	TrendMildUp     Trend = "mild_up"
	TrendFlat       Trend = "flat"
	TrendMildDown   Trend = "mild_down"
	TrendStrongDown Trend = "strong_down"
)

// Label returns the human readable form used in reports
func (t Trend) Label() string {
	switch t {
	case TrendStrongUp:
		return "Strong uptrend"
	case TrendMildUp:
		return "Mild uptrend"
	case TrendFlat:
		return "Consolidating"
	case TrendMildDown:
		return "Mild downtrend"
	case TrendStrongDown:
		return "Strong downtrend"
	default:
		return string(t)
	}
}

// Headline is a news item attached to a market context
type Headline struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// MarketContext is the statistical summary handed to report generation.
// It is built per request and never mutated afterwards.
type MarketContext struct {
	Symbol       string     `json:"symbol"`
	CurrentPrice float64    `json:"current_price"`
	Highest      float64    `json:"highest"`
	Lowest       float64    `json:"lowest"`
	AvgPrice     float64    `json:"avg_price"`
	Change       float64    `json:"price_change"`
	ChangePct    float64    `json:"price_change_pct"`
	Volatility   float64    `json:"volatility"`
	Trend        Trend      `json:"trend"`
	DataPoints   int        `json:"data_points"`
	TimeRange    string     `json:"time_range"`
	RecentNews   []Headline `json:"recent_news"`
	NewestTickAt time.Time  `json:"newest_tick_at"`
	OldestTickAt time.Time  `json:"oldest_tick_at"`
}
