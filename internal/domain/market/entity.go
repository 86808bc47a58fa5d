package market

import "time"

// Tick is one timestamped price observation for one instrument.
// Ticks are append-only; duplicate (symbol, time) pairs are legal.
type Tick struct {
	Time   time.Time `db:"time" ch:"time" json:"time"`
	Symbol string    `db:"symbol" ch:"symbol" json:"symbol"`
	Price  float64   `db:"price" ch:"price" json:"price"`
}

// Instrument is a tracked symbol with its baseline reference price
type Instrument struct {
	Symbol    string
	BasePrice float64
}

// TickBatch is the set of observations produced by one ingestion run.
// Every tick in a batch shares the same sampling instant.
type TickBatch struct {
	SampledAt time.Time `json:"sampled_at"`
	Ticks     []Tick    `json:"ticks"`
}
