package marketdata

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ market.PriceSource = (*SimulatedPriceSource)(nil)

// DefaultMaxDeviation is the largest relative move from the baseline (1%)
const DefaultMaxDeviation = 0.01

// SimulatedPriceSource quotes baseline * (1 + U(-dev, dev)) rounded to cents.
// It stands in for a real market data vendor.
type SimulatedPriceSource struct {
	mu           sync.Mutex
	rng          *rand.Rand
	maxDeviation float64
}

// NewSimulatedPriceSource creates a price source. A nil rng is seeded from the clock.
func NewSimulatedPriceSource(rng *rand.Rand) *SimulatedPriceSource {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	return &SimulatedPriceSource{
		rng:          rng,
		maxDeviation: DefaultMaxDeviation,
	}
}

// Quote returns a simulated price for the instrument
func (s *SimulatedPriceSource) Quote(ctx context.Context, inst market.Instrument) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if inst.BasePrice <= 0 {
		return 0, errors.Wrapf(errors.ErrQuoteUnavailable, "no baseline for %s", inst.Symbol)
	}

	s.mu.Lock()
	factor := (s.rng.Float64()*2 - 1) * s.maxDeviation
	s.mu.Unlock()

	price := decimal.NewFromFloat(inst.BasePrice).
		Mul(decimal.NewFromFloat(1 + factor)).
		Round(2)

	return price.InexactFloat64(), nil
}
