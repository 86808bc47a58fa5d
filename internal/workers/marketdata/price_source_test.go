package marketdata

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

func TestSimulatedPriceSource_WithinOnePercent(t *testing.T) {
	src := NewSimulatedPriceSource(rand.New(rand.NewPCG(1, 2)))
	inst := market.Instrument{Symbol: "TEST", BasePrice: 100}

	for i := 0; i < 1000; i++ {
		price, err := src.Quote(context.Background(), inst)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, price, 99.0)
		assert.LessOrEqual(t, price, 101.0)

		// two decimal places
		assert.InDelta(t, math.Round(price*100)/100, price, 1e-9)
	}
}

func TestSimulatedPriceSource_Deterministic(t *testing.T) {
	a := NewSimulatedPriceSource(rand.New(rand.NewPCG(7, 7)))
	b := NewSimulatedPriceSource(rand.New(rand.NewPCG(7, 7)))
	inst := market.Instrument{Symbol: "AAPL", BasePrice: 185.5}

	for i := 0; i < 10; i++ {
		pa, _ := a.Quote(context.Background(), inst)
		pb, _ := b.Quote(context.Background(), inst)
		assert.Equal(t, pa, pb)
	}
}

func TestSimulatedPriceSource_RejectsMissingBaseline(t *testing.T) {
	src := NewSimulatedPriceSource(nil)

	_, err := src.Quote(context.Background(), market.Instrument{Symbol: "X"})
	assert.True(t, errors.Is(err, errors.ErrQuoteUnavailable))
}
