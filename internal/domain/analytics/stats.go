package analytics

import (
	"fmt"
	"math"
	"time"
)

// Summary holds the price statistics of one window
type Summary struct {
	Current    float64
	Highest    float64
	Lowest     float64
	Avg        float64
	Change     float64
	ChangePct  float64
	Volatility float64
	Count      int
}

// Summarize computes window statistics over prices ordered newest first.
// ok is false for an empty sample.
func Summarize(prices []float64) (s Summary, ok bool) {
	if len(prices) == 0 {
		return Summary{}, false
	}

	newest := prices[0]
	oldest := prices[len(prices)-1]

	s = Summary{
		Current: newest,
		Highest: newest,
		Lowest:  newest,
		Count:   len(prices),
	}

	sum := 0.0
	for _, p := range prices {
		sum += p
		if p > s.Highest {
			s.Highest = p
		}
		if p < s.Lowest {
			s.Lowest = p
		}
	}
	s.Avg = sum / float64(len(prices))

	if len(prices) > 1 {
		s.Change = newest - oldest
		if oldest != 0 {
			s.ChangePct = s.Change / oldest * 100
		}

		// Population variance (divide by N)
		varianceSum := 0.0
		for _, p := range prices {
			d := p - s.Avg
			varianceSum += d * d
		}
		s.Volatility = math.Sqrt(varianceSum / float64(len(prices)))
	}

	return s, true
}

// ClassifyTrend buckets a percentage change. Thresholds are checked top-down.
func ClassifyTrend(changePct float64) Trend {
	switch {
	case changePct > 2:
		return TrendStrongUp
	case changePct > 0.5:
		return TrendMildUp
	case changePct > -0.5:
		return TrendFlat
	case changePct > -2:
		return TrendMildDown
	default:
		return TrendStrongDown
	}
}

// WindowLabel renders a lookback duration for reports, e.g. "past 24 hours"
func WindowLabel(lookback time.Duration) string {
	switch {
	case lookback < time.Minute || lookback%time.Minute != 0:
		return "past " + lookback.String()
	case lookback == time.Minute:
		return "past minute"
	case lookback%(24*time.Hour) == 0 && lookback >= 48*time.Hour:
		return fmt.Sprintf("past %d days", int(lookback/(24*time.Hour)))
	case lookback == time.Hour:
		return "past hour"
	case lookback%time.Hour == 0:
		return fmt.Sprintf("past %d hours", int(lookback/time.Hour))
	default:
		return fmt.Sprintf("past %d minutes", int(lookback/time.Minute))
	}
}
