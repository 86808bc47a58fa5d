package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "thousands", input: 42500, expected: "42,500.00"},
		{name: "one decimal", input: 185.5, expected: "185.50"},
		{name: "two decimals", input: 1234.56, expected: "1,234.56"},
		{name: "rounds", input: 1.0849, expected: "1.08"},
		{name: "zero", input: 0, expected: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Money(tt.input))
		})
	}
}

func TestSignedHelpers(t *testing.T) {
	assert.Equal(t, "-1.00", SignedMoney(-1))
	assert.Equal(t, "+1,234.50", SignedMoney(1234.5))
	assert.Equal(t, "-0.99%", SignedPercent(-0.990099))
	assert.Equal(t, "+2.50%", SignedPercent(2.5))
}

func TestUTCStamp(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 5, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-03-04 11:00:05 UTC", UTCStamp(at))
}

func TestSafeTextAndTruncate(t *testing.T) {
	assert.Equal(t, "Fed holds rates", SafeText("Fed\n holds \xffrates"))
	assert.Equal(t, "abc…", Truncate(3, "abcdef"))
	assert.Equal(t, "abc", Truncate(5, "abc"))
}
