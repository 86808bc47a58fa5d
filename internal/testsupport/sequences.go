package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Global counter for generating unique sequential IDs in tests
var testSequence = uint64(time.Now().UnixNano() % 1000000)

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueSymbol generates a unique instrument symbol for tests
// Example: UniqueSymbol("AAPL") -> "AAPL_123456"
func UniqueSymbol(base string) string {
	return fmt.Sprintf("%s_%d", base, NextSequence())
}

// UniqueURL generates a unique article URL
func UniqueURL() string {
	return fmt.Sprintf("https://news.test.local/article/%d", NextSequence())
}
