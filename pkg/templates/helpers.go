package templates

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// Funcs returns the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":    Money,
		"signed":   SignedMoney,
		"pct":      SignedPercent,
		"num":      Number,
		"count":    func(n int) string { return humanize.Comma(int64(n)) },
		"utc":      UTCStamp,
		"safe":     SafeText,
		"ordinal":  humanize.Ordinal,
		"add":      func(a, b int) int { return a + b },
		"truncate": Truncate,
	}
}

// Money formats a price with thousands separators and two decimals: 42,500.00
func Money(v float64) string {
	s := humanize.CommafWithDigits(v, 2)
	// CommafWithDigits trims trailing zeros
	if i := strings.IndexByte(s, '.'); i < 0 {
		s += ".00"
	} else if len(s)-i == 2 {
		s += "0"
	}
	return s
}

// SignedMoney is Money with an explicit sign: +1,234.50 / -3.00
func SignedMoney(v float64) string {
	if v >= 0 {
		return "+" + Money(v)
	}
	return "-" + Money(-v)
}

// SignedPercent formats a percentage with sign and two decimals: -0.99%
func SignedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Number formats a plain float with two decimals
func Number(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// UTCStamp formats t as "2006-01-02 15:04:05 UTC"
func UTCStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

// SafeText removes invalid UTF-8 and collapses whitespace
func SafeText(text string) string {
	return strings.Join(strings.Fields(strings.ToValidUTF8(text, "")), " ")
}

// Truncate shortens text to at most n runes, appending an ellipsis when cut
func Truncate(n int, text string) string {
	r := []rune(text)
	if n <= 0 || len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
