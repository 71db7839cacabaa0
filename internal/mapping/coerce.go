package mapping

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CoerceNumber keeps digits, dots and minus signs and parses what is left.
// Empty or unparsable input yields 0; fractions are truncated.
func CoerceNumber(s string) int {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// CoerceCount is CoerceNumber clamped at zero, for counts and amounts
func CoerceCount(s string) int {
	if n := CoerceNumber(s); n > 0 {
		return n
	}
	return 0
}

// SplitList splits on comma, semicolon or pipe, trims tokens and drops empty ones.
// The result is never nil.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CoerceEnum returns def for an empty value, the canonical lower-case member for a
// known value, and the trimmed input unchanged otherwise.
func CoerceEnum(s, def string, known ...string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	for _, k := range known {
		if strings.EqualFold(s, k) {
			return k
		}
	}
	return s
}

var monthLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006/01",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"January, 2006",
}

// NormalizeMonth rewrites recognizable month values as YYYY-MM and keeps anything else verbatim
func NormalizeMonth(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01")
		}
	}
	return s
}
