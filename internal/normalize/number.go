package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPrefix matches the leading decimal number of a cell, so that
// values such as "45.2%" or "12 sec" keep their magnitude.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber coerces a metric cell to a non-negative float.
// Thousands-separator commas are removed first. ok is false when a
// non-empty cell had to be coerced to 0 because it was not a number,
// was negative, or was not finite.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, true
	}

	m := numericPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// ToNumber is ParseNumber without the coercion flag.
func ToNumber(s string) float64 {
	v, _ := ParseNumber(s)
	return v
}

// Engagement sums the interaction counts of a post.
func Engagement(likes, comments, shares, saves float64) float64 {
	return likes + comments + shares + saves
}

// EngagementRate is engagement per reached account, 0 when reach is 0.
func EngagementRate(engagement, reach float64) float64 {
	if reach > 0 {
		return engagement / reach
	}
	return 0
}
