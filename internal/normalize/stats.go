// Package normalize turns raw listing text into typed values.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var statNoise = regexp.MustCompile(`[^\d.km]`)

// ParseStatValue converts an engagement counter such as "1.5K" or "2M" into an
// integer. Anything unparseable, including empty text, is 0.
func ParseStatValue(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}
	cleaned := statNoise.ReplaceAllString(text, "")

	multiplier := 1.0
	switch {
	case strings.Contains(cleaned, "k"):
		multiplier = 1_000
		cleaned = strings.ReplaceAll(cleaned, "k", "")
	case strings.Contains(cleaned, "m"):
		multiplier = 1_000_000
		cleaned = strings.ReplaceAll(cleaned, "m", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int(v * multiplier)
}
