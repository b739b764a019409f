package normalize

import (
	"strings"
	"time"
)

const listingDateLayout = "Jan 2 2006 3:04 PM"

// ParseDateToISO converts listing timestamps like "Jan 5, 2024 · 3:45 PM UTC" to
// "2024-01-05T15:45:00Z". The text is taken as UTC already. Input that does not
// parse is returned unchanged; empty input yields "".
func ParseDateToISO(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(text, "· ", "")
	cleaned = strings.ReplaceAll(cleaned, " UTC", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	parts := strings.Fields(cleaned)
	if len(parts) < 5 {
		return text
	}
	t, err := time.Parse(listingDateLayout, strings.Join(parts[:5], " "))
	if err != nil {
		return text
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
