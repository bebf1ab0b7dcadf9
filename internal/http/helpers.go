package http

import (
	"strings"
	"time"

	"harambee/internal/core"
)

// Accepted timestamp shapes for form fields, tried in order. The first is
// what <input type="datetime-local"> submits.
var formTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseFormTime parses an optional timestamp field. An empty value yields the
// zero time, which the repositories interpret as "now".
func parseFormTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, true
	}
	for _, layout := range formTimeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatKes renders a whole-shilling amount for display.
func formatKes(amount int64) string {
	return core.FormatKes(amount)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
