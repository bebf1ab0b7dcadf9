// Package mpesa extracts contribution candidates from M-Pesa text: pasted
// confirmation messages and the plain text of Safaricom statement exports.
//
// Both parsers are pure functions over in-memory text. They never return
// errors for malformed input; missing fields are the failure signal.
package mpesa

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// 2026-02-25 13:31:20 (seconds optional)
	isoDateTimeRe = regexp.MustCompile(`(\d{4})[-/](\d{2})[-/](\d{2})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?`)
	// 25/2/26 13:31[:20] [AM|PM]
	slashDateTimeRe = regexp.MustCompile(`(?i)(\d{1,2})/(\d{1,2})/(\d{2,4})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(AM|PM)?`)

	kesPrefixRe = regexp.MustCompile(`(?i)KES\s*`)
)

// collapseWhitespace folds internal whitespace runs into single spaces and
// trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseKesToken converts a matched numeric token (optionally KES-prefixed,
// with thousands separators and decimals) to whole shillings, rounded.
// Returns 0 for anything that is not a finite positive number.
func parseKesToken(tok string) int64 {
	cleaned := kesPrefixRe.ReplaceAllString(tok, "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, ",", ""))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int64(math.Round(v))
}

// localTime builds a local calendar time from parsed components. Out-of-range
// components normalize the same way the source statements roll them over.
func localTime(year, month, day, hour, minute, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.Local)
}

// to24Hour applies AM/PM rules: 12 AM is midnight, 12 PM stays 12,
// any other PM hour gains 12.
func to24Hour(hour int, meridiem string) int {
	switch strings.ToUpper(meridiem) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseSlashDateTime interprets a slashDateTimeRe submatch. Two-digit years
// are 2000-based.
func parseSlashDateTime(m []string) time.Time {
	year := atoi(m[3])
	if year < 100 {
		year += 2000
	}
	hour := to24Hour(atoi(m[4]), m[7])
	return localTime(year, atoi(m[2]), atoi(m[1]), hour, atoi(m[5]), atoi(m[6]))
}

func parseISODateTime(m []string) time.Time {
	return localTime(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]))
}

// firstDateTime finds the earliest timestamp in the text, trying the ISO-like
// family first and the d/m/yy family second. Zero time means none found.
func firstDateTime(text string) time.Time {
	if m := isoDateTimeRe.FindStringSubmatch(text); m != nil {
		return parseISODateTime(m)
	}
	if m := slashDateTimeRe.FindStringSubmatch(text); m != nil {
		return parseSlashDateTime(m)
	}
	return time.Time{}
}
