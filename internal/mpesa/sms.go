package mpesa

import (
	"regexp"
	"time"
)

// SMS holds the fields recovered from a pasted M-Pesa confirmation message.
// Every field is optional: zero values mark what could not be extracted, and
// callers decide whether a partial result is usable.
type SMS struct {
	Ref           string
	Name          string
	Amount        int64
	ContributedAt time.Time
}

var (
	receivedPhraseRe = regexp.MustCompile(`(?i)you have received`)
	smsRefRe         = regexp.MustCompile(`(?i)^([A-Z0-9]{8,15})\b`)
	smsAmountRe      = regexp.MustCompile(`(?i)received\s+Ksh\.?\s*([\d,]+(?:\.\d+)?)`)
	smsNameRe        = regexp.MustCompile(`(?i)from\s+(.+?)\s+on\s+\d{1,2}/\d{1,2}/\d{2,4}`)
	smsDateRe        = regexp.MustCompile(`(?i)on\s+(\d{1,2})/(\d{1,2})/(\d{2,4})\s+at\s+(\d{1,2}):(\d{2})\s*(AM|PM)?`)
	smsPhoneRe       = regexp.MustCompile(`\b(\+?254|0)\d{8,9}\b`)
	maskRe           = regexp.MustCompile(`\*+`)
)

// ParseReceivedSMS classifies a single confirmation message and, when it
// reports an incoming payment, extracts reference, sender name, amount and
// timestamp. Messages without the "you have received" phrase yield an empty
// result; the parser does not recognize sent/withdrawn/paid messages.
func ParseReceivedSMS(text string) SMS {
	normalized := collapseWhitespace(text)
	if normalized == "" || !receivedPhraseRe.MatchString(normalized) {
		return SMS{}
	}

	var out SMS
	if m := smsRefRe.FindStringSubmatch(normalized); m != nil {
		out.Ref = m[1]
	}
	if m := smsAmountRe.FindStringSubmatch(normalized); m != nil {
		out.Amount = parseKesToken(m[1])
	}
	out.Name = extractSMSName(normalized)
	out.ContributedAt = extractSMSTime(normalized)
	return out
}

// extractSMSName captures the span between "from" and the "on d/m/yy" date,
// then strips embedded phone numbers and masking asterisks.
// Example: "from EMMA WANJIRU 0723111222 on 5/3/26" -> "EMMA WANJIRU".
func extractSMSName(text string) string {
	m := smsNameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	candidate := smsPhoneRe.ReplaceAllString(m[1], "")
	candidate = maskRe.ReplaceAllString(candidate, "")
	return collapseWhitespace(candidate)
}

// extractSMSTime parses the "on D/M/YY at H:MM [AM|PM]" timestamp.
func extractSMSTime(text string) time.Time {
	m := smsDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}
	year := atoi(m[3])
	if year < 100 {
		year += 2000
	}
	hour := to24Hour(atoi(m[4]), m[6])
	return localTime(year, atoi(m[2]), atoi(m[1]), hour, atoi(m[5]), 0)
}
