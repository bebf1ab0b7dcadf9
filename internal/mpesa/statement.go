package mpesa

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Candidate is a provisionally extracted transaction, not yet persisted.
// ContributedAt and Ref are zero-valued when the block did not yield them;
// Name and Amount are always set, a block missing either is dropped.
type Candidate struct {
	Name          string
	Amount        int64
	ContributedAt time.Time
	Ref           string
	RawSnippet    string
}

// AmountResolver picks the paid-in amount out of a joined block string.
// phraseIdx is the byte offset of the trigger phrase within the block, for
// strategies that need to disambiguate multiple numeric tokens. Returning 0
// discards the block.
type AmountResolver func(block string, phraseIdx int) int64

// StatementFormat describes one statement provider's layout heuristics. The
// line window, trigger phrase and word tables are deliberately data, not
// code, so format drift can be corrected without touching block detection.
type StatementFormat struct {
	// TriggerPhrase opens a transaction block when a line contains it.
	TriggerPhrase string
	// BlockWindow is the maximum number of physical lines in one block.
	BlockWindow int
	// Terminator closes a block early (inclusive) when a line contains it.
	Terminator string
	// NameStopWords truncate the sender name at the earliest occurrence.
	NameStopWords []string
	// RefDenylist excludes status words from receipt-reference detection.
	RefDenylist []string
	// MinLooseAmount is the smallest value the fallback amount scan accepts.
	MinLooseAmount int64
	// ResolveAmount is the pluggable column-selection strategy.
	ResolveAmount AmountResolver
}

// SafaricomFormat returns the layout heuristics for Safaricom M-Pesa
// statement exports: a row is "receipt, completion time, details, status,
// paid in, withdrawn, balance", wrapped across up to six physical lines and
// closed by a COMPLETED status cell.
func SafaricomFormat() StatementFormat {
	f := StatementFormat{
		TriggerPhrase: "Funds received from",
		BlockWindow:   6,
		Terminator:    "COMPLETED",
		NameStopWords: []string{
			"Completed", "Successful", "Confirmed", "Transaction",
			"Balance", "Paid In", "Withdrawn", "Status", "KES",
		},
		RefDenylist:    []string{"COMPLETED", "SUCCESSFUL", "CONFIRMED", "RECEIVED"},
		MinLooseAmount: 10,
	}
	// Known fragility: the first number after the status marker is assumed to
	// be the paid-in column. Statement variants that print withdrawn or
	// balance first would be mis-read; swap in a different resolver for those.
	f.ResolveAmount = func(block string, phraseIdx int) int64 {
		if amt := amountAfterMarker(block, f.Terminator); amt > 0 {
			return amt
		}
		return looseAmountNearPhrase(block, phraseIdx, f.MinLooseAmount)
	}
	return f
}

// ParseStatement scans the full text of a Safaricom statement export and
// returns one candidate per "Funds received from" block, deduplicated and
// ordered by timestamp (candidates without one sort last).
func ParseStatement(text string) []Candidate {
	return SafaricomFormat().Parse(text)
}

const blockJoiner = " | "

var (
	// Numeric token shapes: optional KES prefix, thousands separators. The
	// marker tier tolerates one or two decimals; the loose tier only takes
	// exactly two, so a stray ".5" stays out of the token and the whole part
	// is used as-is.
	amountTokenRe      = regexp.MustCompile(`(?i)(?:KES\s*)?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`)
	looseAmountTokenRe = regexp.MustCompile(`(?i)(?:KES\s*)?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?`)
	refTokenRe         = regexp.MustCompile(`\b[A-Z0-9]{8,15}\b`)

	// Masked sender phone prefix, e.g. "254713***641 - " or "0724***037 - ".
	phonePrefixRe = regexp.MustCompile(`^\s*\+?\d[\d*\s-]{5,30}\s*-\s*`)

	leadPunctRe      = regexp.MustCompile(`^[\-:]+`)
	trailingAmountRe = regexp.MustCompile(`(?i)(?:KES\s*)?\d[\d,.\s]*$`)
	danglingDashRe   = regexp.MustCompile(`\s+-\s*$`)
)

// Parse runs the block scan with this format's heuristics. It never fails on
// malformed or garbled text; unusable regions simply produce no candidates.
func (f StatementFormat) Parse(text string) []Candidate {
	triggerRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(f.TriggerPhrase))
	nameStartRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(f.TriggerPhrase) + `\s+`)
	terminatorRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(f.Terminator))
	completedTailRe := regexp.MustCompile(`(?is)\b` + regexp.QuoteMeta(f.Terminator) + `.*$`)
	stopRes := make([]*regexp.Regexp, len(f.NameStopWords))
	for i, w := range f.NameStopWords {
		stopRes[i] = regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`) + `\b`)
	}
	denied := make(map[string]struct{}, len(f.RefDenylist))
	for _, w := range f.RefDenylist {
		denied[w] = struct{}{}
	}

	lines := normalizeLines(text)

	var results []Candidate
	for i := range lines {
		if !triggerRe.MatchString(lines[i]) {
			continue
		}

		blockLines := []string{lines[i]}
		for j := i + 1; j < len(lines) && len(blockLines) < f.BlockWindow; j++ {
			blockLines = append(blockLines, lines[j])
			if terminatorRe.MatchString(lines[j]) {
				break
			}
		}
		block := strings.Join(blockLines, blockJoiner)

		phraseIdx := 0
		if loc := triggerRe.FindStringIndex(block); loc != nil {
			phraseIdx = loc[0]
		}

		name := extractBlockName(block, nameStartRe, completedTailRe, stopRes)
		amount := f.ResolveAmount(block, phraseIdx)
		if name == "" || amount <= 0 {
			continue
		}

		results = append(results, Candidate{
			Name:          name,
			Amount:        amount,
			ContributedAt: firstDateTime(block),
			Ref:           extractReceiptRef(block, denied),
			RawSnippet:    block,
		})
		// The scan keeps walking line by line; a block re-triggered from one
		// of its own lines only yields a duplicate that dedupe collapses.
	}

	results = dedupeCandidates(results)
	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := results[i].ContributedAt, results[j].ContributedAt
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})
	return results
}

// normalizeLines splits line-break-agnostically and whitespace-collapses
// every non-empty line.
func normalizeLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if collapsed := collapseWhitespace(line); collapsed != "" {
			lines = append(lines, collapsed)
		}
	}
	return lines
}

// extractBlockName takes the text after the trigger phrase, strips the masked
// phone-number prefix, truncates at the earliest stop word, and scrubs the
// leftover punctuation and numeric remnants.
func extractBlockName(block string, nameStartRe, completedTailRe *regexp.Regexp, stopRes []*regexp.Regexp) string {
	loc := nameStartRe.FindStringIndex(block)
	if loc == nil {
		return ""
	}
	tail := strings.ReplaceAll(block[loc[1]:], "|", " ")
	tail = phonePrefixRe.ReplaceAllString(tail, "")

	end := len(tail)
	for _, re := range stopRes {
		if idx := re.FindStringIndex(tail); idx != nil && idx[0] < end {
			end = idx[0]
		}
	}

	candidate := collapseWhitespace(tail[:end])
	if candidate == "" {
		return ""
	}
	candidate = leadPunctRe.ReplaceAllString(candidate, "")
	candidate = completedTailRe.ReplaceAllString(candidate, "")
	candidate = trailingAmountRe.ReplaceAllString(candidate, "")
	candidate = danglingDashRe.ReplaceAllString(candidate, "")
	return collapseWhitespace(candidate)
}

// amountAfterMarker returns the first numeric token after the status marker.
// For Safaricom rows that is the paid-in column, ahead of withdrawn and
// balance.
func amountAfterMarker(block, marker string) int64 {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(marker))
	loc := re.FindStringIndex(block)
	if loc == nil {
		return 0
	}
	tail := strings.ReplaceAll(block[loc[1]:], "|", " ")
	for _, tok := range amountTokenRe.FindAllString(tail, -1) {
		if amt := parseKesToken(tok); amt > 0 {
			return amt
		}
	}
	return 0
}

// looseAmountNearPhrase scans the whole block for amount-shaped tokens,
// skipping anything glued to a date or time separator, and prefers the first
// qualifying token at or after the trigger phrase.
func looseAmountNearPhrase(block string, phraseIdx int, minAmount int64) int64 {
	type hit struct {
		amount int64
		index  int
	}
	var hits []hit
	for _, loc := range looseAmountTokenRe.FindAllStringIndex(block, -1) {
		start, end := loc[0], loc[1]
		if start > 0 {
			if b := block[start-1]; b == '/' || b == ':' {
				continue
			}
		}
		if end < len(block) {
			if a := block[end]; a == '/' || a == ':' {
				continue
			}
		}
		amt := parseKesToken(block[start:end])
		if amt <= 0 || amt < minAmount {
			continue
		}
		hits = append(hits, hit{amount: amt, index: start})
	}
	if len(hits) == 0 {
		return 0
	}
	for _, h := range hits {
		if h.index >= phraseIdx {
			return h.amount
		}
	}
	return hits[0].amount
}

// extractReceiptRef returns the first uppercase alphanumeric token of receipt
// length that is not a known status word.
func extractReceiptRef(block string, denied map[string]struct{}) string {
	for _, tok := range refTokenRe.FindAllString(block, -1) {
		if _, banned := denied[tok]; !banned {
			return tok
		}
	}
	return ""
}

// dedupeCandidates collapses repeats by (ref, lowercased name, amount,
// timestamp), keeping the first occurrence in scan order.
func dedupeCandidates(in []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, c := range in {
		ts := ""
		if !c.ContributedAt.IsZero() {
			ts = c.ContributedAt.Format(time.RFC3339)
		}
		key := strings.Join([]string{c.Ref, strings.ToLower(c.Name), strconv.FormatInt(c.Amount, 10), ts}, "|")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
