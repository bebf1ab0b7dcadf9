package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"harambee/internal/core"
)

// PinnedRow is a contribution that is always listed first in the WhatsApp
// export, ahead of the rolling window of recent entries. Pinned rows are
// display-only; matching stored contributions are filtered out so they never
// appear twice.
type PinnedRow struct {
	Name   string
	Amount int64
}

// DefaultPinnedRows are the standing family pledges shown at the top of every
// contribution list.
var DefaultPinnedRows = []PinnedRow{
	{Name: "Kabogo's Family", Amount: 300000},
	{Name: "Hillary Kabogo Milestone Fraternity", Amount: 100000},
	{Name: "Robert Kabogo Milestone Fraternity", Amount: 100000},
	{Name: "Paul Kabogo Milestone Fraternity", Amount: 100000},
	{Name: "Daniel Kabogo Milestone Fraternity", Amount: 100000},
}

// MessageOptions configure the WhatsApp contribution export. Zero values fall
// back to the defaults below, matching what the family circulates today.
type MessageOptions struct {
	// BudgetLine is printed verbatim under the heading. When empty and
	// BudgetTarget is set, a line is synthesized from the target instead.
	BudgetLine   string
	BudgetTarget int64
	// RecipientName and RecipientPhone identify the official treasurer.
	RecipientName  string
	RecipientPhone string
	// MaxItems caps the total rows shown (pinned included); zero means all.
	MaxItems int
	Pinned   []PinnedRow
}

const (
	defaultBudgetLine     = "Our total budget *ksh.1.7M* (inclusive of hospital bill and burial preparations budget)"
	defaultRecipientName  = "James Njoroge"
	defaultRecipientPhone = "0740289578"
)

// DefaultMessageOptions returns the options used when nothing is configured.
func DefaultMessageOptions() MessageOptions {
	return MessageOptions{
		BudgetLine:     defaultBudgetLine,
		RecipientName:  defaultRecipientName,
		RecipientPhone: defaultRecipientPhone,
		Pinned:         DefaultPinnedRows,
	}
}

var pinnedKeyCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// pinnedKey matches stored contributions against pinned rows loosely: case
// and punctuation insensitive on the name, exact on the amount.
func pinnedKey(name string, amount int64) string {
	cleaned := strings.TrimSpace(pinnedKeyCleanRe.ReplaceAllString(strings.ToLower(name), " "))
	return cleaned + "|" + strconv.FormatInt(amount, 10)
}

// BuildUpdateMessage renders the WhatsApp contribution list: heading, budget
// line, official recipient, then pinned rows followed by the most recent
// stored contributions, numbered and oldest first within the window.
func BuildUpdateMessage(contributions []core.Contribution, opts MessageOptions) string {
	if opts.RecipientName == "" {
		opts.RecipientName = defaultRecipientName
	}
	if opts.RecipientPhone == "" {
		opts.RecipientPhone = defaultRecipientPhone
	}

	pinnedKeys := make(map[string]struct{}, len(opts.Pinned))
	for _, row := range opts.Pinned {
		pinnedKeys[pinnedKey(row.Name, row.Amount)] = struct{}{}
	}

	sorted := make([]core.Contribution, len(contributions))
	copy(sorted, contributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ContributedAt.Before(sorted[j].ContributedAt)
	})
	dynamic := sorted[:0]
	for _, c := range sorted {
		if _, pinned := pinnedKeys[pinnedKey(c.Name, c.Amount)]; !pinned {
			dynamic = append(dynamic, c)
		}
	}

	// With a cap configured, pinned rows take their slots first and the
	// dynamic window keeps the most recent remainder.
	visibleDynamic := dynamic
	if opts.MaxItems > 0 {
		slots := opts.MaxItems - len(opts.Pinned)
		if slots <= 0 {
			visibleDynamic = nil
		} else if len(dynamic) > slots {
			visibleDynamic = dynamic[len(dynamic)-slots:]
		}
	}

	type exportRow struct {
		name   string
		amount int64
	}
	rows := make([]exportRow, 0, len(opts.Pinned)+len(visibleDynamic))
	for _, row := range opts.Pinned {
		rows = append(rows, exportRow{name: row.Name, amount: row.Amount})
	}
	for _, c := range visibleDynamic {
		rows = append(rows, exportRow{name: c.Name, amount: c.Amount})
	}
	if opts.MaxItems > 0 && len(rows) > opts.MaxItems {
		rows = rows[:opts.MaxItems]
	}

	lines := []string{"*CONTRIBUTION LIST*", ""}
	switch {
	case opts.BudgetLine != "":
		lines = append(lines, opts.BudgetLine)
	case opts.BudgetTarget > 0:
		lines = append(lines, "Our total budget *ksh."+core.FormatAmount(opts.BudgetTarget)+"*")
	}
	lines = append(lines,
		"",
		"Official recipient:",
		"*"+opts.RecipientName+"* - *"+opts.RecipientPhone+"*",
		"",
	)

	if len(rows) == 0 {
		lines = append(lines, "No contributions recorded yet.")
	} else {
		for i, row := range rows {
			lines = append(lines, strconv.Itoa(i+1)+". "+row.name+" - "+core.FormatAmount(row.amount)+" ✅")
		}
	}
	return strings.Join(lines, "\n")
}

// BuildExpenseMessage renders the WhatsApp expense list. Transfer records are
// excluded both from the rows and from the totals; the remaining balance is
// collected funds minus listed expenses.
func BuildExpenseMessage(expenses []core.Expense, totalCollected int64) string {
	listed := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !IsTransferTitle(e.Title) {
			listed = append(listed, e)
		}
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return listed[i].SpentAt.Before(listed[j].SpentAt)
	})

	lines := []string{"*EXPENSES LIST*", ""}
	if len(listed) == 0 {
		lines = append(lines, "No expenses recorded yet.")
	} else {
		for i, e := range listed {
			lines = append(lines, strconv.Itoa(i+1)+". "+e.Title+" - "+core.FormatAmount(e.Amount)+" ✅")
		}
	}

	var total int64
	for _, e := range listed {
		total += e.Amount
	}
	lines = append(lines,
		"",
		"Total expenses: "+core.FormatKes(total),
		"Remaining balance: "+core.FormatKes(totalCollected-total),
	)
	return strings.Join(lines, "\n")
}
