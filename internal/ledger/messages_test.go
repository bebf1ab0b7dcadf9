package ledger

import (
	"strings"
	"testing"

	"harambee/internal/core"
)

func TestBuildUpdateMessage_Layout(t *testing.T) {
	opts := MessageOptions{
		BudgetLine:     "Our total budget *ksh.500,000*",
		RecipientName:  "Mary Achieng",
		RecipientPhone: "0712345678",
		Pinned:         []PinnedRow{{Name: "Founders Circle", Amount: 50000}},
	}
	contributions := []core.Contribution{
		{Name: "Peter Kamau", Amount: 2000, ContributedAt: at(2, 9)},
		{Name: "Jane Doe", Amount: 1000, ContributedAt: at(1, 9)},
	}

	msg := BuildUpdateMessage(contributions, opts)
	lines := strings.Split(msg, "\n")

	if lines[0] != "*CONTRIBUTION LIST*" {
		t.Errorf("heading: got %q", lines[0])
	}
	if lines[2] != opts.BudgetLine {
		t.Errorf("budget line: got %q", lines[2])
	}
	if lines[5] != "*Mary Achieng* - *0712345678*" {
		t.Errorf("recipient line: got %q", lines[5])
	}
	// Pinned row first, then stored contributions oldest first.
	if lines[7] != "1. Founders Circle - 50,000 ✅" {
		t.Errorf("pinned row: got %q", lines[7])
	}
	if lines[8] != "2. Jane Doe - 1,000 ✅" || lines[9] != "3. Peter Kamau - 2,000 ✅" {
		t.Errorf("dynamic rows: got %q, %q", lines[8], lines[9])
	}
}

func TestBuildUpdateMessage_PinnedMatchesNotListedTwice(t *testing.T) {
	opts := DefaultMessageOptions()
	contributions := []core.Contribution{
		// Same name and amount as a pinned row, punctuation aside.
		{Name: "KABOGO'S FAMILY", Amount: 300000, ContributedAt: at(1, 9)},
		{Name: "Jane Doe", Amount: 1000, ContributedAt: at(2, 9)},
	}

	msg := BuildUpdateMessage(contributions, opts)
	if got := strings.Count(msg, "300,000"); got != 1 {
		t.Errorf("pinned amount should appear once, got %d occurrences\n%s", got, msg)
	}
	if !strings.Contains(msg, "Jane Doe - 1,000") {
		t.Errorf("dynamic row missing:\n%s", msg)
	}
}

func TestBuildUpdateMessage_MaxItemsKeepsMostRecent(t *testing.T) {
	opts := MessageOptions{
		RecipientName:  "X",
		RecipientPhone: "Y",
		Pinned:         []PinnedRow{{Name: "Pinned", Amount: 9}},
		MaxItems:       3,
	}
	contributions := []core.Contribution{
		{Name: "Oldest", Amount: 1, ContributedAt: at(1, 9)},
		{Name: "Middle", Amount: 2, ContributedAt: at(2, 9)},
		{Name: "Newest", Amount: 3, ContributedAt: at(3, 9)},
	}

	msg := BuildUpdateMessage(contributions, opts)
	if strings.Contains(msg, "Oldest") {
		t.Errorf("oldest row should fall out of the window:\n%s", msg)
	}
	for _, want := range []string{"1. Pinned - 9 ✅", "2. Middle - 2 ✅", "3. Newest - 3 ✅"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestBuildUpdateMessage_Empty(t *testing.T) {
	msg := BuildUpdateMessage(nil, MessageOptions{RecipientName: "X", RecipientPhone: "Y"})
	if !strings.Contains(msg, "No contributions recorded yet.") {
		t.Errorf("empty list placeholder missing:\n%s", msg)
	}
}

func TestBuildUpdateMessage_BudgetTargetFallback(t *testing.T) {
	msg := BuildUpdateMessage(nil, MessageOptions{BudgetTarget: 1700000, RecipientName: "X", RecipientPhone: "Y"})
	if !strings.Contains(msg, "Our total budget *ksh.1,700,000*") {
		t.Errorf("synthesized budget line missing:\n%s", msg)
	}
}

func TestBuildExpenseMessage(t *testing.T) {
	expenses := []core.Expense{
		{Title: "Transfer to: James", Amount: 5000, SpentAt: at(1, 8)},
		{Title: "Tent hire", Amount: 3000, SpentAt: at(2, 8)},
		{Title: "Coffin purchase", Amount: 20000, SpentAt: at(1, 12)},
	}

	msg := BuildExpenseMessage(expenses, 100000)
	if strings.Contains(msg, "Transfer to:") {
		t.Errorf("transfer record leaked into export:\n%s", msg)
	}
	for _, want := range []string{
		"1. Coffin purchase - 20,000 ✅",
		"2. Tent hire - 3,000 ✅",
		"Total expenses: KES 23,000",
		"Remaining balance: KES 77,000",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestBuildExpenseMessage_Empty(t *testing.T) {
	msg := BuildExpenseMessage(nil, 500)
	if !strings.Contains(msg, "No expenses recorded yet.") {
		t.Errorf("empty placeholder missing:\n%s", msg)
	}
	if !strings.Contains(msg, "Remaining balance: KES 500") {
		t.Errorf("balance should equal collected total:\n%s", msg)
	}
}
