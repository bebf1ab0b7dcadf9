package core

import (
	"errors"
	"strings"
	"time"
)

const (
	MaxNameLength  = 120
	MaxTitleLength = 140
	MaxRefLength   = 120
	MaxNoteLength  = 500
)

type (
	// Contribution is a single recorded payment into the ledger.
	// Amount is in whole Kenyan shillings; fractional units are never stored.
	Contribution struct {
		ID            string
		Name          string
		Amount        int64
		Ref           string // receipt code, "" when none was provided
		ContributedAt time.Time
		Note          string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Expense is money paid out of the collected pool.
	Expense struct {
		ID        string
		Title     string
		Amount    int64
		SpentAt   time.Time
		Note      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// LedgerUpdate records a generated contribution summary and its cutoff,
	// so the next summary can report what is new since.
	LedgerUpdate struct {
		ID               string
		CutoffAt         time.Time
		GeneratedMessage string
		CreatedAt        time.Time
	}

	// ExpenseUpdate records a generated expense summary.
	ExpenseUpdate struct {
		ID               string
		GeneratedMessage string
		CreatedAt        time.Time
	}

	// RunningTotal is the per-person aggregate shown on the dashboard.
	RunningTotal struct {
		Name              string
		Total             int64
		LastContributedAt time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("name is required")
	ErrNameTooLong   = errors.New("name is too long")
	ErrEmptyTitle    = errors.New("expense title is required")
	ErrTitleTooLong  = errors.New("expense title is too long")
	ErrRefTooLong    = errors.New("reference is too long")
	ErrNoteTooLong   = errors.New("note is too long")
)

func (c Contribution) Validate() error {
	name := NormalizeName(c.Name)
	if len(name) < 2 {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if c.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(NormalizeRef(c.Ref)) > MaxRefLength {
		return ErrRefTooLong
	}
	if len(c.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	title := NormalizeName(e.Title)
	if len(title) < 2 {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(e.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// NormalizeName collapses internal whitespace runs and trims the ends.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeRef trims a receipt reference; blank refs become "".
func NormalizeRef(ref string) string {
	return strings.TrimSpace(ref)
}
