// Package repo defines the persistence port for the ledger. Backends live in
// subpackages and in internal/storage; callers depend only on the Ledger
// interface so the data backend stays swappable at startup.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"harambee/internal/core"
)

// ErrDuplicateRef is returned when a contribution with the same receipt
// reference, compared case-insensitively, already exists. Refs are the one
// hard uniqueness guarantee the ledger makes.
var ErrDuplicateRef = errors.New("contribution ref already exists")

// DuplicateRef wraps ErrDuplicateRef with the offending reference.
func DuplicateRef(ref string) error {
	return fmt.Errorf("contribution with ref %q: %w", ref, ErrDuplicateRef)
}

// CreateContribution carries the caller-supplied fields of a new
// contribution. A zero ContributedAt means "now"; an empty Ref means none was
// provided.
type CreateContribution struct {
	Name          string
	Amount        int64
	Ref           string
	ContributedAt time.Time
	Note          string
}

// CreateExpense carries the caller-supplied fields of a new expense.
// A zero SpentAt means "now".
type CreateExpense struct {
	Title   string
	Amount  int64
	SpentAt time.Time
	Note    string
}

// Ledger is the persistence port. List methods return contributions and
// expenses newest first; Latest methods return nil when nothing has been
// recorded yet.
type Ledger interface {
	ListContributions(ctx context.Context) ([]core.Contribution, error)
	// GetContribution returns nil when the id is unknown.
	GetContribution(ctx context.Context, id string) (*core.Contribution, error)
	CreateContribution(ctx context.Context, in CreateContribution) (core.Contribution, error)
	DeleteContribution(ctx context.Context, id string) error

	LatestUpdate(ctx context.Context) (*core.LedgerUpdate, error)
	CreateUpdate(ctx context.Context, cutoffAt time.Time, message string) (core.LedgerUpdate, error)

	ListExpenses(ctx context.Context) ([]core.Expense, error)
	CreateExpense(ctx context.Context, in CreateExpense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	LatestExpenseUpdate(ctx context.Context) (*core.ExpenseUpdate, error)
	CreateExpenseUpdate(ctx context.Context, message string) (core.ExpenseUpdate, error)
}
