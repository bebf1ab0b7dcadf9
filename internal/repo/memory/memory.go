// Package memory is the file-backed in-memory ledger backend: state lives in
// process memory and is mirrored to a JSON snapshot after every write, so a
// restart in development keeps the data without needing a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"harambee/internal/core"
	"harambee/internal/repo"
)

type snapshot struct {
	Contributions  []core.Contribution
	Expenses       []core.Expense
	Updates        []core.LedgerUpdate
	ExpenseUpdates []core.ExpenseUpdate
}

// Store implements repo.Ledger in memory. A non-empty snapshot path makes it
// durable across restarts; an empty path keeps it purely volatile, which is
// what tests use.
type Store struct {
	mu   sync.Mutex
	path string
	data snapshot
	now  func() time.Time
}

// New returns a volatile store.
func New() *Store {
	return &Store{now: time.Now}
}

// NewFromFile loads the snapshot at path if it exists. A missing or unreadable
// file starts the store empty; the first write recreates it.
func NewFromFile(path string) *Store {
	s := &Store{path: path, now: time.Now}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return s
	}
	s.data = snap
	return s
}

// persist must be called with the mutex held.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing ledger snapshot: %w", err)
	}
	return nil
}

func (s *Store) ListContributions(ctx context.Context) ([]core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Contribution, len(s.data.Contributions))
	copy(out, s.data.Contributions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ContributedAt.Equal(out[j].ContributedAt) {
			return out[i].ContributedAt.After(out[j].ContributedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetContribution(ctx context.Context, id string) (*core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.data.Contributions {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateContribution(ctx context.Context, in repo.CreateContribution) (core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := core.NormalizeRef(in.Ref)
	if ref != "" {
		for _, c := range s.data.Contributions {
			if strings.EqualFold(core.NormalizeRef(c.Ref), ref) {
				return core.Contribution{}, repo.DuplicateRef(ref)
			}
		}
	}

	now := s.now()
	contributedAt := in.ContributedAt
	if contributedAt.IsZero() {
		contributedAt = now
	}
	c := core.Contribution{
		ID:            uuid.NewString(),
		Name:          core.NormalizeName(in.Name),
		Amount:        in.Amount,
		Ref:           ref,
		ContributedAt: contributedAt,
		Note:          strings.TrimSpace(in.Note),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.data.Contributions = append(s.data.Contributions, c)
	if err := s.persist(); err != nil {
		return core.Contribution{}, err
	}
	return c, nil
}

func (s *Store) DeleteContribution(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.Contributions[:0]
	for _, c := range s.data.Contributions {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.data.Contributions = kept
	return s.persist()
}

func (s *Store) LatestUpdate(ctx context.Context) (*core.LedgerUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *core.LedgerUpdate
	for i := range s.data.Updates {
		u := &s.data.Updates[i]
		if latest == nil || u.CutoffAt.After(latest.CutoffAt) {
			latest = u
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *Store) CreateUpdate(ctx context.Context, cutoffAt time.Time, message string) (core.LedgerUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := core.LedgerUpdate{
		ID:               uuid.NewString(),
		CutoffAt:         cutoffAt,
		GeneratedMessage: message,
		CreatedAt:        s.now(),
	}
	s.data.Updates = append(s.data.Updates, u)
	if err := s.persist(); err != nil {
		return core.LedgerUpdate{}, err
	}
	return u, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, len(s.data.Expenses))
	copy(out, s.data.Expenses)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SpentAt.Equal(out[j].SpentAt) {
			return out[i].SpentAt.After(out[j].SpentAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateExpense(ctx context.Context, in repo.CreateExpense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	spentAt := in.SpentAt
	if spentAt.IsZero() {
		spentAt = now
	}
	e := core.Expense{
		ID:        uuid.NewString(),
		Title:     core.NormalizeName(in.Title),
		Amount:    in.Amount,
		SpentAt:   spentAt,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.data.Expenses = append(s.data.Expenses, e)
	if err := s.persist(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.Expenses[:0]
	for _, e := range s.data.Expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.data.Expenses = kept
	return s.persist()
}

func (s *Store) LatestExpenseUpdate(ctx context.Context) (*core.ExpenseUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *core.ExpenseUpdate
	for i := range s.data.ExpenseUpdates {
		u := &s.data.ExpenseUpdates[i]
		if latest == nil || u.CreatedAt.After(latest.CreatedAt) {
			latest = u
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *Store) CreateExpenseUpdate(ctx context.Context, message string) (core.ExpenseUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := core.ExpenseUpdate{
		ID:               uuid.NewString(),
		GeneratedMessage: message,
		CreatedAt:        s.now(),
	}
	s.data.ExpenseUpdates = append(s.data.ExpenseUpdates, u)
	if err := s.persist(); err != nil {
		return core.ExpenseUpdate{}, err
	}
	return u, nil
}
