package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"harambee/internal/repo"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRepository_ContributionRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	contributedAt := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	created, err := r.CreateContribution(ctx, repo.CreateContribution{
		Name:          "Jane   Doe",
		Amount:        1000,
		Ref:           "QWE12345XY",
		ContributedAt: contributedAt,
		Note:          "first instalment",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Jane Doe" {
		t.Errorf("name not normalized: %q", created.Name)
	}

	list, err := r.ListContributions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 contribution, got %d", len(list))
	}
	got := list[0]
	if got.ID != created.ID || got.Amount != 1000 || got.Ref != "QWE12345XY" || got.Note != "first instalment" {
		t.Errorf("unexpected row: %+v", got)
	}
	if !got.ContributedAt.Equal(contributedAt) {
		t.Errorf("contributedAt: got %v, want %v", got.ContributedAt, contributedAt)
	}
}

func TestSQLiteRepository_DuplicateRef(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	if _, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "Jane Doe", Amount: 100, Ref: "QWE12345XY"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "Someone Else", Amount: 50, Ref: "qwe12345xy"})
	if !errors.Is(err, repo.ErrDuplicateRef) {
		t.Fatalf("expected ErrDuplicateRef, got %v", err)
	}

	// No ref, no uniqueness constraint.
	if _, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "A", Amount: 1}); err != nil {
		t.Fatalf("refless create: %v", err)
	}
	if _, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "B", Amount: 1}); err != nil {
		t.Fatalf("second refless create: %v", err)
	}
}

func TestSQLiteRepository_ListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	older := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	if _, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "Older", Amount: 1, ContributedAt: older}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "Newer", Amount: 2, ContributedAt: newer}); err != nil {
		t.Fatal(err)
	}

	list, err := r.ListContributions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].Name != "Newer" || list[1].Name != "Older" {
		t.Errorf("order: got %q, %q", list[0].Name, list[1].Name)
	}
}

func TestSQLiteRepository_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	c, err := r.CreateContribution(ctx, repo.CreateContribution{Name: "Jane Doe", Amount: 100})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteContribution(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.DeleteContribution(ctx, c.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	list, _ := r.ListContributions(ctx)
	if len(list) != 0 {
		t.Errorf("contribution still present: %+v", list)
	}
}

func TestSQLiteRepository_Updates(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	if u, err := r.LatestUpdate(ctx); err != nil || u != nil {
		t.Fatalf("fresh db: update %+v err %v", u, err)
	}

	older := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	if _, err := r.CreateUpdate(ctx, older, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CreateUpdate(ctx, newer, "second"); err != nil {
		t.Fatal(err)
	}

	latest, err := r.LatestUpdate(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.GeneratedMessage != "second" || !latest.CutoffAt.Equal(newer) {
		t.Errorf("latest update: %+v", latest)
	}
}

func TestSQLiteRepository_ExpensesAndExpenseUpdates(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	e, err := r.CreateExpense(ctx, repo.CreateExpense{Title: "Tent  hire", Amount: 3000})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if e.Title != "Tent hire" {
		t.Errorf("title not normalized: %q", e.Title)
	}

	list, err := r.ListExpenses(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list expenses: %v, %d rows", err, len(list))
	}

	if u, err := r.LatestExpenseUpdate(ctx); err != nil || u != nil {
		t.Fatalf("fresh db: expense update %+v err %v", u, err)
	}
	if _, err := r.CreateExpenseUpdate(ctx, "expense export"); err != nil {
		t.Fatal(err)
	}
	u, err := r.LatestExpenseUpdate(ctx)
	if err != nil || u == nil || u.GeneratedMessage != "expense export" {
		t.Fatalf("latest expense update: %+v %v", u, err)
	}
}
