// Package storage is the SQLite ledger backend, built on modernc.org/sqlite
// with golang-migrate managing the schema. Timestamps are stored as
// fixed-width UTC text so lexicographic and datetime() ordering agree.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"harambee/internal/core"
	"harambee/internal/repo"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05.000000000"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// SQLiteRepository implements repo.Ledger on a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListContributions(ctx context.Context) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount, COALESCE(ref, ''), contributed_at, COALESCE(note, ''), created_at, updated_at
		FROM contributions
		ORDER BY contributed_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []core.Contribution
	for rows.Next() {
		var c core.Contribution
		var contributedAt, createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount, &c.Ref, &contributedAt, &c.Note, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.ContributedAt, err = decodeTime(contributedAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = decodeTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetContribution(ctx context.Context, id string) (*core.Contribution, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, amount, COALESCE(ref, ''), contributed_at, COALESCE(note, ''), created_at, updated_at
		FROM contributions
		WHERE id = ?`, id)

	var c core.Contribution
	var contributedAt, createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.Name, &c.Amount, &c.Ref, &contributedAt, &c.Note, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contribution: %w", err)
	}
	if c.ContributedAt, err = decodeTime(contributedAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepository) CreateContribution(ctx context.Context, in repo.CreateContribution) (core.Contribution, error) {
	ref := core.NormalizeRef(in.Ref)
	if ref != "" {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM contributions WHERE lower(ref) = lower(?))`, ref,
		).Scan(&exists)
		if err != nil {
			return core.Contribution{}, fmt.Errorf("check ref: %w", err)
		}
		if exists {
			return core.Contribution{}, repo.DuplicateRef(ref)
		}
	}

	now := time.Now()
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

	var refValue any
	if ref != "" {
		refValue = ref
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contributions (id, name, amount, ref, contributed_at, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Amount, refValue, encodeTime(c.ContributedAt), c.Note, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		// The partial unique index catches races the pre-check missed.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Contribution{}, repo.DuplicateRef(ref)
		}
		return core.Contribution{}, fmt.Errorf("insert contribution: %w", err)
	}

	slog.InfoContext(ctx, "Contribution saved to SQLite",
		"id", c.ID,
		"name", c.Name,
		"amount", c.Amount,
		"ref", c.Ref)
	return c, nil
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contributions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LatestUpdate(ctx context.Context) (*core.LedgerUpdate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, cutoff_at, generated_message, created_at
		FROM ledger_updates
		ORDER BY cutoff_at DESC
		LIMIT 1`)

	var u core.LedgerUpdate
	var cutoffAt, createdAt string
	err := row.Scan(&u.ID, &cutoffAt, &u.GeneratedMessage, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest update: %w", err)
	}
	if u.CutoffAt, err = decodeTime(cutoffAt); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) CreateUpdate(ctx context.Context, cutoffAt time.Time, message string) (core.LedgerUpdate, error) {
	u := core.LedgerUpdate{
		ID:               uuid.NewString(),
		CutoffAt:         cutoffAt,
		GeneratedMessage: message,
		CreatedAt:        time.Now(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_updates (id, cutoff_at, generated_message, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, encodeTime(u.CutoffAt), u.GeneratedMessage, encodeTime(u.CreatedAt))
	if err != nil {
		return core.LedgerUpdate{}, fmt.Errorf("insert update: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, amount, spent_at, COALESCE(note, ''), created_at, updated_at
		FROM expenses
		ORDER BY spent_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		var spentAt, createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount, &spentAt, &e.Note, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.SpentAt, err = decodeTime(spentAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = decodeTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, in repo.CreateExpense) (core.Expense, error) {
	now := time.Now()
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
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, title, amount, spent_at, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Amount, encodeTime(e.SpentAt), e.Note, encodeTime(e.CreatedAt), encodeTime(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"amount", e.Amount)
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LatestExpenseUpdate(ctx context.Context) (*core.ExpenseUpdate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, generated_message, created_at
		FROM expense_updates
		ORDER BY created_at DESC
		LIMIT 1`)

	var u core.ExpenseUpdate
	var createdAt string
	err := row.Scan(&u.ID, &u.GeneratedMessage, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest expense update: %w", err)
	}
	if u.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) CreateExpenseUpdate(ctx context.Context, message string) (core.ExpenseUpdate, error) {
	u := core.ExpenseUpdate{
		ID:               uuid.NewString(),
		GeneratedMessage: message,
		CreatedAt:        time.Now(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_updates (id, generated_message, created_at)
		VALUES (?, ?, ?)`,
		u.ID, u.GeneratedMessage, encodeTime(u.CreatedAt))
	if err != nil {
		return core.ExpenseUpdate{}, fmt.Errorf("insert expense update: %w", err)
	}
	return u, nil
}
