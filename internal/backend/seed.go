package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"harambee/internal/core"
	"harambee/internal/ledger"
	"harambee/internal/repo"
)

// seedKey matches stored contributions against standing pledges:
// case-insensitive on the normalized name, exact on the amount.
func seedKey(name string, amount int64) string {
	return strings.ToLower(core.NormalizeName(name)) + "|" + strconv.FormatInt(amount, 10)
}

// seedPinnedContributions stores the standing family pledges as contributions
// when they are not recorded yet, so dashboard totals include them from the
// first start. Rows whose name+amount already exist, whatever their origin,
// are left alone, which makes the seed safe to run on every startup.
func seedPinnedContributions(ctx context.Context, store repo.Ledger, rows []ledger.PinnedRow) error {
	existing, err := store.ListContributions(ctx)
	if err != nil {
		return fmt.Errorf("list contributions: %w", err)
	}
	existingKeys := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		existingKeys[seedKey(c.Name, c.Amount)] = struct{}{}
	}

	// Seeded rows are backdated to yesterday morning, one minute apart, so
	// they keep a stable order ahead of today's entries.
	yesterday := time.Now().AddDate(0, 0, -1)
	for i, row := range rows {
		if _, ok := existingKeys[seedKey(row.Name, row.Amount)]; ok {
			continue
		}
		contributedAt := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 9, i, 0, 0, time.Local)
		if _, err := store.CreateContribution(ctx, repo.CreateContribution{
			Name:          row.Name,
			Amount:        row.Amount,
			ContributedAt: contributedAt,
			Note:          "Default seeded contribution",
		}); err != nil {
			return fmt.Errorf("seed contribution %q: %w", row.Name, err)
		}
		existingKeys[seedKey(row.Name, row.Amount)] = struct{}{}
	}
	return nil
}
