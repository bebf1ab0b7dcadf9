// Package ledger aggregates stored contributions and expenses into the
// numbers and texts the dashboard and WhatsApp exports are built from. All
// functions are pure over their inputs; persistence stays in the repositories.
package ledger

import (
	"sort"
	"strings"
	"time"

	"harambee/internal/core"
)

// Metrics is the dashboard snapshot derived from the full contribution list
// and the cutoff of the last published update.
type Metrics struct {
	TotalCollected int64
	LastUpdateAt   time.Time
	// Contributions recorded after the last update cutoff, oldest first.
	NewContributions []core.Contribution
	NewAmount        int64
	NewCount         int
	RunningTotals    []core.RunningTotal
}

// ComputeRunningTotals groups contributions by normalized lowercase name and
// sums per contributor. Rows are ordered by most recent contribution first,
// ties broken by name.
func ComputeRunningTotals(contributions []core.Contribution) []core.RunningTotal {
	byKey := make(map[string]*core.RunningTotal, len(contributions))
	for _, c := range contributions {
		key := strings.ToLower(core.NormalizeName(c.Name))
		row, ok := byKey[key]
		if !ok {
			row = &core.RunningTotal{Name: core.NormalizeName(c.Name)}
			byKey[key] = row
		}
		row.Total += c.Amount
		if c.ContributedAt.After(row.LastContributedAt) {
			row.LastContributedAt = c.ContributedAt
		}
	}

	rows := make([]core.RunningTotal, 0, len(byKey))
	for _, row := range byKey {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].LastContributedAt.Equal(rows[j].LastContributedAt) {
			return rows[i].LastContributedAt.After(rows[j].LastContributedAt)
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// ComputeMetrics builds the dashboard snapshot. lastCutoffAt is the cutoff of
// the most recent published update; the zero time means no update has been
// published yet, in which case every contribution counts as new.
func ComputeMetrics(contributions []core.Contribution, lastCutoffAt time.Time) Metrics {
	m := Metrics{LastUpdateAt: lastCutoffAt}
	for _, c := range contributions {
		m.TotalCollected += c.Amount
	}

	for _, c := range contributions {
		if lastCutoffAt.IsZero() || c.ContributedAt.After(lastCutoffAt) {
			m.NewContributions = append(m.NewContributions, c)
		}
	}
	sort.SliceStable(m.NewContributions, func(i, j int) bool {
		return m.NewContributions[i].ContributedAt.Before(m.NewContributions[j].ContributedAt)
	})
	for _, c := range m.NewContributions {
		m.NewAmount += c.Amount
	}
	m.NewCount = len(m.NewContributions)
	m.RunningTotals = ComputeRunningTotals(contributions)
	return m
}

// NearDuplicateWarning checks whether a candidate contribution without a
// receipt reference looks like a repeat of an already stored one: same
// normalized name, same amount, recorded within ten minutes. Stored rows that
// carry a ref are exempt, their ref already guarantees uniqueness. Returns
// the empty string when nothing matches.
func NearDuplicateWarning(contributions []core.Contribution, name string, amount int64, at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	key := strings.ToLower(core.NormalizeName(name))
	const window = 10 * time.Minute

	for _, c := range contributions {
		if c.Ref != "" {
			continue
		}
		if strings.ToLower(core.NormalizeName(c.Name)) != key {
			continue
		}
		if c.Amount != amount {
			continue
		}
		diff := at.Sub(c.ContributedAt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			return "Possible duplicate: same name and amount found within 10 minutes (" +
				core.FormatDateTime(c.ContributedAt) + "). Saved anyway because no ref was provided."
		}
	}
	return ""
}
