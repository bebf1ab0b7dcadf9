package http

import (
	"log/slog"
	"net/http"
	"time"

	"harambee/internal/core"
	"harambee/internal/ledger"
)

type contributionRow struct {
	ID     string
	Name   string
	Amount string
	Ref    string
	When   string
	Note   string
}

type expenseRow struct {
	ID       string
	Title    string
	Amount   string
	When     string
	Note     string
	Transfer bool
	// Recipient is the payee of a transfer row, extracted from the title.
	Recipient string
}

type totalRow struct {
	Name   string
	Total  string
	Latest string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	contributions, err := s.ledger.ListContributions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "List contributions error", "error", err)
		http.Error(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}
	expenses, err := s.ledger.ListExpenses(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "List expenses error", "error", err)
		http.Error(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}
	lastUpdate, err := s.ledger.LatestUpdate(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Latest update error", "error", err)
	}

	metrics := ledger.ComputeMetrics(contributions, cutoffOf(lastUpdate))
	metrics.RunningTotals = ledger.ComputeRunningTotals(contributions)

	var totalExpenses int64
	for _, e := range expenses {
		totalExpenses += e.Amount
	}

	data := struct {
		TotalCollected string
		TotalExpenses  string
		Balance        string
		NewAmount      string
		NewCount       int
		LastUpdateAt   string
		RunningTotals  []totalRow
		Contributions  []contributionRow
		Expenses       []expenseRow
	}{
		TotalCollected: formatKes(metrics.TotalCollected),
		TotalExpenses:  formatKes(totalExpenses),
		Balance:        formatKes(metrics.TotalCollected - totalExpenses),
		NewAmount:      formatKes(metrics.NewAmount),
		NewCount:       metrics.NewCount,
	}
	if !metrics.LastUpdateAt.IsZero() {
		data.LastUpdateAt = core.FormatDateTime(metrics.LastUpdateAt)
	}
	for _, row := range metrics.RunningTotals {
		tr := totalRow{Name: row.Name, Total: formatKes(row.Total)}
		if !row.LastContributedAt.IsZero() {
			tr.Latest = core.FormatDateTime(row.LastContributedAt)
		}
		data.RunningTotals = append(data.RunningTotals, tr)
	}
	for _, c := range contributions {
		data.Contributions = append(data.Contributions, contributionRow{
			ID:     c.ID,
			Name:   c.Name,
			Amount: formatKes(c.Amount),
			Ref:    c.Ref,
			When:   core.FormatDateTime(c.ContributedAt),
			Note:   c.Note,
		})
	}
	for _, e := range expenses {
		row := expenseRow{
			ID:       e.ID,
			Title:    e.Title,
			Amount:   formatKes(e.Amount),
			When:     core.FormatDateTime(e.SpentAt),
			Note:     e.Note,
			Transfer: ledger.IsTransferTitle(e.Title),
		}
		if row.Transfer {
			row.Recipient = ledger.TransferLabel(e.Title)
		}
		data.Expenses = append(data.Expenses, row)
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(ctx, "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func cutoffOf(u *core.LedgerUpdate) time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.CutoffAt
}
