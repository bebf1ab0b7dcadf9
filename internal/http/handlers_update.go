package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"harambee/internal/ledger"
)

// handleContributionUpdate generates the shareable WhatsApp contribution
// list, records it as an update with a cutoff of now, and echoes the text
// back for copying.
func (s *Server) handleContributionUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	contributions, err := s.ledger.ListContributions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List contributions error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to load ledger</div>`))
		return
	}

	message := ledger.BuildUpdateMessage(contributions, s.messageOptions)
	update, err := s.ledger.CreateUpdate(r.Context(), time.Now(), message)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create update error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to record update</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Contribution update generated", "update_id", update.ID, "contributions", len(contributions))
	writeGeneratedMessage(w, message)
}

// handleExpenseUpdate generates the WhatsApp expense list with the remaining
// balance and records it.
func (s *Server) handleExpenseUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	contributions, err := s.ledger.ListContributions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List contributions error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to load ledger</div>`))
		return
	}
	expenses, err := s.ledger.ListExpenses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to load ledger</div>`))
		return
	}

	var totalCollected int64
	for _, c := range contributions {
		totalCollected += c.Amount
	}

	message := ledger.BuildExpenseMessage(expenses, totalCollected)
	update, err := s.ledger.CreateExpenseUpdate(r.Context(), message)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create expense update error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to record update</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Expense update generated", "update_id", update.ID, "expenses", len(expenses))
	writeGeneratedMessage(w, message)
}

func writeGeneratedMessage(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<pre class="generated-message">` + template.HTMLEscapeString(message) + `</pre>`))
}
