package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"harambee/internal/core"
	"harambee/internal/ledger"
	"harambee/internal/repo"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	title := core.NormalizeName(sanitizeInput(r.Form.Get("title")))
	s.createExpense(w, r, title, "Expense recorded")
}

// handleCreateTransfer records a payout to a person as an expense with the
// transfer title prefix, so expense summaries can exclude it.
func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	recipient := core.NormalizeName(sanitizeInput(r.Form.Get("recipient")))
	if recipient == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Recipient is required</div>`))
		return
	}
	s.createExpense(w, r, ledger.TransferTitle(recipient), "Transfer recorded")
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request, title, successLabel string) {
	note := sanitizeInput(r.Form.Get("note"))

	amount, err := core.ParseKesAmount(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount</div>`))
		return
	}
	spentAt, ok := parseFormTime(r.Form.Get("spent_at"))
	if !ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid date/time</div>`))
		return
	}

	candidate := core.Expense{Title: title, Amount: amount, Note: note}
	if err := candidate.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid data: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	saved, err := s.ledger.CreateExpense(r.Context(), repo.CreateExpense{
		Title:   title,
		Amount:  amount,
		SpentAt: spentAt,
		Note:    note,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create expense error", "error", err, "title", title, "amount", amount)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to save expense</div>`))
		return
	}

	w.Header().Set("HX-Trigger", "expense:created")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">` + successLabel + `: ` +
		template.HTMLEscapeString(saved.Title) + ` — ` +
		template.HTMLEscapeString(formatKes(saved.Amount)) + `</div>`))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}
	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Missing expense id</div>`))
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete expense error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to delete expense</div>`))
		return
	}
	w.Header().Set("HX-Trigger", "expense:deleted")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Expense removed</div>`))
}
