package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"harambee/internal/core"
	"harambee/internal/ledger"
	"harambee/internal/mpesa"
	"harambee/internal/repo"
)

func (s *Server) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	name := core.NormalizeName(sanitizeInput(r.Form.Get("name")))
	ref := core.NormalizeRef(sanitizeInput(r.Form.Get("ref")))
	note := sanitizeInput(r.Form.Get("note"))

	amount, err := core.ParseKesAmount(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount</div>`))
		return
	}
	contributedAt, ok := parseFormTime(r.Form.Get("contributed_at"))
	if !ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid date/time</div>`))
		return
	}

	candidate := core.Contribution{Name: name, Amount: amount, Ref: ref, Note: note}
	if err := candidate.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid data: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	// Warn about a likely double entry before saving, but save regardless:
	// refless rows have no hard uniqueness to lean on.
	var warning string
	if ref == "" {
		if existing, err := s.ledger.ListContributions(r.Context()); err == nil {
			warning = ledger.NearDuplicateWarning(existing, name, amount, contributedAt)
		}
	}

	saved, err := s.contributions.CreateContribution(r.Context(), repo.CreateContribution{
		Name:          name,
		Amount:        amount,
		Ref:           ref,
		ContributedAt: contributedAt,
		Note:          note,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateRef) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`<div class="error">A contribution with ref ` + template.HTMLEscapeString(ref) + ` already exists</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Create contribution error", "error", err, "name", name, "amount", amount)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to save contribution</div>`))
		return
	}

	w.Header().Set("HX-Trigger", "contribution:created")
	w.WriteHeader(http.StatusOK)
	body := `<div class="success">Recorded ` + template.HTMLEscapeString(saved.Name) +
		` — ` + template.HTMLEscapeString(formatKes(saved.Amount))
	if saved.Ref != "" {
		body += ` (ref ` + template.HTMLEscapeString(saved.Ref) + `)`
	}
	body += `</div>`
	if warning != "" {
		body += `<div class="warning">` + template.HTMLEscapeString(warning) + `</div>`
	}
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
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
		_, _ = w.Write([]byte(`<div class="error">Missing contribution id</div>`))
		return
	}
	if err := s.ledger.DeleteContribution(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete contribution error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to delete contribution</div>`))
		return
	}
	w.Header().Set("HX-Trigger", "contribution:deleted")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Contribution removed</div>`))
}

// handleParseSMS pre-fills the contribution form from a pasted M-Pesa
// confirmation message. Partial extractions are fine; the admin reviews the
// fields before submitting.
func (s *Server) handleParseSMS(w http.ResponseWriter, r *http.Request) {
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

	text := r.Form.Get("sms")
	sms := mpesa.ParseReceivedSMS(text)
	if sms.Name == "" && sms.Amount == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Could not detect a received payment in that message</div>`))
		return
	}

	data := struct {
		Name          string
		Amount        int64
		Ref           string
		ContributedAt string
	}{
		Name:   sms.Name,
		Amount: sms.Amount,
		Ref:    sms.Ref,
	}
	if !sms.ContributedAt.IsZero() {
		data.ContributedAt = sms.ContributedAt.Format("2006-01-02T15:04")
	}

	if s.templates != nil {
		if err := s.templates.ExecuteTemplate(w, "sms_prefill.html", data); err != nil {
			slog.ErrorContext(r.Context(), "SMS prefill template execution failed", "error", err)
		}
		return
	}
	_, _ = w.Write([]byte(`<div class="prefill">` + template.HTMLEscapeString(data.Name) + `</div>`))
}
