package http

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"harambee/internal/extractor"
	"harambee/internal/mpesa"
	"harambee/internal/repo"
)

// previewSnippets is how many near-miss raw blocks are echoed back when an
// import finds nothing, so the statement format can be tuned by hand.
const previewSnippets = 3

// handleStatementImport runs the upload -> extract -> parse -> persist flow.
// Candidates whose receipt ref is already stored are skipped, everything else
// is created; the response reports detected/imported/skipped counts.
func (s *Server) handleStatementImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxStatementBytes)
	if err := r.ParseMultipartForm(s.maxStatementBytes); err != nil {
		slog.WarnContext(r.Context(), "Statement upload rejected", "error", err)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`<div class="error">File too large or malformed upload</div>`))
		return
	}

	file, header, err := r.FormFile("statement")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">No statement file in upload</div>`))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement read error", "error", err, "filename", header.Filename)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to read uploaded file</div>`))
		return
	}

	text, err := s.extractText(data)
	if err != nil {
		if errors.Is(err, extractor.ErrUnreadable) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Could not extract readable text from this document. Export the statement as a text-based PDF and try again.</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Statement extract error", "error", err, "filename", header.Filename)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Failed to extract text from the document</div>`))
		return
	}

	candidates := mpesa.ParseStatement(text)
	if len(candidates) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">No received transactions detected in this statement</div>`))
		return
	}

	var imported, skipped int
	for _, c := range candidates {
		_, err := s.contributions.CreateContribution(r.Context(), repo.CreateContribution{
			Name:          c.Name,
			Amount:        c.Amount,
			Ref:           c.Ref,
			ContributedAt: c.ContributedAt,
			Note:          "Imported from statement",
		})
		if err != nil {
			if errors.Is(err, repo.ErrDuplicateRef) {
				skipped++
				continue
			}
			slog.ErrorContext(r.Context(), "Statement import save error", "error", err, "name", c.Name, "ref", c.Ref)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<div class="error">Import stopped after ` + strconv.Itoa(imported) + ` rows: storage failure</div>`))
			return
		}
		imported++
	}

	slog.InfoContext(r.Context(), "Statement imported",
		"filename", header.Filename,
		"detected", len(candidates),
		"imported", imported,
		"skipped", skipped)

	body := `<div class="success">Detected ` + strconv.Itoa(len(candidates)) +
		` transactions: imported ` + strconv.Itoa(imported) +
		`, skipped ` + strconv.Itoa(skipped) + ` duplicates</div>`
	if imported > 0 {
		preview := candidates
		if len(preview) > previewSnippets {
			preview = preview[:previewSnippets]
		}
		body += `<ul class="import-preview">`
		for _, c := range preview {
			body += `<li>` + template.HTMLEscapeString(c.Name) + ` — ` +
				template.HTMLEscapeString(formatKes(c.Amount)) + `</li>`
		}
		body += `</ul>`
	}
	w.Header().Set("HX-Trigger", "contribution:created")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
