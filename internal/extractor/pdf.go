// Package extractor pulls plain text out of uploaded statement PDFs. The
// text is handed to the statement parser as-is; layout fidelity matters less
// than not emitting font-encoding garbage, so every extraction method is
// gated on a readability check.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when no extraction method produced readable
// text. Image-only exports and exotic font encodings end up here.
var ErrUnreadable = errors.New("no readable text could be extracted from the PDF; the file may be scanned or image-based")

// ExtractText decodes the uploaded PDF bytes into statement text, pages
// joined with blank lines.
func ExtractText(data []byte) (string, error) {
	pages, err := extractWithLibrary(data)
	if err != nil {
		return "", fmt.Errorf("extract statement text: %w", err)
	}
	if !isReadableText(pages) {
		return "", ErrUnreadable
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractWithLibrary tries the library's extraction paths in order of layout
// fidelity. The library panics on some malformed files, hence the recover.
func extractWithLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, errors.New("PDF has no pages")
	}

	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	pages = extractByPagePlainText(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	if text := extractByReaderPlainText(r); text != "" {
		return []string{text}, nil
	}
	return pages, nil
}

// extractByRow keeps physical rows intact, which is what the statement
// parser's line heuristics want.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByPagePlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font, len(fontNames))
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// statementWords appear in every genuine M-Pesa statement export. Extracted
// text containing none of them is treated as garbage.
var statementWords = []string{
	"mpesa", "m-pesa", "statement", "receipt", "completion",
	"funds", "received", "balance", "transaction", "customer",
	"paid", "withdrawn", "amount", "total",
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of plain ASCII statement characters to the
// total. A strict ASCII check, unicode.IsLetter also matches the accented
// garbage identity-encoded fonts produce.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"*+", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

// isReadableText requires enough text, a high share of plain characters, and
// at least one word a statement would actually contain.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsStatementWords(pages)
}
