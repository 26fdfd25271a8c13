// Package extractor acquires statement text for the CLI and API layers.
// The parsing core consumes only already-extracted text; this package is
// the collaborator that produces it from plain-text or PDF inputs.
package extractor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Load reads a statement file and returns its text with reading-order
// line breaks preserved. PDF files go through text extraction; anything
// else is treated as plain text.
func Load(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read statement file: %w", err)
	}
	return string(data), nil
}

// extractPDF pulls row-ordered text out of a PDF. Scanned or custom-font
// PDFs that decode to garbage are rejected rather than passed downstream.
func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var cells []string
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				buf.WriteString(strings.Join(cells, " "))
				buf.WriteByte('\n')
			}
		}
	}

	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted from %s; the PDF may be image-based or scanned", filepath.Base(path))
	}
	if readableRatio(text) < 0.85 {
		return "", fmt.Errorf("extracted text from %s is unreadable; the PDF may use custom font encodings", filepath.Base(path))
	}
	return text, nil
}

// readableRatio is the share of plain ASCII letters, digits, whitespace
// and common punctuation. Identity-encoded fonts decode to high-codepoint
// garbage that fails this check.
func readableRatio(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			readable++
		case unicode.IsSpace(r):
			readable++
		case strings.ContainsRune(".,-/:;()'\"$%&#*+", r):
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}
