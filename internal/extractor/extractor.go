// Package extractor supplies page-ordered statement text from source
// documents. Plain-text files are read directly; PDFs go through the text
// layer first and fall back to pdftotext and then OCR for scanned or
// badly encoded files. The rest of the pipeline only ever sees a
// models.Statement.
package extractor

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// ReadStatement loads the document at path and returns its pages as text.
// An unreadable document is a fatal input error for the caller; there is no
// partial recovery across pages that cannot be read at all.
func ReadStatement(path string) (models.Statement, error) {
	if _, err := os.Stat(path); err != nil {
		return models.Statement{}, fmt.Errorf("statement not found: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		data, err := os.ReadFile(path)
		if err != nil {
			return models.Statement{}, fmt.Errorf("read statement: %w", err)
		}
		return models.Statement{
			Path:  path,
			Pages: []models.Page{{Number: 1, Text: string(data)}},
		}, nil
	}

	pages, err := extractPDF(path)
	if err != nil {
		return models.Statement{}, err
	}
	return models.Statement{Path: path, Pages: pages}, nil
}

// extractPDF tries the extraction methods in order of layout fidelity and
// returns the first result that passes the readability gate.
func extractPDF(path string) ([]models.Page, error) {
	pages, libErr := extractWithLibrary(path)
	if libErr == nil && readable(pages) {
		return pages, nil
	}

	if pages, err := extractWithPdftotext(path); err == nil && readable(pages) {
		return pages, nil
	}

	if pages, err := extractWithOCR(path); err == nil && readable(pages) {
		return pages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("text extraction failed: %w", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted from %s; the file may be image-based or use font encodings that cannot be decoded", path)
}

// extractWithLibrary reads the PDF text layer via ledongthuc/pdf. The
// library panics on some malformed files, so the panic is converted into a
// regular error.
func extractWithLibrary(path string) (pages []models.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages = extractByRow(r)
	if readable(pages) {
		return pages, nil
	}

	// Row extraction loses column gaps on some generators; rebuild rows
	// from raw text coordinates instead, inserting wide gaps where the X
	// distance between fragments indicates a column boundary.
	pages = extractByCoordinates(r)
	return pages, nil
}

func extractByRow(r *pdf.Reader) []models.Page {
	var pages []models.Page
	for i := 1; i <= r.NumPage(); i++ {
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
		pages = append(pages, models.Page{Number: i, Text: strings.Join(lines, "\n")})
	}
	return pages
}

func extractByCoordinates(r *pdf.Reader) []models.Page {
	var pages []models.Page
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type fragment struct {
			x float64
			s string
		}
		rows := make(map[int][]fragment)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], fragment{x: t.X, s: t.S})
		}

		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		// PDF Y grows bottom-to-top.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			frags := rows[y]
			sort.Slice(frags, func(a, b int) bool { return frags[a].x < frags[b].x })
			var sb strings.Builder
			var prevX float64
			for j, frag := range frags {
				if j > 0 && frag.x-prevX > 15 {
					sb.WriteString("  ")
				}
				sb.WriteString(frag.s)
				prevX = frag.x
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, models.Page{Number: i, Text: strings.Join(lines, "\n")})
	}
	return pages
}

// extractWithPdftotext shells out to poppler's pdftotext, page by page so
// that page boundaries survive.
func extractWithPdftotext(path string) ([]models.Page, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pdfinfoPageCount(path)
	var pages []models.Page
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", n, "-l", n, path, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, models.Page{Number: i, Text: text})
		}
	}
	if len(pages) == 0 {
		out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %w", err)
		}
		text := strings.TrimSpace(string(out))
		if text == "" {
			return nil, fmt.Errorf("pdftotext produced no output")
		}
		pages = []models.Page{{Number: 1, Text: text}}
	}
	return pages, nil
}

func pdfinfoPageCount(path string) int {
	out, err := exec.Command("pdfinfo", path).Output()
	if err != nil {
		return 1
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// statementWords are words that appear in virtually every bank statement.
// Extracted text containing none of them is treated as garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "deposit",
	"withdrawal", "opening", "closing", "transfer", "period",
}

// readable gates extraction output: enough text, a high enough ratio of
// plain ASCII characters, and at least one recognizable statement word.
// Identity-encoded fonts produce accented garbage that unicode.IsLetter
// would accept, hence the strict ASCII check.
func readable(pages []models.Page) bool {
	total, ok := 0, 0
	var combined strings.Builder
	for _, page := range pages {
		combined.WriteString(page.Text)
		combined.WriteByte(' ')
		for _, r := range page.Text {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*`, r) ||
				r == '£' || r == '€' {
				ok++
			}
		}
	}
	if total <= 50 || float64(ok)/float64(total) <= 0.6 {
		return false
	}
	lower := strings.ToLower(combined.String())
	for _, word := range statementWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
