// Package table reconstructs transaction tables from page text. Statements
// arrive as loosely formatted, OCR-adjacent text: the header row names the
// columns, columns are separated by wide gaps rather than single spaces, and
// long descriptions wrap onto lines of their own.
package table

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// datePattern matches the date shapes that open a transaction line:
// 15/01/2024, 15-01-24, 15/Jan, 15-Jan.
var datePattern = regexp.MustCompile(`\b(\d{1,2}[/-][A-Za-z]{3}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)

// columnGap splits a line on runs of two or more spaces. Tables use wide
// gaps to separate columns; single spaces occur inside descriptions.
var columnGap = regexp.MustCompile(`\s{2,}`)

// headerVocabulary holds the column words that identify a table header line.
var headerVocabulary = map[string]struct{}{
	"date":        {},
	"description": {},
	"debit":       {},
	"withdrawal":  {},
	"credit":      {},
	"deposit":     {},
	"amount":      {},
	"balance":     {},
}

// Line is a non-blank statement line paired with its source page.
type Line struct {
	Page int
	Text string
}

// Lines returns the statement's non-blank lines, trimmed, in page order
// then top-to-bottom order.
func Lines(st models.Statement) []Line {
	var out []Line
	for _, page := range st.Pages {
		for _, raw := range strings.Split(page.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			out = append(out, Line{Page: page.Number, Text: line})
		}
	}
	return out
}

// SplitColumns breaks a line into column cells using the wide-gap heuristic.
func SplitColumns(line string) []string {
	var cells []string
	for _, part := range columnGap.Split(line, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			cells = append(cells, part)
		}
	}
	return cells
}

// HasDateToken reports whether the line contains a date-like token.
func HasDateToken(line string) bool {
	return datePattern.MatchString(line)
}

// findHeader returns the index of the first line whose whitespace tokens
// intersect the header vocabulary, or -1 when the page has no table.
func findHeader(lines []string) int {
	for idx, line := range lines {
		for _, token := range strings.Fields(line) {
			if _, ok := headerVocabulary[strings.ToLower(token)]; ok {
				return idx
			}
		}
	}
	return -1
}

// ParseRows reconstructs the ordered transaction rows of a statement.
//
// Per page: locate the header line, take its wide-gap cells as positional
// column labels, then zip every following line's cells against those labels.
// Lines without a date-like token and without a balance/total marker are
// merged into the previous row's description — that is how wrapped merchant
// descriptions come back together. Pages without a header contribute no
// rows; a statement with no headers at all parses to an empty slice, which
// downstream reports as "no transactions" rather than an error.
func ParseRows(st models.Statement) []models.ParsedRow {
	var rows []models.ParsedRow

	pageOrder := make([]int, 0, len(st.Pages))
	pageLines := make(map[int][]string)
	for _, line := range Lines(st) {
		if _, seen := pageLines[line.Page]; !seen {
			pageOrder = append(pageOrder, line.Page)
		}
		pageLines[line.Page] = append(pageLines[line.Page], line.Text)
	}

	for _, pageNum := range pageOrder {
		lines := pageLines[pageNum]
		headerIdx := findHeader(lines)
		if headerIdx < 0 {
			continue
		}
		labels := SplitColumns(lines[headerIdx])

		for _, line := range lines[headerIdx+1:] {
			if !HasDateToken(line) && !hasRowMarker(line) {
				// Wrapped description. Known limitation: a wrapped
				// balance cell gets merged here too, since nothing in
				// the text distinguishes the two.
				if len(rows) > 0 {
					appendDescription(&rows[len(rows)-1], line)
				}
				continue
			}
			cells := SplitColumns(line)
			if len(cells) < 2 {
				continue
			}
			raw := make(map[string]string, len(labels))
			for i, label := range labels {
				if i < len(cells) {
					raw[label] = cells[i]
				}
			}
			rows = append(rows, models.ParsedRow{Page: pageNum, Raw: raw})
		}
	}
	return rows
}

// hasRowMarker reports whether an undated line still opens a row of its
// own, e.g. opening/closing balance and total lines.
func hasRowMarker(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "balance") || strings.Contains(lower, "total")
}

func appendDescription(row *models.ParsedRow, line string) {
	prev := row.Raw["Description"]
	joined := strings.TrimSpace(prev + " " + strings.TrimSpace(line))
	row.Raw["Description"] = joined
}
