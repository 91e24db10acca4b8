package models

import "time"

// Page is one page of extracted statement text.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Statement is the full multi-page text of one bank document. It is owned
// by the pipeline invocation that produced it and never mutated afterward.
type Statement struct {
	Path  string `json:"path"`
	Pages []Page `json:"pages"`
}

// CombinedText joins all page text, used for bank detection and metadata
// scans that do not care about page boundaries.
func (s Statement) CombinedText() string {
	out := ""
	for i, p := range s.Pages {
		if i > 0 {
			out += "\n"
		}
		out += p.Text
	}
	return out
}

// ParsedRow is a raw table row: page number plus the mapping from column
// label (as found in the header line) to the raw cell string.
type ParsedRow struct {
	Page int
	Raw  map[string]string
}

// NormalizedRow is the typed intermediate record between table parsing and
// transaction synthesis. Optional fields are nil when the source cell was
// absent or unparseable.
type NormalizedRow struct {
	Date        time.Time
	Description string
	Merchant    *string
	Debit       *float64
	Credit      *float64
	Amount      float64
	Balance     *float64
	Page        int
	Raw         map[string]string
}

// Transaction is the canonical ledger entry. Created once by the
// synthesizer; Category is attached exactly once afterward and the value is
// otherwise treated as immutable. Debit is set only when Amount < 0 and
// Credit only when Amount > 0, both as non-negative magnitudes.
type Transaction struct {
	ID          string            `json:"id"`
	Date        time.Time         `json:"date"`
	Description string            `json:"description"`
	Merchant    *string           `json:"merchant,omitempty"`
	Debit       *float64          `json:"debit,omitempty"`
	Credit      *float64          `json:"credit,omitempty"`
	Amount      float64           `json:"amount"`
	Balance     *float64          `json:"balance,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Account     *string           `json:"account,omitempty"`
	Bank        string            `json:"bank"`
	Page        int               `json:"page"`
	Raw         map[string]string `json:"raw,omitempty"`
}

// RecurringSeries describes a cadence- and amount-stable transaction group.
type RecurringSeries struct {
	Merchant            string  `json:"merchant"`
	AverageAmount       float64 `json:"averageAmount"`
	AverageIntervalDays float64 `json:"averageIntervalDays"`
	Occurrences         int     `json:"occurrences"`
}

// StatementMeta holds statement-level metadata for a processed document.
type StatementMeta struct {
	Bank         string     `json:"bank"`
	AccountLast4 *string    `json:"accountLast4,omitempty"`
	Currency     string     `json:"currency"`
	PeriodStart  *time.Time `json:"periodStart,omitempty"`
	PeriodEnd    *time.Time `json:"periodEnd,omitempty"`
	Pages        int        `json:"pages"`
	Warnings     []string   `json:"warnings"`
}

// Summary aggregates derived signals over one statement.
type Summary struct {
	MonthlyTotals map[string]float64         `json:"totals"`
	Liabilities   map[string]float64         `json:"liabilities"`
	Recurring     map[string]RecurringSeries `json:"recurring"`
	Fees          map[string]int             `json:"fees"`
}

// ResultBundle is the unit handed to exporters, the API, and the CLI.
type ResultBundle struct {
	Meta         StatementMeta      `json:"meta"`
	Transactions []Transaction      `json:"transactions"`
	Liabilities  map[string]float64 `json:"liabilities"`
	Summary      Summary            `json:"summary"`
}
