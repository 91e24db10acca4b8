// Package writer renders result bundles for export. Monetary fields are
// always formatted to two decimal places and absent optional fields render
// as empty strings, never as zero.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// Columns is the default export column order.
var Columns = []string{
	"date",
	"description",
	"merchant",
	"category",
	"amount",
	"debit",
	"credit",
	"balance",
	"bank",
	"account",
}

// CSVWriter writes transactions in the default column layout.
type CSVWriter struct {
	// IncludeMeta prepends statement metadata rows before the header.
	IncludeMeta bool
}

// Write renders the bundle's transactions as CSV.
func (w *CSVWriter) Write(out io.Writer, bundle models.ResultBundle) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeMeta {
		meta := bundle.Meta
		cw.Write([]string{"# Bank", meta.Bank})
		cw.Write([]string{"# Currency", meta.Currency})
		if meta.AccountLast4 != nil {
			cw.Write([]string{"# Account", "****" + *meta.AccountLast4})
		}
	}

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, txn := range bundle.Transactions {
		if err := cw.Write(transactionRecord(txn)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return cw.Error()
}

// WriteFile renders the bundle to a CSV file, creating parent directories
// as needed.
func (w *CSVWriter) WriteFile(path string, bundle models.ResultBundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, bundle)
}

func transactionRecord(txn models.Transaction) []string {
	return []string{
		txn.Date.Format("2006-01-02"),
		txn.Description,
		orEmpty(txn.Merchant),
		orEmpty(txn.Category),
		FormatAmount(txn.Amount),
		formatOptional(txn.Debit),
		formatOptional(txn.Credit),
		formatOptional(txn.Balance),
		txn.Bank,
		orEmpty(txn.Account),
	}
}

// FormatAmount renders a monetary value with exactly two decimal places.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func formatOptional(amount *float64) string {
	if amount == nil {
		return ""
	}
	return FormatAmount(*amount)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
