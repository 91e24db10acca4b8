// Package summary derives aggregate signals from a statement's ledger:
// monthly totals, liability totals by category, and fee/NSF flags.
package summary

import (
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// liabilityKeywords maps each tracked liability category to the description
// keywords that attribute a debit to it. A transaction also counts when its
// assigned category equals the liability key (case-insensitively).
var liabilityKeywords = map[string][]string{
	"rent":          {"RENT"},
	"bnpl":          {"AFTERPAY", "ZIP"},
	"child_support": {"CHILD SUPPORT"},
	"loans":         {"LOAN", "FINANCE"},
}

var feeKeywords = []string{"FEE", "OVERDRAWN", "NSF"}

// Liabilities sums the absolute value of negative transactions per
// liability category. Every category is present in the result, zero when
// nothing matched.
func Liabilities(transactions []models.Transaction) map[string]float64 {
	totals := make(map[string]float64, len(liabilityKeywords))
	for key := range liabilityKeywords {
		totals[key] = 0
	}
	for _, txn := range transactions {
		if txn.Amount >= 0 {
			continue
		}
		for key, keywords := range liabilityKeywords {
			if matchesAny(txn.Description, keywords) || categoryEquals(txn, key) {
				totals[key] += abs(txn.Amount)
			}
		}
	}
	return totals
}

// FeeFlags counts fee and NSF occurrences by description keyword.
func FeeFlags(transactions []models.Transaction) map[string]int {
	counts := make(map[string]int)
	for _, txn := range transactions {
		upper := strings.ToUpper(txn.Description)
		if matchesAny(txn.Description, feeKeywords) {
			counts["fees"]++
		}
		if strings.Contains(upper, "NSF") || strings.Contains(upper, "OVERDRAWN") {
			counts["nsf"]++
		}
	}
	return counts
}

// MonthlyTotals sums signed amounts keyed by "YYYY-MM".
func MonthlyTotals(transactions []models.Transaction) map[string]float64 {
	totals := make(map[string]float64)
	for _, txn := range transactions {
		totals[txn.Date.Format("2006-01")] += txn.Amount
	}
	return totals
}

// Build assembles the full summary. An empty transaction list yields an
// explicitly empty structure, never an error.
func Build(transactions []models.Transaction, recurring map[string]models.RecurringSeries) models.Summary {
	if len(transactions) == 0 {
		return models.Summary{
			MonthlyTotals: map[string]float64{},
			Liabilities:   map[string]float64{},
			Recurring:     map[string]models.RecurringSeries{},
			Fees:          map[string]int{},
		}
	}
	if recurring == nil {
		recurring = map[string]models.RecurringSeries{}
	}
	return models.Summary{
		MonthlyTotals: MonthlyTotals(transactions),
		Liabilities:   Liabilities(transactions),
		Recurring:     recurring,
		Fees:          FeeFlags(transactions),
	}
}

func matchesAny(description string, keywords []string) bool {
	upper := strings.ToUpper(description)
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func categoryEquals(txn models.Transaction, key string) bool {
	return txn.Category != nil && strings.EqualFold(*txn.Category, key)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
