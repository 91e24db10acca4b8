// Package normalize turns raw parsed rows into typed rows and then into
// immutable transactions.
package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/profile"
)

// Column aliases tried in order when the profile map does not resolve a
// field. Statements are inconsistent about labels, so both the canonical
// label and the common variants are accepted.
var (
	dateAliases    = []string{"Date", "Transaction Date"}
	descAliases    = []string{"Description", "Details"}
	debitAliases   = []string{"Debit", "Withdrawal", "Withdrawals", "Paid out"}
	creditAliases  = []string{"Credit", "Deposit", "Deposits", "Paid in"}
	amountAliases  = []string{"Amount"}
	balanceAliases = []string{"Balance"}
)

var amountJunk = regexp.MustCompile(`[^0-9.\-]`)

// KnownMerchants is the fixed vocabulary used for best-effort merchant
// inference.
var KnownMerchants = []string{
	"WOOLWORTHS",
	"COLES",
	"ALDI",
	"BUNNINGS",
	"AFTERPAY",
	"ZIP PAY",
	"TELSTRA",
	"OPTUS",
	"PAYPAL",
}

const merchantScoreFloor = 70

// ParseAmount parses a monetary cell. Currency symbols and thousands
// separators are stripped; a value wrapped in parentheses or prefixed with
// '-' is negative. Malformed values (empty after cleaning, bare "-" or ".")
// report ok=false rather than zero.
func ParseAmount(value string) (amount float64, ok bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, false
	}
	negative := strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "(")
	cleaned = amountJunk.ReplaceAllString(cleaned, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	if negative && d.IsPositive() {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, true
}

// ParseDate parses a statement date with day-first disambiguation, so
// "01/02/2023" is the 1st of February, not January 2nd.
func ParseDate(value string) (time.Time, error) {
	return dateparse.ParseAny(strings.TrimSpace(value), dateparse.PreferMonthFirst(false))
}

// InferMerchant fuzzy-matches the description against the candidate
// vocabulary and returns the best candidate when its partial-ratio score
// reaches 70 on the 0-100 scale. Best-effort enrichment only.
func InferMerchant(description string, candidates []string) *string {
	upper := strings.ToUpper(description)
	bestScore := 0
	best := ""
	for _, candidate := range candidates {
		score := fuzzy.PartialRatio(upper, strings.ToUpper(candidate))
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore < merchantScoreFloor {
		return nil
	}
	return &best
}

// cell returns the first non-empty value for a canonical field: profile
// column mappings are consulted first, then the fixed alias list. Label
// comparison is case-insensitive because header casing varies between
// statements and OCR output.
func cell(raw map[string]string, p *profile.Profile, canonical string, aliases []string) (string, bool) {
	if p != nil {
		for label, mapped := range p.Columns {
			if mapped != canonical {
				continue
			}
			for key, value := range raw {
				if strings.EqualFold(key, label) && strings.TrimSpace(value) != "" {
					return value, true
				}
			}
		}
	}
	for _, alias := range aliases {
		for key, value := range raw {
			if strings.EqualFold(key, alias) && strings.TrimSpace(value) != "" {
				return value, true
			}
		}
	}
	return "", false
}

// Rows normalizes parsed rows against the selected profile. Rows with a
// missing or unparseable date are dropped silently; everything else is kept
// even when sparse.
func Rows(rows []models.ParsedRow, p *profile.Profile, merchants []string) []models.NormalizedRow {
	var out []models.NormalizedRow
	for _, row := range rows {
		dateValue, ok := cell(row.Raw, p, "date", dateAliases)
		if !ok {
			continue
		}
		date, err := ParseDate(dateValue)
		if err != nil {
			continue
		}

		description := ""
		if v, ok := cell(row.Raw, p, "description", descAliases); ok {
			if p != nil {
				description = p.Clean(v)
			} else {
				description = profile.CollapseWhitespace(v)
			}
		}

		var debit, credit, balance *float64
		if v, ok := cell(row.Raw, p, "debit", debitAliases); ok {
			if amt, ok := ParseAmount(v); ok {
				debit = &amt
			}
		}
		if v, ok := cell(row.Raw, p, "credit", creditAliases); ok {
			if amt, ok := ParseAmount(v); ok {
				credit = &amt
			}
		}
		if v, ok := cell(row.Raw, p, "balance", balanceAliases); ok {
			if amt, ok := ParseAmount(v); ok {
				balance = &amt
			}
		}

		// Reconciliation order: debit decreases, credit increases, and
		// only when both leave the amount at zero is a combined Amount
		// column consulted directly.
		amount := 0.0
		if debit != nil {
			amount -= abs(*debit)
		}
		if credit != nil {
			amount += abs(*credit)
		}
		if amount == 0 {
			if v, ok := cell(row.Raw, p, "amount", amountAliases); ok {
				if amt, ok := ParseAmount(v); ok {
					amount = amt
					if amount < 0 {
						mag := abs(amount)
						debit = &mag
						credit = nil
					} else {
						credit = &amount
						debit = nil
					}
				}
			}
		}

		out = append(out, models.NormalizedRow{
			Date:        date,
			Description: description,
			Merchant:    InferMerchant(description, merchants),
			Debit:       absPtr(debit),
			Credit:      absPtr(credit),
			Amount:      amount,
			Balance:     balance,
			Page:        row.Page,
			Raw:         row.Raw,
		})
	}
	return out
}

// Transactions synthesizes the final ledger entries. The identifier is a
// content hash over bank, page, row index, description, signed amount and
// the ISO date, so byte-identical input always reproduces the same IDs.
// Debit and credit are re-derived from the sign of the amount, discarding
// any inconsistent values carried on the normalized row.
func Transactions(rows []models.NormalizedRow, bank string) []models.Transaction {
	txns := make([]models.Transaction, 0, len(rows))
	for index, row := range rows {
		var debit, credit *float64
		if row.Amount < 0 {
			mag := abs(row.Amount)
			debit = &mag
		} else if row.Amount > 0 {
			mag := row.Amount
			credit = &mag
		}
		txns = append(txns, models.Transaction{
			ID:          identifier(bank, row.Page, index, row.Description, row.Amount, row.Date),
			Date:        row.Date,
			Description: row.Description,
			Merchant:    row.Merchant,
			Debit:       debit,
			Credit:      credit,
			Amount:      row.Amount,
			Balance:     row.Balance,
			Bank:        bank,
			Page:        row.Page,
			Raw:         row.Raw,
		})
	}
	return txns
}

func identifier(bank string, page, index int, description string, amount float64, date time.Time) string {
	src := fmt.Sprintf("%s-%d-%d-%s-%s-%s",
		bank, page, index, description,
		strconv.FormatFloat(amount, 'f', -1, 64),
		date.Format(time.RFC3339))
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])[:16]
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func absPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	mag := abs(*f)
	return &mag
}
