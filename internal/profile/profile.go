// Package profile holds the bank detection and column-mapping rules. Each
// profile is a plain record registered at startup; registration order is
// the tie-break for detection, so the registry is a slice, never a map.
package profile

import (
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// Profile describes one bank's statement format: how to recognise it, how
// its column labels map onto canonical fields, and how to clean its
// descriptions.
type Profile struct {
	// Name is the display name attached to transactions.
	Name string
	// Keywords are phrases searched for (case-insensitively) in the full
	// statement text. The detection score is matched/total in [0,1].
	Keywords []string
	// Columns maps raw header labels to canonical field names
	// (date, description, debit, credit, amount, balance).
	Columns map[string]string
	// CleanDescription normalises a raw description cell. Nil means
	// whitespace collapsing only.
	CleanDescription func(string) string
}

// Detect scores the profile against the statement's combined text.
func (p Profile) Detect(st models.Statement) float64 {
	if len(p.Keywords) == 0 {
		return 0
	}
	text := strings.ToUpper(st.CombinedText())
	hits := 0
	for _, kw := range p.Keywords {
		if strings.Contains(text, strings.ToUpper(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(p.Keywords))
}

// Clean applies the profile's description cleaner, defaulting to
// whitespace collapsing.
func (p Profile) Clean(value string) string {
	if p.CleanDescription != nil {
		return p.CleanDescription(value)
	}
	return CollapseWhitespace(value)
}

// CollapseWhitespace squeezes runs of whitespace into single spaces.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Select returns the best-matching profile, or nil when no profile scores
// above zero. Ties keep the earliest-registered profile: the comparison is
// a strict greater-than over the slice in registration order.
func Select(st models.Statement, profiles []Profile) *Profile {
	var best *Profile
	bestScore := 0.0
	for i := range profiles {
		score := profiles[i].Detect(st)
		if score > bestScore {
			bestScore = score
			best = &profiles[i]
		}
	}
	return best
}

// DefaultProfiles returns the built-in registry in priority order.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:     "ANZ",
			Keywords: []string{"ANZ", "AUSTRALIA AND NEW ZEALAND"},
			Columns: map[string]string{
				"Date":        "date",
				"Description": "description",
				"Debit":       "debit",
				"Credit":      "credit",
				"Balance":     "balance",
			},
		},
		{
			Name:     "CBA",
			Keywords: []string{"COMMONWEALTH BANK", "CBA"},
			Columns: map[string]string{
				"Date":        "date",
				"Description": "description",
				"Withdrawal":  "debit",
				"Deposit":     "credit",
				"Balance":     "balance",
			},
		},
		{
			Name:     "NAB",
			Keywords: []string{"NATIONAL AUSTRALIA BANK", "NAB"},
			Columns: map[string]string{
				"Date":        "date",
				"Description": "description",
				"Debit":       "debit",
				"Credit":      "credit",
				"Balance":     "balance",
			},
		},
		{
			Name:     "Westpac",
			Keywords: []string{"WESTPAC", "WBC"},
			Columns: map[string]string{
				"Date":        "date",
				"Details":     "description",
				"Withdrawals": "debit",
				"Deposits":    "credit",
				"Balance":     "balance",
			},
		},
	}
}
