package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// LenderProfile reshapes transactions into the column layout a specific
// lender requires. Profiles are plain records registered in a fixed order;
// lookup is by slug.
type LenderProfile struct {
	Slug    string
	Name    string
	Columns []string
	// Transform renders one transaction into the lender's columns, in
	// the same order as Columns.
	Transform func(models.Transaction) []string
	// Validate rejects exports the lender would bounce. Nil means no
	// extra validation.
	Validate func(rows [][]string) error
}

// LenderProfiles returns the built-in lender registry.
func LenderProfiles() []LenderProfile {
	return []LenderProfile{
		{
			Slug:    "foo",
			Name:    "Foo Bank Mortgage",
			Columns: []string{"Transaction Date", "Description", "Amount", "Balance"},
			Transform: func(txn models.Transaction) []string {
				return []string{
					txn.Date.Format("02/01/2006"),
					txn.Description,
					FormatAmount(txn.Amount),
					formatOptional(txn.Balance),
				}
			},
			Validate: func(rows [][]string) error {
				for _, row := range rows {
					var amount float64
					if _, err := fmt.Sscanf(row[2], "%f", &amount); err != nil {
						return fmt.Errorf("unparseable amount %q", row[2])
					}
					if amount > 1_000_000 || amount < -1_000_000 {
						return fmt.Errorf("amount %s too large for Foo profile", row[2])
					}
				}
				return nil
			},
		},
		{
			Slug:    "bar",
			Name:    "Bar Lend Loans",
			Columns: []string{"Date", "Debit", "Credit", "Category"},
			Transform: func(txn models.Transaction) []string {
				debit, credit := "0.00", "0.00"
				if txn.Amount < 0 {
					debit = FormatAmount(-txn.Amount)
				} else if txn.Amount > 0 {
					credit = FormatAmount(txn.Amount)
				}
				category := "UNCATEGORISED"
				if txn.Category != nil {
					category = *txn.Category
				}
				return []string{txn.Date.Format("2006-01-02"), debit, credit, category}
			},
		},
	}
}

// FindLender returns the profile registered under slug, or nil.
func FindLender(slug string) *LenderProfile {
	for _, p := range LenderProfiles() {
		if p.Slug == slug {
			lp := p
			return &lp
		}
	}
	return nil
}

// WriteLenderCSV renders the bundle's transactions in the lender's layout,
// running the profile's validation first.
func WriteLenderCSV(out io.Writer, p LenderProfile, bundle models.ResultBundle) error {
	rows := make([][]string, 0, len(bundle.Transactions))
	for _, txn := range bundle.Transactions {
		rows = append(rows, p.Transform(txn))
	}
	if p.Validate != nil {
		if err := p.Validate(rows); err != nil {
			return fmt.Errorf("lender %s validation: %w", p.Slug, err)
		}
	}

	cw := csv.NewWriter(out)
	defer cw.Flush()
	if err := cw.Write(p.Columns); err != nil {
		return fmt.Errorf("write lender header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write lender row: %w", err)
		}
	}
	return cw.Error()
}
