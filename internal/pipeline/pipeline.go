// Package pipeline runs one statement through the normalization chain and
// assembles the result bundle. Runs are stateless: all configuration is
// carried as values on the Pipeline, so concurrent runs share nothing
// mutable.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/statement-normalizer/internal/categorize"
	"github.com/insightdelivered/statement-normalizer/internal/extractor"
	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/normalize"
	"github.com/insightdelivered/statement-normalizer/internal/profile"
	"github.com/insightdelivered/statement-normalizer/internal/recurring"
	"github.com/insightdelivered/statement-normalizer/internal/summary"
	"github.com/insightdelivered/statement-normalizer/internal/table"
)

const unknownBank = "Unknown"

// accountNumberPattern matches the 8-digit account numbers printed on
// statement headers; only the last four digits are surfaced.
var accountNumberPattern = regexp.MustCompile(`\b(\d{8})\b`)

// Pipeline holds the rule configuration for statement runs. Build one at
// startup and reuse it; it is safe for concurrent use.
type Pipeline struct {
	Profiles    []profile.Profile
	Categorizer *categorize.Categorizer
	Merchants   []string
	Currency    string
	Log         *slog.Logger
}

// New assembles a pipeline. Nil logger means logging is discarded.
func New(profiles []profile.Profile, cat *categorize.Categorizer, merchants []string, currency string, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if currency == "" {
		currency = "AUD"
	}
	if merchants == nil {
		merchants = normalize.KnownMerchants
	}
	return &Pipeline{
		Profiles:    profiles,
		Categorizer: cat,
		Merchants:   merchants,
		Currency:    currency,
		Log:         log,
	}
}

// Process runs a single statement through the chain. Unknown formats
// degrade to an empty ledger with a warning; only the caller-supplied
// statement itself can be fatal, and that happens before this point.
func (p *Pipeline) Process(st models.Statement) models.ResultBundle {
	selected := profile.Select(st, p.Profiles)
	bank := unknownBank
	if selected != nil {
		bank = selected.Name
	}

	rows := table.ParseRows(st)

	var normalized []models.NormalizedRow
	if selected != nil {
		// Without a profile there is no column mapping to normalize
		// against, so an unrecognised bank yields zero rows by design.
		normalized = normalize.Rows(rows, selected, p.Merchants)
	}
	transactions := normalize.Transactions(normalized, bank)

	if p.Categorizer != nil {
		for i := range transactions {
			transactions[i].Category = p.Categorizer.Categorize(transactions[i].Description)
		}
	}

	series := recurring.Detect(transactions)
	sum := summary.Build(transactions, series)
	meta := p.buildMeta(st, bank, transactions)

	p.Log.Info("statement processed",
		"path", st.Path,
		"bank", bank,
		"pages", len(st.Pages),
		"rows", len(rows),
		"transactions", len(transactions),
		"recurring", len(series),
	)

	return models.ResultBundle{
		Meta:         meta,
		Transactions: transactions,
		Liabilities:  sum.Liabilities,
		Summary:      sum,
	}
}

// ProcessFile reads a document from disk and processes it. Extraction
// failure is the one fatal error class: the document could not be read.
func (p *Pipeline) ProcessFile(path string) (models.ResultBundle, error) {
	st, err := extractor.ReadStatement(path)
	if err != nil {
		return models.ResultBundle{}, err
	}
	return p.Process(st), nil
}

// ProcessFiles processes several documents concurrently. Statements are
// independent, so the fan-out is bounded only to keep file handles in
// check; results come back in input order. The first extraction error
// cancels the remaining reads.
func (p *Pipeline) ProcessFiles(ctx context.Context, paths []string) ([]models.ResultBundle, error) {
	bundles := make([]models.ResultBundle, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bundle, err := p.ProcessFile(path)
			if err != nil {
				return err
			}
			bundles[i] = bundle
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}

func (p *Pipeline) buildMeta(st models.Statement, bank string, transactions []models.Transaction) models.StatementMeta {
	meta := models.StatementMeta{
		Bank:     bank,
		Currency: p.Currency,
		Pages:    len(st.Pages),
		Warnings: []string{},
	}

	if m := accountNumberPattern.FindString(st.CombinedText()); m != "" {
		last4 := m[len(m)-4:]
		meta.AccountLast4 = &last4
	}

	if len(transactions) == 0 {
		meta.Warnings = append(meta.Warnings, "No transactions detected")
		return meta
	}

	start, end := transactions[0].Date, transactions[0].Date
	for _, txn := range transactions[1:] {
		if txn.Date.Before(start) {
			start = txn.Date
		}
		if txn.Date.After(end) {
			end = txn.Date
		}
	}
	meta.PeriodStart = &start
	meta.PeriodEnd = &end
	return meta
}

// PeriodLabel formats the statement period for display, empty when no
// transactions were found.
func PeriodLabel(meta models.StatementMeta) string {
	if meta.PeriodStart == nil || meta.PeriodEnd == nil {
		return ""
	}
	const layout = "2006-01-02"
	return meta.PeriodStart.Format(layout) + " to " + meta.PeriodEnd.Format(layout)
}
