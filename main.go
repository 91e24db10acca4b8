package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/api"
	"github.com/insightdelivered/statement-normalizer/internal/categorize"
	"github.com/insightdelivered/statement-normalizer/internal/config"
	"github.com/insightdelivered/statement-normalizer/internal/license"
	"github.com/insightdelivered/statement-normalizer/internal/logging"
	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/normalize"
	"github.com/insightdelivered/statement-normalizer/internal/pipeline"
	"github.com/insightdelivered/statement-normalizer/internal/profile"
	"github.com/insightdelivered/statement-normalizer/internal/writer"
)

const version = "1.0.0"

func main() {
	outFlag := flag.String("out", "out", "Output directory for exports")
	xlsxFlag := flag.Bool("xlsx", false, "Also write XLSX workbooks")
	jsonFlag := flag.Bool("json", false, "Also write result bundles as JSON")
	lenderFlag := flag.String("lender", "", "Additionally export in a lender profile layout (foo, bar)")
	banksFlag := flag.Bool("banks", false, "List registered bank profiles and exit")
	lendersFlag := flag.Bool("lenders", false, "List registered lender profiles and exit")
	serveFlag := flag.Bool("serve", false, "Run the HTTP service instead of converting files")
	genLicenseFlag := flag.String("gen-license", "", "Generate a signed license token for the given 'id,email' and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Normalizer
by Insight Delivered

Turns bank statement documents (PDF or extracted text) into a normalized
transaction ledger with recurring-payment and liability summaries.

Usage:
  statement-normalizer [flags] <statement.pdf> [statement2.pdf ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert statements to CSV
  statement-normalizer jan.pdf feb.pdf

  # CSV + XLSX + JSON bundles into ./exports
  statement-normalizer -out=exports -xlsx -json statement.pdf

  # Lender-specific export layout
  statement-normalizer -lender=foo statement.pdf

  # Run the upload/convert HTTP service
  statement-normalizer -serve
`)
	}
	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-normalizer v%s\n", version)
		return
	}
	if *banksFlag {
		for _, p := range profile.DefaultProfiles() {
			fmt.Printf("%-10s keywords: %s\n", p.Name, strings.Join(p.Keywords, ", "))
		}
		return
	}
	if *lendersFlag {
		for _, p := range writer.LenderProfiles() {
			fmt.Printf("%s: %s\n", p.Slug, p.Name)
		}
		return
	}

	cfg := config.Load()

	if *genLicenseFlag != "" {
		if err := generateLicense(cfg, *genLicenseFlag); err != nil {
			fatalf("license generation failed: %v\n", err)
		}
		return
	}

	categorizer, err := cfg.Categorizer()
	if err != nil {
		fatalf("configuration error: %v\n", err)
	}

	if *serveFlag {
		serve(cfg, categorizer)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	log := logging.NewTextLogger(os.Stderr, "warn")
	p := pipeline.New(profile.DefaultProfiles(), categorizer, normalize.KnownMerchants, cfg.Currency, log)

	var lender *writer.LenderProfile
	if *lenderFlag != "" {
		lender = writer.FindLender(*lenderFlag)
		if lender == nil {
			fatalf("unknown lender profile %q\n", *lenderFlag)
		}
	}

	bundles, err := p.ProcessFiles(context.Background(), flag.Args())
	if err != nil {
		fatalf("error: %v\n", err)
	}

	for i, bundle := range bundles {
		if err := exportBundle(bundle, i, *outFlag, *xlsxFlag, *jsonFlag, lender); err != nil {
			fatalf("error exporting %s: %v\n", flag.Arg(i), err)
		}
		fmt.Printf("%s: bank=%s transactions=%d", flag.Arg(i), bundle.Meta.Bank, len(bundle.Transactions))
		if period := pipeline.PeriodLabel(bundle.Meta); period != "" {
			fmt.Printf(" period=%s", period)
		}
		fmt.Println()
		for _, warning := range bundle.Meta.Warnings {
			fmt.Printf("  warning: %s\n", warning)
		}
	}
}

func exportBundle(bundle models.ResultBundle, index int, outDir string, withXLSX, withJSON bool, lender *writer.LenderProfile) error {
	stem := strings.ReplaceAll(bundle.Meta.Bank, " ", "_")
	if stem == "" {
		stem = "bundle"
	}
	if index > 0 {
		stem = fmt.Sprintf("%s_%d", stem, index)
	}

	csvPath := filepath.Join(outDir, stem+".csv")
	cw := &writer.CSVWriter{IncludeMeta: true}
	if err := cw.WriteFile(csvPath, bundle); err != nil {
		return err
	}
	fmt.Printf("  wrote %s\n", csvPath)

	if withXLSX {
		xlsxPath := filepath.Join(outDir, stem+".xlsx")
		xw := &writer.XLSXWriter{}
		if err := xw.WriteFile(xlsxPath, bundle); err != nil {
			return err
		}
		fmt.Printf("  wrote %s\n", xlsxPath)
	}

	if withJSON {
		jsonPath := filepath.Join(outDir, stem+".json")
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("  wrote %s\n", jsonPath)
	}

	if lender != nil {
		lenderPath := filepath.Join(outDir, lender.Slug+"_"+stem+".csv")
		f, err := os.Create(lenderPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := writer.WriteLenderCSV(f, *lender, bundle); err != nil {
			return err
		}
		fmt.Printf("  wrote %s\n", lenderPath)
	}
	return nil
}

func serve(cfg config.Config, categorizer *categorize.Categorizer) {
	log := logging.NewJSONLogger("statement-normalizer", cfg.LogLevel)

	store, err := license.OpenStore(cfg.LicenseDBPath)
	if err != nil {
		fatalf("license store: %v\n", err)
	}
	defer store.Close()
	verifier := license.NewVerifier(cfg.LicenseSecret, store)
	verifier.Bypass = cfg.LicenseBypass

	p := pipeline.New(profile.DefaultProfiles(), categorizer, normalize.KnownMerchants, cfg.Currency, log)

	server := api.NewServer(p, verifier, log, cfg.JobTTL, cfg.MaxUploadSizeBytes)
	log.Info("listening", "addr", cfg.Addr)
	if err := server.App().Listen(cfg.Addr); err != nil {
		fatalf("server error: %v\n", err)
	}
}

func generateLicense(cfg config.Config, arg string) error {
	id, email, _ := strings.Cut(arg, ",")
	if id == "" {
		return fmt.Errorf("expected 'id,email', got %q", arg)
	}
	store, err := license.OpenStore(cfg.LicenseDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Upsert(license.Record{ID: id, CustomerEmail: email, Active: true}); err != nil {
		return err
	}
	fmt.Println(license.NewVerifier(cfg.LicenseSecret, store).Sign(id))
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
