package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Errorf("addr: got %q", cfg.Addr)
	}
	if cfg.Currency != "AUD" {
		t.Errorf("currency: got %q", cfg.Currency)
	}
	if cfg.JobTTL != 2*time.Hour {
		t.Errorf("job ttl: got %s", cfg.JobTTL)
	}
	if cfg.MaxUploadSizeBytes != 32<<20 {
		t.Errorf("max upload: got %d", cfg.MaxUploadSizeBytes)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("CURRENCY", "NZD")
	t.Setenv("JOB_TTL", "45m")
	t.Setenv("LICENSE_BYPASS", "true")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Errorf("addr: got %q", cfg.Addr)
	}
	if cfg.Currency != "NZD" {
		t.Errorf("currency: got %q", cfg.Currency)
	}
	if cfg.JobTTL != 45*time.Minute {
		t.Errorf("job ttl: got %s", cfg.JobTTL)
	}
	if !cfg.LicenseBypass {
		t.Error("license bypass not read")
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JOB_TTL", "not-a-duration")
	cfg := Load()
	if cfg.JobTTL != 2*time.Hour {
		t.Errorf("expected fallback ttl, got %s", cfg.JobTTL)
	}
}

func TestEmbeddedCategorizer(t *testing.T) {
	cfg := Config{}
	c, err := cfg.Categorizer()
	if err != nil {
		t.Fatal(err)
	}

	categories := c.Categories()
	if len(categories) == 0 || categories[0] != "rent" {
		t.Fatalf("rent must be the first rule, got %v", categories)
	}

	// "RENT" precedes groceries, so a description matching both resolves
	// to the earlier rule.
	if got := c.Categorize("RENT PAID VIA WOOLWORTHS KIOSK"); got == nil || *got != "rent" {
		t.Errorf("got %v, want rent", got)
	}
	if got := c.Categorize("EFTPOS ALDI 332"); got == nil || *got != "groceries" {
		t.Errorf("got %v, want groceries", got)
	}
	if got := c.Categorize("SALARY ACME PTY LTD"); got == nil || *got != "income" {
		t.Errorf("got %v, want income", got)
	}
}

func TestCategorizerPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	custom := "categories:\n  coffee:\n    - ESPRESSO\n"
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{CategoryRulesPath: path}
	c, err := cfg.Categorizer()
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Categorize("ESPRESSO BAR"); got == nil || *got != "coffee" {
		t.Errorf("override rules not used: got %v", got)
	}
	if got := c.Categorize("RENT"); got != nil {
		t.Errorf("embedded rules must not leak through an override: got %q", *got)
	}
}
