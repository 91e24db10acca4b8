// Package config loads process configuration once at startup. Rule
// configuration (category patterns) ships embedded and can be overridden
// with a file path; everything else comes from the environment. The loaded
// values are passed into the pipeline as plain values, never read again as
// ambient state.
package config

import (
	_ "embed"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/insightdelivered/statement-normalizer/internal/categorize"
)

//go:embed categories.yaml
var defaultCategoryRules []byte

// Config holds the service and CLI settings.
type Config struct {
	Addr     string
	LogLevel string
	Currency string

	LicenseDBPath string
	LicenseSecret string
	LicenseBypass bool

	CategoryRulesPath string

	JobTTL             time.Duration
	MaxUploadSizeBytes int64
}

// Load reads configuration from the environment, after sourcing an
// optional .env file.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println(".env file loaded")
	}

	secret := getEnv("LICENSE_SECRET", "dev-secret")
	if secret == "dev-secret" {
		log.Println("WARNING: using default LICENSE_SECRET; set LICENSE_SECRET for production")
	}

	return Config{
		Addr:               getEnv("ADDR", ":8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Currency:           getEnv("CURRENCY", "AUD"),
		LicenseDBPath:      getEnv("LICENSE_DB", "./licenses.db"),
		LicenseSecret:      secret,
		LicenseBypass:      getEnvBool("LICENSE_BYPASS", false),
		CategoryRulesPath:  getEnv("CATEGORY_RULES", ""),
		JobTTL:             getEnvDuration("JOB_TTL", 2*time.Hour),
		MaxUploadSizeBytes: getEnvInt64("MAX_UPLOAD_SIZE_BYTES", 32<<20),
	}
}

// Categorizer builds the categorizer from the configured rule file, or the
// embedded defaults when no override is set. Failure here is fatal at
// startup, not per row.
func (c Config) Categorizer() (*categorize.Categorizer, error) {
	if c.CategoryRulesPath != "" {
		return categorize.Load(c.CategoryRulesPath)
	}
	return categorize.Parse(defaultCategoryRules)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return parsed
}
