package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/FastBound/Support/internal/domain"
)

// Config is the shared configuration for the support tools. Everything
// loads from environment variables (the CLIs also read a .env file) so a
// scheduled task needs no command line beyond the tool name.
type Config struct {
	FastBound struct {
		Server         string
		Account        string
		APIKey         string
		AuditUser      string
		TimeoutSeconds int
		Max429Retries  int
		RateMargin     int
	}
	Cache struct {
		Backend string // "csv" (default), "redis", or "none"
		Path    string // csv backend: cache file path
		Redis   struct {
			Addr     string
			Password string
			DB       int
		}
		TTLHours int // redis backend: 0 means no expiry
	}
	Import struct {
		SkipInvalidRows           bool
		SuppressDispositionEmails bool
		DispositionMapPath        string // optional JSON override of the type mapping
	}
	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}

	cfg.FastBound.Server = getEnv("FASTBOUND_SERVER", "https://cloud.fastbound.com")
	cfg.FastBound.Account = getEnv("FASTBOUND_ACCOUNT", "")
	cfg.FastBound.APIKey = getEnv("FASTBOUND_API_KEY", "")
	cfg.FastBound.AuditUser = getEnv("FASTBOUND_AUDIT_USER", "")
	cfg.FastBound.TimeoutSeconds = parseInt(getEnv("FASTBOUND_TIMEOUT_SECONDS", "30"), 30)
	cfg.FastBound.Max429Retries = parseInt(getEnv("FASTBOUND_MAX_429_RETRIES", "5"), 5)
	cfg.FastBound.RateMargin = parseInt(getEnv("FASTBOUND_RATE_MARGIN", "5"), 5)

	cfg.Cache.Backend = getEnv("CONTACT_CACHE_BACKEND", "csv")
	cfg.Cache.Path = getEnv("CONTACT_CACHE_PATH", "contact-cache.csv")
	cfg.Cache.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Cache.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Cache.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Cache.TTLHours = parseInt(getEnv("CONTACT_CACHE_TTL_HOURS", "0"), 0)

	cfg.Import.SkipInvalidRows = getEnv("IMPORT_SKIP_INVALID", "true") == "true"
	cfg.Import.SuppressDispositionEmails = getEnv("IMPORT_SUPPRESS_DISPOSITION_EMAILS", "true") == "true"
	cfg.Import.DispositionMapPath = getEnv("IMPORT_DISPOSITION_MAP", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// Validate reports the problems that make the tools unusable. Warnings
// (like a suspicious key length) are logged by the CLIs, not returned here.
func (c *Config) Validate() []error {
	var errs []error
	if c.FastBound.Account == "" {
		errs = append(errs, fmt.Errorf("FASTBOUND_ACCOUNT is required"))
	}
	if c.FastBound.APIKey == "" {
		errs = append(errs, fmt.Errorf("FASTBOUND_API_KEY is required"))
	}
	if c.FastBound.AuditUser == "" {
		errs = append(errs, fmt.Errorf("FASTBOUND_AUDIT_USER is required"))
	}
	switch c.Cache.Backend {
	case "csv", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("CONTACT_CACHE_BACKEND must be csv, redis, or none (got %q)", c.Cache.Backend))
	}
	return errs
}

// DispositionTypes loads the disposition-type mapping: the configured JSON
// override when set, otherwise the built-in defaults.
func (c *Config) DispositionTypes() (domain.DispositionTypeMap, error) {
	if c.Import.DispositionMapPath == "" {
		return domain.DefaultDispositionTypeMap(), nil
	}
	b, err := os.ReadFile(c.Import.DispositionMapPath)
	if err != nil {
		return nil, fmt.Errorf("reading disposition map: %w", err)
	}
	var m domain.DispositionTypeMap
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing disposition map %s: %w", c.Import.DispositionMapPath, err)
	}
	return m, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
