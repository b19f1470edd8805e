// Package config handles environment-based configuration loading and the
// optional feed override file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/net/http/httpguts"

	"github.com/civitas-app/civitas/internal/feed"
)

// EnvConfig holds all environment-variable-driven settings.
type EnvConfig struct {
	// Directories
	DataDir string

	// Network
	ListenAddress string
	APIPort       int

	// Upstream
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	FeedsFile      string

	// Refresh
	RefreshTimeout  time.Duration
	RefreshSchedule string
	SnapshotTTL     time.Duration
	WarmLanguages   []string

	// Cache
	OnlineTTL     time.Duration
	OfflineTTL    time.Duration
	MemoryEntries int
	CacheWriters  int
	SweepInterval time.Duration
	Offline       bool

	// Queries
	NearbyLimit int

	// Auth
	AdminToken string

	// Logging
	LogLevel string
}

// LoadEnvConfig reads environment variables and returns a validated EnvConfig.
// Returns an error if any required variable is missing or any value is invalid.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	var errs []string

	// --- Directories ---
	cfg.DataDir = envStr("CIVITAS_DATA_DIR", "/var/lib/civitas")

	// --- Network ---
	cfg.ListenAddress = strings.TrimSpace(envStr("CIVITAS_LISTEN_ADDRESS", "0.0.0.0"))
	cfg.APIPort = envInt("CIVITAS_PORT", 8480, &errs)

	// --- Upstream ---
	cfg.UserAgent = strings.TrimSpace(envStr("CIVITAS_USER_AGENT", "civitas"))
	cfg.ConnectTimeout = envDuration("CIVITAS_CONNECT_TIMEOUT", 15*time.Second, &errs)
	cfg.ReadTimeout = envDuration("CIVITAS_READ_TIMEOUT", 30*time.Second, &errs)
	cfg.FeedsFile = envStr("CIVITAS_FEEDS_FILE", "")

	// --- Refresh ---
	cfg.RefreshTimeout = envDuration("CIVITAS_REFRESH_TIMEOUT", 30*time.Second, &errs)
	cfg.RefreshSchedule = envStr("CIVITAS_REFRESH_SCHEDULE", "*/2 * * * *")
	cfg.SnapshotTTL = envDuration("CIVITAS_SNAPSHOT_TTL", 30*time.Second, &errs)
	cfg.WarmLanguages = envStringSlice("CIVITAS_WARM_LANGUAGES", []string{feed.DefaultLanguage}, &errs)

	// --- Cache ---
	cfg.OnlineTTL = envDuration("CIVITAS_CACHE_ONLINE_TTL", 2*time.Minute, &errs)
	cfg.OfflineTTL = envDuration("CIVITAS_CACHE_OFFLINE_TTL", 6*time.Hour, &errs)
	cfg.MemoryEntries = envInt("CIVITAS_CACHE_MEMORY_ENTRIES", 10, &errs)
	cfg.CacheWriters = envInt("CIVITAS_CACHE_WRITERS", 4, &errs)
	cfg.SweepInterval = envDuration("CIVITAS_CACHE_SWEEP_INTERVAL", 10*time.Minute, &errs)
	cfg.Offline = envBool("CIVITAS_OFFLINE", false, &errs)

	// --- Queries ---
	cfg.NearbyLimit = envInt("CIVITAS_NEARBY_LIMIT", 10, &errs)

	// --- Auth (must be defined; empty means admin endpoints disabled) ---
	adminToken, hasAdminToken := os.LookupEnv("CIVITAS_ADMIN_TOKEN")
	cfg.AdminToken = adminToken

	// --- Logging ---
	cfg.LogLevel = envStr("CIVITAS_LOG_LEVEL", "info")

	// --- Validation ---
	if !hasAdminToken {
		errs = append(errs, "CIVITAS_ADMIN_TOKEN must be defined (can be empty)")
	}
	if cfg.ListenAddress == "" {
		errs = append(errs, "CIVITAS_LISTEN_ADDRESS must not be empty")
	}
	validatePort("CIVITAS_PORT", cfg.APIPort, &errs)

	if cfg.UserAgent == "" || !httpguts.ValidHeaderFieldValue(cfg.UserAgent) {
		errs = append(errs, fmt.Sprintf("CIVITAS_USER_AGENT: invalid header value %q", cfg.UserAgent))
	}
	if cfg.ConnectTimeout <= 0 {
		errs = append(errs, "CIVITAS_CONNECT_TIMEOUT must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, "CIVITAS_READ_TIMEOUT must be positive")
	}

	if cfg.RefreshTimeout <= 0 {
		errs = append(errs, "CIVITAS_REFRESH_TIMEOUT must be positive")
	}
	if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("CIVITAS_REFRESH_SCHEDULE: invalid cron expression %q: %v", cfg.RefreshSchedule, err))
	}
	if cfg.SnapshotTTL <= 0 {
		errs = append(errs, "CIVITAS_SNAPSHOT_TTL must be positive")
	}
	if len(cfg.WarmLanguages) == 0 {
		errs = append(errs, "CIVITAS_WARM_LANGUAGES must not be empty")
	}
	for i, lang := range cfg.WarmLanguages {
		cfg.WarmLanguages[i] = feed.NormalizeLanguage(lang)
	}

	if cfg.OnlineTTL <= 0 {
		errs = append(errs, "CIVITAS_CACHE_ONLINE_TTL must be positive")
	}
	if cfg.OfflineTTL <= 0 {
		errs = append(errs, "CIVITAS_CACHE_OFFLINE_TTL must be positive")
	}
	if cfg.OfflineTTL < cfg.OnlineTTL {
		errs = append(errs, "CIVITAS_CACHE_OFFLINE_TTL must be at least CIVITAS_CACHE_ONLINE_TTL")
	}
	validatePositive("CIVITAS_CACHE_MEMORY_ENTRIES", cfg.MemoryEntries, &errs)
	validatePositive("CIVITAS_CACHE_WRITERS", cfg.CacheWriters, &errs)
	if cfg.SweepInterval <= 0 {
		errs = append(errs, "CIVITAS_CACHE_SWEEP_INTERVAL must be positive")
	}

	validatePositive("CIVITAS_NEARBY_LIMIT", cfg.NearbyLimit, &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	return cfg, nil
}

// --- helpers ---

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal time.Duration, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return defaultVal
	}
	return d
}

func envBool(key string, defaultVal bool, errs *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
		return defaultVal
	}
	return b
}

func envStringSlice(key string, defaultVal []string, errs *[]string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid JSON string array %q", key, v))
		return defaultVal
	}
	if out == nil {
		return []string{}
	}
	return out
}

func validatePort(name string, value int, errs *[]string) {
	if value < 1 || value > 65535 {
		*errs = append(*errs, fmt.Sprintf("%s: port must be 1-65535, got %d", name, value))
	}
}

func validatePositive(name string, value int, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be positive, got %d", name, value))
	}
}
