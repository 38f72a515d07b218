package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects how the data-access layer reaches storage.
const (
	// ModeAuto probes the API on every call and falls back to local storage.
	ModeAuto = "auto"
	// ModeLocal never touches the network.
	ModeLocal = "local"
)

// DefaultAPIBase is the collection API root used when nothing is configured.
const DefaultAPIBase = "http://localhost:3000/api"

// Config holds application configuration.
type Config struct {
	// APIBase is the root URL of the collection API (e.g. http://localhost:3000/api)
	APIBase string `json:"api_base,omitempty"`

	// Mode is "auto" (API with local fallback) or "local" (local storage only)
	Mode string `json:"mode,omitempty"`

	// RequestTimeoutSeconds bounds every API request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// ListLimit is the page size requested from the API when loading all entries.
	ListLimit int `json:"list_limit,omitempty"`

	// DatabaseURL selects the store behind `mdc api`.
	// Empty means SQLite under the base dir; postgres:// URLs use pgx.
	DatabaseURL string `json:"database_url,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// AllowedPaths lists extra absolute directories export and import may use,
	// besides <base dir>/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction on export and import.
	// Symlink checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBase:               DefaultAPIBase,
		Mode:                  ModeAuto,
		RequestTimeoutSeconds: 5,
		ListLimit:             100,
	}
}

// RequestTimeout returns the configured request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ForceLocal reports whether the API must not be contacted.
func (c *Config) ForceLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Mode), ModeLocal)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", ModeAuto, ModeLocal:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeAuto, ModeLocal, c.Mode)
	}
	if c.ListLimit < 0 {
		return fmt.Errorf("list_limit must be >= 0, got %d", c.ListLimit)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.mdc.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithEnv loads baseDir/config.json, then applies .env files found in
// baseDir and the working directory, then MDC_* environment variables.
// Variables already set in the process environment are never overwritten
// by .env files.
func LoadWithEnv(baseDir string) (*Config, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(baseDir, ".env"), ".env"); err != nil {
		return nil, err
	}

	cfg = Merge(cfg, FromEnv())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds an overlay config from MDC_* environment variables.
// Unset variables leave the corresponding fields zero.
func FromEnv() *Config {
	return &Config{
		APIBase:               getEnv("MDC_API_BASE", ""),
		Mode:                  getEnv("MDC_MODE", ""),
		DatabaseURL:           getEnv("MDC_DATABASE_URL", ""),
		RequestTimeoutSeconds: getIntEnv("MDC_REQUEST_TIMEOUT_SECONDS", 0),
	}
}

func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		APIBase:               firstString(overlay.APIBase, base.APIBase),
		Mode:                  firstString(overlay.Mode, base.Mode),
		DatabaseURL:           firstString(overlay.DatabaseURL, base.DatabaseURL),
		RequestTimeoutSeconds: firstInt(overlay.RequestTimeoutSeconds, base.RequestTimeoutSeconds),
		ListLimit:             firstInt(overlay.ListLimit, base.ListLimit),
		DBMaxOpenConns:        firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:        firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		AllowUnsafePaths:      overlay.AllowUnsafePaths || base.AllowUnsafePaths,
	}

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
