// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthConfig holds bearer-token authentication configuration for the HTTP
// façade. The dispatcher itself is auth-agnostic; this only controls how
// internal/httpapi/authctx turns a request into a domain.ContextPrincipal.
type AuthConfig struct {
	JWTSecret  string // HS256 shared secret for verifying bearer tokens
	Audience   string // required JWT audience claim, if any
	NameClaim  string // JWT claim used as the principal name (default "sub")
	AdminClaim string // JWT boolean claim marking a principal as admin
}

// Config holds the dispatcher's runtime configuration.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	StorePath  string // path to the SQLite entity store file
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// LockGCInterval controls how often the hierarchical lock manager
	// prunes idle subtrees with no live references.
	LockGCInterval time.Duration

	// ReconcileInterval controls the cadence of the best-effort background
	// reconciliation sweep. Zero disables the sweeper.
	ReconcileInterval time.Duration

	// RateLimitRPS/RateLimitBurst bound calls into backend catalogs.
	RateLimitRPS   float64
	RateLimitBurst int

	// CORS
	CORSAllowedOrigins []string

	Auth AuthConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// yamlOverlay is the shape of the optional YAML config file layered under
// environment variables. Only fields present in the file override defaults;
// environment variables always win over both.
type yamlOverlay struct {
	ListenAddr        string   `yaml:"listen_addr"`
	StorePath         string   `yaml:"store_path"`
	LogLevel          string   `yaml:"log_level"`
	Env               string   `yaml:"env"`
	LockGCInterval    string   `yaml:"lock_gc_interval"`
	ReconcileInterval string   `yaml:"reconcile_interval"`
	RateLimitRPS      float64  `yaml:"rate_limit_rps"`
	RateLimitBurst    int      `yaml:"rate_limit_burst"`
	CORSOrigins       []string `yaml:"cors_allowed_origins"`
}

// LoadFromEnv loads configuration from environment variables, optionally
// layered on top of a YAML file named by CONFIG_FILE.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		overlay, err := loadYAMLOverlay(path)
		if err != nil {
			return nil, err
		}
		applyYAMLOverlay(cfg, overlay)
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("LOCK_GC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LockGCInterval = d
		}
	}
	if v := os.Getenv("RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReconcileInterval = d
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	cfg.Auth = AuthConfig{
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Audience:   os.Getenv("JWT_AUDIENCE"),
		NameClaim:  os.Getenv("JWT_NAME_CLAIM"),
		AdminClaim: os.Getenv("JWT_ADMIN_CLAIM"),
	}
	if cfg.Auth.NameClaim == "" {
		cfg.Auth.NameClaim = "sub"
	}

	// Defaults
	if cfg.StorePath == "" {
		cfg.StorePath = "metacat.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LockGCInterval == 0 {
		cfg.LockGCInterval = 5 * time.Minute
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = 10 * time.Minute
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set — the HTTP façade will reject all bearer tokens")
	}

	if cfg.IsProduction() {
		if cfg.Auth.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func loadYAMLOverlay(path string) (*yamlOverlay, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return &yamlOverlay{}, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &overlay, nil
}

func applyYAMLOverlay(cfg *Config, overlay *yamlOverlay) {
	cfg.ListenAddr = overlay.ListenAddr
	cfg.StorePath = overlay.StorePath
	cfg.LogLevel = overlay.LogLevel
	cfg.Env = overlay.Env
	cfg.RateLimitRPS = overlay.RateLimitRPS
	cfg.RateLimitBurst = overlay.RateLimitBurst
	cfg.CORSAllowedOrigins = overlay.CORSOrigins
	if overlay.LockGCInterval != "" {
		if d, err := time.ParseDuration(overlay.LockGCInterval); err == nil {
			cfg.LockGCInterval = d
		}
	}
	if overlay.ReconcileInterval != "" {
		if d, err := time.ParseDuration(overlay.ReconcileInterval); err == nil {
			cfg.ReconcileInterval = d
		}
	}
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
