// Package config resolves the explorer's runtime configuration from CLI
// flags, IROHA_EXPLORER_-prefixed environment variables, and an optional
// .env file, in that precedence order (flags win).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ConfigError marks a fatal, startup-only configuration problem: a missing
// required argument or an unparsable value. main exits non-zero on it.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %s: %s", e.Field, e.Message) }

// Config is the resolved configuration for `serve` (and, minus the peer
// list, for `serve-sample`).
type Config struct {
	Port                 int
	ToriiURLs            []string
	Account              string
	AccountPrivateKey    string
	NoTelemetry          bool
	LogLevel             string
	LogFormat            string
	StorePath            string
}

// LoadDotEnv loads a .env file from the working directory if present. It is
// not an error for the file to be absent; any other read error is reported
// so a malformed .env doesn't fail silently.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		return &ConfigError{Field: "dotenv", Message: err.Error()}
	}
	return nil
}

// FlagOverrides carries the subset of `serve`'s flags that, when set,
// override the corresponding environment variable.
type FlagOverrides struct {
	Port              *int
	ToriiURLs         *string
	Account           *string
	AccountPrivateKey *string
	NoTelemetry       *bool
	StorePath         *string
}

// Load resolves Config from environment variables, then applies any
// non-nil flag overrides. --torii-urls / IROHA_EXPLORER_TORII_URLS is
// comma-separated; at least one peer URL is required for `serve` (not for
// `serve-sample`, which the caller validates separately).
func Load(overrides FlagOverrides) (Config, error) {
	cfg := Config{
		Port:      envInt("PORT", 8080),
		ToriiURLs: splitCSV(os.Getenv("IROHA_EXPLORER_TORII_URLS")),
		Account:   os.Getenv("IROHA_EXPLORER_ACCOUNT"),
		AccountPrivateKey: os.Getenv("IROHA_EXPLORER_ACCOUNT_PRIVATE_KEY"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
		StorePath: envOr("IROHA_EXPLORER_STORE_PATH", ":memory:"),
	}

	if overrides.Port != nil {
		cfg.Port = *overrides.Port
	}
	if overrides.ToriiURLs != nil {
		cfg.ToriiURLs = splitCSV(*overrides.ToriiURLs)
	}
	if overrides.Account != nil {
		cfg.Account = *overrides.Account
	}
	if overrides.AccountPrivateKey != nil {
		cfg.AccountPrivateKey = *overrides.AccountPrivateKey
	}
	if overrides.NoTelemetry != nil {
		cfg.NoTelemetry = *overrides.NoTelemetry
	}
	if overrides.StorePath != nil {
		cfg.StorePath = *overrides.StorePath
	}

	return cfg, nil
}

// ValidateServe checks the invariants `serve` requires: at least one peer
// URL, a usable port.
func (c Config) ValidateServe() error {
	if len(c.ToriiURLs) == 0 {
		return &ConfigError{Field: "torii-urls", Message: "at least one peer URL is required (--torii-urls or IROHA_EXPLORER_TORII_URLS)"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Field: "port", Message: "must be between 1 and 65535"}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
