package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFlagOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("IROHA_EXPLORER_TORII_URLS", "http://peer-a:8080")

	overriddenPort := 9090
	overriddenURLs := "http://peer-b:8080,http://peer-c:8080"
	cfg, err := Load(FlagOverrides{Port: &overriddenPort, ToriiURLs: &overriddenURLs})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"http://peer-b:8080", "http://peer-c:8080"}, cfg.ToriiURLs)
}

func TestLoadFallsBackToEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("IROHA_EXPLORER_TORII_URLS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.ToriiURLs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidateServeRequiresPeerURLs(t *testing.T) {
	cfg := Config{Port: 8080}
	err := cfg.ValidateServe()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "torii-urls", cerr.Field)
}

func TestValidateServeRejectsBadPort(t *testing.T) {
	cfg := Config{Port: 0, ToriiURLs: []string{"http://peer:8080"}}
	err := cfg.ValidateServe()
	require.Error(t, err)
}
