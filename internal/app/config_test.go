package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 4, cfg.MaxHotelOptions)
	assert.Equal(t, "append", cfg.ProposalPolicy)
	assert.Equal(t, "carry", cfg.LedgerStalePolicy)
	assert.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("MAX_HOTEL_OPTIONS", "6")
	t.Setenv("PROPOSAL_POLICY", "replace")
	t.Setenv("LEDGER_STALE_POLICY", "prune")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 6, cfg.MaxHotelOptions)
	assert.Equal(t, "replace", cfg.ProposalPolicy)
	assert.Equal(t, "prune", cfg.LedgerStalePolicy)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"STORE_BACKEND":         "etcd",
		"MAX_HOTEL_OPTIONS":     "0",
		"PROPOSAL_POLICY":       "dedupe",
		"LEDGER_STALE_POLICY":   "drop",
		"RATE_LIMIT_PER_MINUTE": "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", "test")
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestLoadConfigRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := LoadConfig()
	assert.Error(t, err)
}
