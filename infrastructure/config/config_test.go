package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.True(t, cfg.RevalidateOnMiss)
	assert.Equal(t, "polygon", cfg.ChainSlugs[137])
	assert.Equal(t, 3*time.Second, cfg.PanelWaitTimeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CHAIN_RPC_URLS", "10=https://mainnet.optimism.io, 8453=https://mainnet.base.org")
	t.Setenv("PANEL_WAIT_TIMEOUT", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://thirdweb.com, https://thirdweb-preview.com")
	t.Setenv("REVALIDATE_ON_MISS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{10: "https://mainnet.optimism.io", 8453: "https://mainnet.base.org"}, cfg.ChainRPCURLs)
	assert.Equal(t, 250*time.Millisecond, cfg.PanelWaitTimeout)
	assert.Equal(t, []string{"https://thirdweb.com", "https://thirdweb-preview.com"}, cfg.AllowedOrigins)
	assert.False(t, cfg.RevalidateOnMiss)
}

func TestLoadConfig_ProductionRequirements(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	_, err := LoadConfig()
	assert.EqualError(t, err, "JWT_SECRET is required in production")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "memory")
	_, err = LoadConfig()
	assert.EqualError(t, err, "production requires the dynamodb storage backend")
}

func TestLoadConfig_BadChainMap(t *testing.T) {
	t.Setenv("CHAIN_SLUGS", "polygon")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseChainMap(t *testing.T) {
	m, err := parseChainMap("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = parseChainMap("x=y")
	assert.Error(t, err)
}
