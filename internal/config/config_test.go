package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults_MemoryDriver(t *testing.T) {
	cfg := &Config{StoreDriver: "memory"}
	require.NoError(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_RedisRestRequiresURL(t *testing.T) {
	cfg := &Config{StoreDriver: "redisrest"}
	err := cfg.ResolveDefaults()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_URL")

	cfg.StoreURL = "https://store.example.test"
	require.NoError(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_UnknownDriver(t *testing.T) {
	cfg := &Config{StoreDriver: "cassandra"}
	err := cfg.ResolveDefaults()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported STORE_DRIVER")
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	assert.True(t, cfg.IsTesting())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}
