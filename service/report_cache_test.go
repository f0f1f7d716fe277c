package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairCacheKey(t *testing.T) {
	k1 := PairCacheKey("fp", "a", "b")
	assert.Equal(t, k1, PairCacheKey("fp", "a", "b"))
	assert.NotEqual(t, k1, PairCacheKey("fp", "b", "a"), "keys are ordered")
	assert.NotEqual(t, k1, PairCacheKey("other", "a", "b"))
	assert.NotEqual(t, PairCacheKey("fp", "ab", ""), PairCacheKey("fp", "a", "b"))
	assert.Regexp(t, `^fp:[0-9a-f]+$`, k1)
}

func TestConfigFingerprint(t *testing.T) {
	cfg := config.DefaultConfig()
	base := ConfigFingerprint(cfg.Analysis, cfg.Tables)
	assert.Equal(t, base, ConfigFingerprint(config.DefaultConfig().Analysis, config.DefaultConfig().Tables))

	changed := config.DefaultConfig()
	changed.Analysis.StructureAlgorithm = config.StructureTreeEdit
	assert.NotEqual(t, base, ConfigFingerprint(changed.Analysis, changed.Tables))

	tables := config.DefaultConfig()
	tables.Tables.TypeAliases["long"] = "int"
	assert.NotEqual(t, base, ConfigFingerprint(tables.Analysis, tables.Tables))

	workers := config.DefaultConfig()
	workers.Analysis.Workers = 64
	assert.Equal(t, base, ConfigFingerprint(workers.Analysis, workers.Tables), "workers do not affect scores")
}

func TestRedisReportCache(t *testing.T) {
	url := os.Getenv("SIMEVAL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SIMEVAL_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	cache, err := NewRedisReportCache(ctx, config.CacheConfig{RedisURL: url, TTL: time.Minute, Prefix: "simeval:test:"})
	require.NoError(t, err)
	defer cache.Close()

	key := PairCacheKey("test", time.Now().String(), "b")
	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, fixedReport))
	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fixedReport, got)
}

func TestNewRedisReportCache_BadURL(t *testing.T) {
	_, err := NewRedisReportCache(context.Background(), config.CacheConfig{RedisURL: "not a url"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeConfigError, domain.ErrorCode(err))
}
