package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisReportCache stores pair reports in Redis as JSON
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisReportCache connects to the Redis URL in cfg and verifies the connection
func NewRedisReportCache(ctx context.Context, cfg config.CacheConfig) (*RedisReportCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, domain.NewConfigError("invalid cache.redis_url", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisReportCacheWithClient(client, cfg.TTL, cfg.Prefix), nil
}

// NewRedisReportCacheWithClient wraps an existing client
func NewRedisReportCacheWithClient(client *redis.Client, ttl time.Duration, prefix string) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl, prefix: prefix}
}

// Get returns the cached report, reporting false on a miss
func (c *RedisReportCache) Get(ctx context.Context, key string) (domain.SimilarityReport, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SimilarityReport{}, false, nil
	}
	if err != nil {
		return domain.SimilarityReport{}, false, err
	}

	var report domain.SimilarityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.SimilarityReport{}, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return report, true, nil
}

// Set stores a report with the configured TTL
func (c *RedisReportCache) Set(ctx context.Context, key string, report domain.SimilarityReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

// Close closes the Redis client
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

// ConfigFingerprint hashes every setting that influences a pair report,
// so cached reports never outlive a configuration change.
func ConfigFingerprint(analysis config.AnalysisConfig, tables config.TablesConfig) string {
	scoring := struct {
		Weights     domain.Weights
		Structure   string
		Granularity string
		Strict      bool
		Normalize   bool
		Tables      config.TablesConfig
	}{
		Weights:     analysis.Weights,
		Structure:   analysis.StructureAlgorithm,
		Granularity: analysis.ControlFlowGranularity,
		Strict:      analysis.StrictParse,
		Normalize:   analysis.Normalize,
		Tables:      tables,
	}
	// json sorts map keys, so the encoding is stable
	data, _ := json.Marshal(scoring)
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// PairCacheKey identifies a reference/candidate pair under one configuration
func PairCacheKey(fingerprint, reference, candidate string) string {
	d := xxhash.New()
	_, _ = d.WriteString(fingerprint)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(reference)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(candidate)
	return fingerprint + ":" + strconv.FormatUint(d.Sum64(), 16)
}

var _ domain.ReportCache = (*RedisReportCache)(nil)
