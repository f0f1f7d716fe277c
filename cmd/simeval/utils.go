package main

import (
	"context"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/analyzer"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/ludo-technologies/simeval/service"
	"github.com/rs/zerolog/log"
)

// resolveOutput picks the report format and destination path.
// An explicit --output wins; otherwise non-text reports go to a timestamped
// file under output.directory when one is configured, and stdout otherwise.
func resolveOutput(cfg *config.Config, flags *analysisFlags, command string) (domain.OutputFormat, string, error) {
	resolver := service.NewOutputFormatResolver()
	format, _, err := resolver.Determine(cfg.Output.Format, string(domain.OutputFormatText))
	if err != nil {
		return "", "", err
	}
	if flags.output != "" {
		return format, flags.output, nil
	}
	return format, resolver.ReportPath(cfg.Output.Directory, command, format, time.Now()), nil
}

func newEngine(cfg *config.Config) (*analyzer.Engine, error) {
	return analyzer.NewEngine(cfg.Analysis, cfg.Tables)
}

// buildEvaluationService wires engine, a worker pool and the optional cache.
// The returned cleanup releases the pool and cache.
func buildEvaluationService(ctx context.Context, cfg *config.Config, engine domain.PairScorer, progress bool) (*service.EvaluationServiceImpl, func()) {
	pool := service.NewWorkerPool(ctx, cfg.Analysis.Workers)
	svc := service.NewEvaluationService(
		engine,
		service.NewCorpusReader(cfg.Corpus.Delimiter),
		service.NewCorpusDiscoverer(cfg.Corpus.ReferencePattern, cfg.Corpus.ReferenceSuffix, cfg.Corpus.CandidateTemplate),
		pool,
		service.EvaluationServiceConfig{
			SkipSentinel: cfg.Corpus.SkipSentinel,
			Version:      version.Short(),
		},
	)
	if progress {
		svc.WithProgressManager(service.NewProgressManager())
	}

	cache := connectCache(ctx, cfg)
	if cache != nil {
		svc.WithCache(cache, service.ConfigFingerprint(cfg.Analysis, cfg.Tables))
	}

	cleanup := func() {
		pool.Close()
		if cache != nil {
			_ = cache.Close()
		}
	}
	return svc, cleanup
}

// connectCache returns the Redis report cache when one is configured.
// A cache that cannot be reached is logged and skipped.
func connectCache(ctx context.Context, cfg *config.Config) *service.RedisReportCache {
	if !cfg.Cache.Enabled() {
		return nil
	}
	cache, err := service.NewRedisReportCache(ctx, cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("Report cache unavailable, scoring without it")
		return nil
	}
	log.Debug().Msg("Report cache connected")
	return cache
}
