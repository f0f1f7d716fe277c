package mcp

import (
	"github.com/ludo-technologies/simeval/app"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/analyzer"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/ludo-technologies/simeval/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	config     *config.Config
	configPath string
	engine     *analyzer.Engine
	evaluator  domain.EvaluationService
	compare    *app.CompareUseCase
}

// NewDependencies builds the scoring engine and services from cfg.
// A nil cfg means defaults.
func NewDependencies(cfg *config.Config, configPath string) (*Dependencies, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	engine, err := analyzer.NewEngine(cfg.Analysis, cfg.Tables)
	if err != nil {
		return nil, err
	}

	// Tool calls are serialized by the stdio transport, so pairs are
	// scored inline rather than through a worker pool.
	evaluator := service.NewEvaluationService(
		engine,
		service.NewCorpusReader(cfg.Corpus.Delimiter),
		service.NewCorpusDiscoverer(cfg.Corpus.ReferencePattern, cfg.Corpus.ReferenceSuffix, cfg.Corpus.CandidateTemplate),
		nil,
		service.EvaluationServiceConfig{SkipSentinel: cfg.Corpus.SkipSentinel, Version: version.Short()},
	)

	compare, err := app.NewCompareUseCaseBuilder().
		WithScorer(engine).
		WithFormatter(service.NewCompareFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(nil)).
		WithDiffer(service.TokenDiff).
		WithVersion(version.Short()).
		Build()
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		config:     cfg,
		configPath: configPath,
		engine:     engine,
		evaluator:  evaluator,
		compare:    compare,
	}, nil
}

// Config exposes the loaded configuration snapshot.
func (d *Dependencies) Config() *config.Config {
	return d.config
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// Evaluator returns the corpus evaluation service
func (d *Dependencies) Evaluator() domain.EvaluationService {
	return d.evaluator
}

// CompareUseCase returns the single pair comparison use case
func (d *Dependencies) CompareUseCase() *app.CompareUseCase {
	return d.compare
}
