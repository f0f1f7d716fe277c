package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ludo-technologies/simeval/app"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/api"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/logging"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/ludo-technologies/simeval/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 30 * time.Second
	limiterSweepEvery = time.Minute
	limiterMaxIdle    = 10 * time.Minute
)

// ServeCommand runs the HTTP API
type ServeCommand struct {
	global  *globalOptions
	addr    string
	envFile string
}

// NewServeCommand creates a new serve command
func NewServeCommand(global *globalOptions) *ServeCommand {
	return &ServeCommand{global: global, envFile: ".env"}
}

// CreateCobraCommand creates the cobra command for the HTTP server
func (s *ServeCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the similarity API over HTTP",
		Long: `Serve the similarity API over HTTP.

Routes:
  GET  /healthz        liveness probe
  GET  /metrics        Prometheus metrics
  POST /v1/compare     score one reference/candidate pair
  POST /v1/evaluate    evaluate two delimiter-separated corpora
  GET  /v1/runs/:id    fetch a stored evaluation run

Bearer JWT auth is required on /v1 when server.jwt_secret is set. Requests
are rate limited per client. Pair reports are cached in Redis when
cache.redis_url is set, and evaluation runs are stored in MongoDB when
store.mongo_uri is set.

Settings can come from .simeval.toml, a .env file or SIMEVAL_* variables.

Examples:
  simeval serve
  simeval serve --addr :9090
  SIMEVAL_SERVER_JWT_SECRET=s3cret simeval serve`,
		Args: cobra.NoArgs,
		RunE: s.runServe,
	}

	cmd.Flags().StringVar(&s.addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&s.envFile, "env-file", ".env", "Environment file loaded before configuration")

	return cmd
}

func (s *ServeCommand) runServe(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(s.envFile); err != nil {
		return err
	}

	cfg, err := loadConfig(s.global.configFile, "")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = s.addr
	}

	// Servers log JSON unless the console format was asked for explicitly
	format := logging.FormatJSON
	if cmd.Flags().Changed("log-format") {
		format = s.global.logFormat
	}
	level := cfg.Logging.Level
	if s.global.verbose {
		level = "debug"
	}
	logging.Init(logging.Options{Level: level, Format: format, Writer: cmd.ErrOrStderr()})
	if level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	svc, cleanup := buildEvaluationService(ctx, cfg, engine, false)
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc.WithMetrics(service.NewMetrics(registry))

	var store domain.RunStore
	if cfg.Store.Enabled() {
		mongoStore, err := service.NewMongoRunStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
			defer cancel()
			if err := mongoStore.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("Error closing run store")
			}
		}()
		store = mongoStore
		svc.WithRunStore(mongoStore)
		log.Info().Str("database", cfg.Store.Database).Msg("Run store connected")
	}

	compare, err := app.NewCompareUseCaseBuilder().
		WithScorer(engine).
		WithFormatter(service.NewCompareFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		WithDiffer(service.TokenDiff).
		WithVersion(version.Short()).
		Build()
	if err != nil {
		return err
	}

	handler := api.NewHandler(compare, svc, service.NewCorpusReader(cfg.Corpus.Delimiter), store, version.Short())

	var limiter *api.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst)
		go limiter.RunJanitor(ctx, limiterSweepEvery, limiterMaxIdle)
	}

	router := api.SetupRoutes(cfg.Server, handler, limiter, registry)
	srv, errCh := api.StartServer(router, cfg.Server)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down gracefully...")
	}

	return api.ShutdownServer(srv, shutdownTimeout)
}

// NewServeCmd creates and returns the serve cobra command
func NewServeCmd(global *globalOptions) *cobra.Command {
	return NewServeCommand(global).CreateCobraCommand()
}
