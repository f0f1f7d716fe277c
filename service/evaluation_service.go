package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/rs/zerolog/log"
)

// EvaluationServiceConfig holds the evaluation policy
type EvaluationServiceConfig struct {
	// SkipSentinel marks a position that has no function on one side
	SkipSentinel string

	// FileConcurrency bounds how many file pairs run at once. 0 means unbounded.
	FileConcurrency int

	// Timeout bounds a whole run. 0 means no limit beyond the caller's context.
	Timeout time.Duration

	Version string
}

// EvaluationServiceImpl implements the EvaluationService interface.
// Pairs of every file share one worker pool, so file-level and pair-level
// concurrency never multiply.
type EvaluationServiceImpl struct {
	scorer     domain.PairScorer
	reader     domain.CorpusReader
	discoverer domain.CorpusDiscoverer
	pool       *WorkerPool
	executor   domain.ParallelExecutor
	progress   domain.ProgressManager
	cfg        EvaluationServiceConfig

	cache       domain.ReportCache
	fingerprint string
	store       domain.RunStore
	metrics     *Metrics
}

// NewEvaluationService creates an evaluation service.
// pool may be nil, in which case pairs are scored on the calling goroutine.
func NewEvaluationService(
	scorer domain.PairScorer,
	reader domain.CorpusReader,
	discoverer domain.CorpusDiscoverer,
	pool *WorkerPool,
	cfg EvaluationServiceConfig,
) *EvaluationServiceImpl {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(cfg.FileConcurrency)
	executor.SetTimeout(cfg.Timeout)

	return &EvaluationServiceImpl{
		scorer:     scorer,
		reader:     reader,
		discoverer: discoverer,
		pool:       pool,
		executor:   executor,
		cfg:        cfg,
	}
}

// WithCache enables the pair report cache. fingerprint must change whenever
// scoring settings change; see ConfigFingerprint.
func (s *EvaluationServiceImpl) WithCache(cache domain.ReportCache, fingerprint string) *EvaluationServiceImpl {
	s.cache = cache
	s.fingerprint = fingerprint
	return s
}

// WithRunStore persists every completed run
func (s *EvaluationServiceImpl) WithRunStore(store domain.RunStore) *EvaluationServiceImpl {
	s.store = store
	return s
}

// WithMetrics records Prometheus metrics
func (s *EvaluationServiceImpl) WithMetrics(m *Metrics) *EvaluationServiceImpl {
	s.metrics = m
	return s
}

// WithProgressManager reports file and pair progress of Evaluate runs
func (s *EvaluationServiceImpl) WithProgressManager(pm domain.ProgressManager) *EvaluationServiceImpl {
	s.progress = pm
	return s
}

// Evaluate runs every file pair of the request and summarizes the run
func (s *EvaluationServiceImpl) Evaluate(ctx context.Context, req *domain.EvaluationRequest) (*domain.EvaluationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	pairs := req.Pairs
	if len(pairs) == 0 {
		if s.discoverer == nil {
			return nil, domain.NewConfigError("no corpus discoverer configured", nil)
		}
		discovered, err := s.discoverer.Discover(req.Root)
		if err != nil {
			return nil, err
		}
		pairs = discovered
	}
	if len(pairs) == 0 {
		log.Warn().Str("root", req.Root).Msg("No reference corpora found")
	}

	files := s.evaluateFiles(ctx, pairs, !req.NoProgress)

	if !req.ShowPairs {
		for i := range files {
			files[i].Pairs = nil
		}
	}

	response := &domain.EvaluationResponse{
		Files:       files,
		Summary:     domain.Summarize(files),
		GeneratedAt: time.Now(),
		Duration:    time.Since(startTime).Milliseconds(),
		Version:     s.cfg.Version,
	}

	if s.store != nil {
		id, err := s.store.Save(ctx, response)
		if err != nil {
			log.Error().Err(err).Msg("Failed to save evaluation run")
		} else {
			response.ID = id
		}
	}

	log.Info().
		Int("files", response.Summary.TotalFiles).
		Int("rejected", response.Summary.RejectedFiles).
		Int("attempted", response.Summary.Attempted).
		Int("skipped", response.Summary.Skipped).
		Float64("overall", response.Summary.Average.Overall).
		Msg("Evaluation complete")

	return response, nil
}

// evaluateFiles runs file pairs through the parallel executor and returns
// their reports in input order
func (s *EvaluationServiceImpl) evaluateFiles(ctx context.Context, pairs []domain.FilePair, showProgress bool) []domain.FileReport {
	files := make([]domain.FileReport, len(pairs))
	done := make([]bool, len(pairs))

	progress := s.progress
	if !showProgress {
		progress = nil
	}
	if progress != nil {
		progress.Start(len(pairs))
	}

	tasks := make([]domain.ExecutableTask, len(pairs))
	for i, pair := range pairs {
		i, pair := i, pair
		tasks[i] = NewSimpleTask(pair.Name, true, func(ctx context.Context) (interface{}, error) {
			files[i] = s.evaluateFilePair(ctx, pair, progress)
			done[i] = true
			return nil, nil
		})
	}

	err := s.executor.Execute(ctx, tasks)
	if err != nil {
		log.Warn().Err(err).Msg("Evaluation stopped early")
	}

	for i, pair := range pairs {
		if !done[i] {
			files[i] = rejectFile(pair, domain.NewAnalysisError("file pair not evaluated", err))
			s.metrics.observeFile(domain.FileStatusRejected)
			if progress != nil {
				progress.EndFile(pair.Name, domain.FileStatusRejected)
			}
		}
	}

	if progress != nil {
		tally := progress.Finish()
		log.Debug().
			Int("files", tally.Files).
			Int("rejected", tally.RejectedFiles).
			Int("scored", tally.Scored).
			Int("skipped", tally.Skipped).
			Int("failed", tally.Failed).
			Msg("Progress finished")
	}
	return files
}

// EvaluateFilePair reads both corpora and evaluates them
func (s *EvaluationServiceImpl) EvaluateFilePair(ctx context.Context, pair domain.FilePair) domain.FileReport {
	return s.evaluateFilePair(ctx, pair, nil)
}

func (s *EvaluationServiceImpl) evaluateFilePair(ctx context.Context, pair domain.FilePair, progress domain.ProgressManager) domain.FileReport {
	reference, err := s.reader.ReadCorpus(pair.ReferencePath)
	if err != nil {
		return s.rejectTracked(pair, err, progress)
	}
	candidate, err := s.reader.ReadCorpus(pair.CandidatePath)
	if err != nil {
		return s.rejectTracked(pair, err, progress)
	}

	report := s.evaluateCorpora(ctx, pair.Name, reference, candidate, progress)
	report.ReferencePath = pair.ReferencePath
	report.CandidatePath = pair.CandidatePath
	return report
}

// EvaluateCorpora scores aligned snippet lists position by position
func (s *EvaluationServiceImpl) EvaluateCorpora(ctx context.Context, name string, reference, candidate []string) domain.FileReport {
	return s.evaluateCorpora(ctx, name, reference, candidate, nil)
}

// evaluateCorpora reports to progress when it is non-nil
func (s *EvaluationServiceImpl) evaluateCorpora(ctx context.Context, name string, reference, candidate []string, progress domain.ProgressManager) domain.FileReport {
	if len(reference) != len(candidate) {
		err := domain.NewCountMismatchError(len(reference), len(candidate))
		log.Warn().
			Str("file", name).
			Int("reference", len(reference)).
			Int("candidate", len(candidate)).
			Str("code", domain.ErrCodeCountMismatch).
			Msg("Function counts differ, skipping file")
		return s.rejectTracked(domain.FilePair{Name: name}, err, progress)
	}

	if progress != nil {
		progress.BeginFile(name, len(reference))
	}
	record := func(r domain.PairResult) domain.PairResult {
		if progress != nil {
			progress.RecordPair(name, r.Status)
		}
		return r
	}

	results := make([]domain.PairResult, len(reference))
	var wg sync.WaitGroup
	for i := range reference {
		i := i
		if s.isSentinel(reference[i]) || s.isSentinel(candidate[i]) {
			results[i] = record(domain.PairResult{Index: i, Status: domain.PairStatusSkipped})
			s.metrics.observePair(domain.PairStatusSkipped, domain.ZeroReport(), 0)
			log.Debug().Str("file", name).Int("pair", i).Msg("Skipping sentinel pair")
			continue
		}

		if s.pool == nil {
			results[i] = record(s.scorePair(ctx, name, i, reference[i], candidate[i]))
			continue
		}

		wg.Add(1)
		err := s.pool.Submit(ctx, JobFunc(func(context.Context) error {
			defer wg.Done()
			results[i] = record(s.scorePair(ctx, name, i, reference[i], candidate[i]))
			return nil
		}))
		if err != nil {
			wg.Done()
			results[i] = record(s.failPair(name, i, domain.NewAnalysisError("pair not scheduled", err), 0))
		}
	}
	wg.Wait()

	report := domain.FileReport{Name: name, Status: domain.FileStatusEvaluated, Pairs: results}
	var attempted []domain.SimilarityReport
	for _, r := range results {
		switch r.Status {
		case domain.PairStatusSkipped:
			report.Skipped++
		case domain.PairStatusFailed:
			report.Failed++
		}
		if r.Attempted() {
			attempted = append(attempted, r.Report)
		}
	}
	report.Attempted = len(attempted)
	report.Average = domain.MeanReport(attempted)

	s.metrics.observeFile(report.Status)
	if progress != nil {
		progress.EndFile(name, report.Status)
	}
	log.Info().
		Str("file", name).
		Int("processed", report.Attempted).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Float64("overall", report.Average.Overall).
		Msg("File evaluated")
	return report
}

// scorePair scores one pair, consulting the cache first
func (s *EvaluationServiceImpl) scorePair(ctx context.Context, name string, index int, reference, candidate string) domain.PairResult {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return s.failPair(name, index, domain.NewAnalysisError("evaluation cancelled", err), 0)
	}

	var key string
	if s.cache != nil {
		key = PairCacheKey(s.fingerprint, reference, candidate)
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Int("pair", index).Msg("Report cache lookup failed")
		}
		s.metrics.observeCache(ok)
		if ok {
			s.metrics.observePair(domain.PairStatusScored, cached, time.Since(start))
			return domain.PairResult{Index: index, Status: domain.PairStatusScored, Report: cached}
		}
	}

	report, err := s.scorer.ComparePair(ctx, reference, candidate)
	if err != nil {
		return s.failPair(name, index, err, time.Since(start))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			log.Warn().Err(err).Str("file", name).Int("pair", index).Msg("Report cache store failed")
		}
	}
	s.metrics.observePair(domain.PairStatusScored, report, time.Since(start))
	return domain.PairResult{Index: index, Status: domain.PairStatusScored, Report: report}
}

func (s *EvaluationServiceImpl) failPair(name string, index int, err error, elapsed time.Duration) domain.PairResult {
	code := domain.ErrorCode(err)
	if code == "" {
		code = domain.ErrCodeAnalysisError
	}
	log.Warn().Err(err).Str("file", name).Int("pair", index).Str("code", code).Msg("Pair failed, scoring zero")
	s.metrics.observePair(domain.PairStatusFailed, domain.ZeroReport(), elapsed)
	return domain.PairResult{
		Index:     index,
		Status:    domain.PairStatusFailed,
		Report:    domain.ZeroReport(),
		ErrorCode: code,
		Error:     err.Error(),
	}
}

func (s *EvaluationServiceImpl) reject(pair domain.FilePair, err error) domain.FileReport {
	report := rejectFile(pair, err)
	if report.RejectCode != domain.ErrCodeCountMismatch {
		log.Warn().Err(err).Str("file", pair.Name).Str("code", report.RejectCode).Msg("File pair rejected")
	}
	s.metrics.observeFile(domain.FileStatusRejected)
	return report
}

func (s *EvaluationServiceImpl) rejectTracked(pair domain.FilePair, err error, progress domain.ProgressManager) domain.FileReport {
	report := s.reject(pair, err)
	if progress != nil {
		progress.EndFile(report.Name, report.Status)
	}
	return report
}

func (s *EvaluationServiceImpl) isSentinel(snippet string) bool {
	return s.cfg.SkipSentinel != "" && snippet == s.cfg.SkipSentinel
}

func rejectFile(pair domain.FilePair, err error) domain.FileReport {
	code := domain.ErrorCode(err)
	if code == "" {
		code = domain.ErrCodeAnalysisError
	}
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return domain.FileReport{
		Name:          pair.Name,
		ReferencePath: pair.ReferencePath,
		CandidatePath: pair.CandidatePath,
		Status:        domain.FileStatusRejected,
		RejectCode:    code,
		RejectReason:  reason,
	}
}

// Describe returns a one-line summary of a file report for logs and text output
func Describe(f domain.FileReport) string {
	if !f.Evaluated() {
		return fmt.Sprintf("%s: rejected (%s)", f.Name, f.RejectCode)
	}
	return fmt.Sprintf("%s: %d processed, %d skipped, overall %.4f", f.Name, f.Attempted, f.Skipped, f.Average.Overall)
}

var _ domain.EvaluationService = (*EvaluationServiceImpl)(nil)
