package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/analyzer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScorer returns a fixed report, failing on snippets containing "BOOM"
type fakeScorer struct {
	mu     sync.Mutex
	calls  int
	report domain.SimilarityReport
}

func (f *fakeScorer) ComparePair(_ context.Context, reference, candidate string) (domain.SimilarityReport, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if strings.Contains(reference, "BOOM") || strings.Contains(candidate, "BOOM") {
		return domain.ZeroReport(), domain.NewMalformedSnippetError("candidate", errors.New("parse: boom"))
	}
	return f.report, nil
}

func (f *fakeScorer) ExplainPair(ctx context.Context, reference, candidate string) (*domain.PairDetail, error) {
	r, err := f.ComparePair(ctx, reference, candidate)
	if err != nil {
		return nil, err
	}
	return &domain.PairDetail{Report: r}, nil
}

func (f *fakeScorer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]domain.SimilarityReport
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]domain.SimilarityReport{}}
}

func (c *memCache) Get(_ context.Context, key string) (domain.SimilarityReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, report domain.SimilarityReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = report
	return nil
}

type memStore struct {
	runs map[string]*domain.EvaluationResponse
	err  error
}

func (s *memStore) Save(_ context.Context, run *domain.EvaluationResponse) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.runs == nil {
		s.runs = map[string]*domain.EvaluationResponse{}
	}
	stored := *run
	stored.ID = "run-1"
	s.runs[stored.ID] = &stored
	return stored.ID, nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.EvaluationResponse, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.NewInputNotFoundError("run "+id, nil)
	}
	return run, nil
}

var fixedReport = domain.SimilarityReport{
	Interface: 0.9, Structure: 0.8, ControlFlow: 1, Halstead: 0.7, TokenEdit: 0.6, Overall: 0.8,
}

func newTestService(t *testing.T, scorer domain.PairScorer, sentinel string) *EvaluationServiceImpl {
	t.Helper()
	pool := NewWorkerPool(context.Background(), 4)
	t.Cleanup(pool.Close)
	return NewEvaluationService(
		scorer,
		NewCorpusReader("/////"),
		NewCorpusDiscoverer("ref/*_source.txt", "_source.txt", "cand/{base}_final.txt"),
		pool,
		EvaluationServiceConfig{SkipSentinel: sentinel, Version: "test"},
	)
}

func TestEvaluateCorpora_PositionalSkip(t *testing.T) {
	svc := newTestService(t, analyzer.NewDefaultEngine(), "SKIP")

	reference := []string{"int add(int a,int b){return a+b;}", "SKIP", "int sub(int a,int b){return a-b;}"}
	candidate := []string{"int add(int x,int y){return x+y;}", "int mul(int a,int b){return a*b;}", "SKIP"}

	report := svc.EvaluateCorpora(context.Background(), "arith", reference, candidate)

	require.Equal(t, domain.FileStatusEvaluated, report.Status)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Pairs, 3)
	assert.Equal(t, domain.PairStatusScored, report.Pairs[0].Status)
	assert.Equal(t, domain.PairStatusSkipped, report.Pairs[1].Status)
	assert.Equal(t, domain.PairStatusSkipped, report.Pairs[2].Status)

	assert.Equal(t, report.Pairs[0].Report, report.Average)
	assert.Greater(t, report.Average.Overall, 0.8)
}

func TestEvaluateCorpora_CountMismatch(t *testing.T) {
	scorer := &fakeScorer{report: fixedReport}
	svc := newTestService(t, scorer, "null")

	report := svc.EvaluateCorpora(context.Background(), "f", []string{"a", "b", "c"}, []string{"a", "b"})

	assert.Equal(t, domain.FileStatusRejected, report.Status)
	assert.Equal(t, domain.ErrCodeCountMismatch, report.RejectCode)
	assert.Zero(t, report.Attempted)
	assert.Empty(t, report.Pairs)
	assert.Equal(t, domain.ZeroReport(), report.Average)
	assert.Zero(t, scorer.Calls(), "no pair may be scored")
}

func TestEvaluateCorpora_FailedPairCountsAsZero(t *testing.T) {
	scorer := &fakeScorer{report: fixedReport}
	svc := newTestService(t, scorer, "null")

	report := svc.EvaluateCorpora(context.Background(), "f",
		[]string{"int f(){}", "int g(){}"},
		[]string{"int f(){}", "BOOM"})

	require.Equal(t, domain.FileStatusEvaluated, report.Status)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, domain.ErrCodeMalformedSnippet, report.Pairs[1].ErrorCode)
	assert.Equal(t, domain.ZeroReport(), report.Pairs[1].Report)
	assert.InDelta(t, fixedReport.Overall/2, report.Average.Overall, 1e-12)
	assert.InDelta(t, fixedReport.Halstead/2, report.Average.Halstead, 1e-12)
}

func TestEvaluateCorpora_AllSkipped(t *testing.T) {
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null")

	report := svc.EvaluateCorpora(context.Background(), "f", []string{"null"}, []string{"int f(){}"})

	assert.Equal(t, domain.FileStatusEvaluated, report.Status)
	assert.Zero(t, report.Attempted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, domain.ZeroReport(), report.Average)
}

func TestEvaluateCorpora_PreservesOrder(t *testing.T) {
	svc := newTestService(t, analyzer.NewDefaultEngine(), "null")

	var reference, candidate []string
	for i := 0; i < 20; i++ {
		reference = append(reference, "int f(int a){return a+1;}")
		if i%2 == 0 {
			candidate = append(candidate, "int f(int a){return a+1;}")
		} else {
			candidate = append(candidate, "void g(char *s){while(*s){s++;}}")
		}
	}

	report := svc.EvaluateCorpora(context.Background(), "order", reference, candidate)

	require.Len(t, report.Pairs, 20)
	for i, p := range report.Pairs {
		assert.Equal(t, i, p.Index)
		if i%2 == 0 {
			assert.InDelta(t, 1.0, p.Report.Overall, 1e-9, "pair %d", i)
		} else {
			assert.Less(t, p.Report.Overall, 1.0, "pair %d", i)
		}
	}
}

func TestEvaluateCorpora_Cancelled(t *testing.T) {
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := svc.EvaluateCorpora(ctx, "f", []string{"a", "b"}, []string{"a", "b"})

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, domain.ZeroReport(), report.Average)
}

func TestEvaluateCorpora_WithoutPool(t *testing.T) {
	svc := NewEvaluationService(&fakeScorer{report: fixedReport}, NewCorpusReader("/////"), nil, nil,
		EvaluationServiceConfig{SkipSentinel: "null"})

	report := svc.EvaluateCorpora(context.Background(), "f", []string{"a"}, []string{"b"})

	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, fixedReport, report.Average)
}

func TestEvaluateCorpora_UsesCache(t *testing.T) {
	scorer := &fakeScorer{report: fixedReport}
	cache := newMemCache()
	svc := newTestService(t, scorer, "null").WithCache(cache, "fp")

	first := svc.EvaluateCorpora(context.Background(), "f", []string{"a", "a"}, []string{"b", "b"})
	second := svc.EvaluateCorpora(context.Background(), "f", []string{"a"}, []string{"b"})

	assert.Equal(t, fixedReport, first.Average)
	assert.Equal(t, fixedReport, second.Average)
	assert.LessOrEqual(t, scorer.Calls(), 2)
	assert.Contains(t, cache.entries, PairCacheKey("fp", "a", "b"))
}

func TestEvaluateCorpora_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null").WithMetrics(metrics)

	svc.EvaluateCorpora(context.Background(), "f", []string{"a", "null", "BOOM"}, []string{"b", "c", "d"})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pairs.WithLabelValues("scored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pairs.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pairs.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.files.WithLabelValues("evaluated")))
}

func writeCorpus(t *testing.T, path string, snippets ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(snippets, "\n/////\n")), 0o644))
}

func TestEvaluate_DiscoveredCorpora(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "ref", "a_source.txt"), "int f(){return 1;}", "int g(){return 2;}")
	writeCorpus(t, filepath.Join(root, "cand", "a_final.txt"), "int f(){return 1;}", "int g(){return 2;}")
	writeCorpus(t, filepath.Join(root, "ref", "b_source.txt"), "int f(){return 1;}", "int g(){return 2;}", "int h(){}")
	writeCorpus(t, filepath.Join(root, "cand", "b_final.txt"), "int f(){return 1;}")
	writeCorpus(t, filepath.Join(root, "ref", "c_source.txt"), "int f(){return 1;}")

	store := &memStore{}
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null").WithRunStore(store)

	resp, err := svc.Evaluate(context.Background(), &domain.EvaluationRequest{Root: root, ShowPairs: true, NoProgress: true})
	require.NoError(t, err)

	require.Len(t, resp.Files, 3)
	assert.Equal(t, "a_source.txt", resp.Files[0].Name)
	assert.Equal(t, domain.FileStatusEvaluated, resp.Files[0].Status)
	assert.Equal(t, 2, resp.Files[0].Attempted)
	assert.Equal(t, domain.ErrCodeCountMismatch, resp.Files[1].RejectCode)
	assert.Equal(t, domain.ErrCodeInputNotFound, resp.Files[2].RejectCode)

	assert.Equal(t, 3, resp.Summary.TotalFiles)
	assert.Equal(t, 1, resp.Summary.EvaluatedFiles)
	assert.Equal(t, 2, resp.Summary.RejectedFiles)
	assert.Equal(t, fixedReport, resp.Summary.Average)
	assert.Equal(t, "test", resp.Version)

	assert.Equal(t, "run-1", resp.ID)
	assert.Contains(t, store.runs, "run-1")
}

func TestEvaluate_StoreFailureLeavesIDEmpty(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "ref", "a_source.txt"), "int f(){return 1;}")
	writeCorpus(t, filepath.Join(root, "cand", "a_final.txt"), "int f(){return 1;}")

	store := &memStore{err: errors.New("insert failed")}
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null").WithRunStore(store)

	resp, err := svc.Evaluate(context.Background(), &domain.EvaluationRequest{Root: root, NoProgress: true})
	require.NoError(t, err)
	assert.Empty(t, resp.ID)
	assert.Empty(t, store.runs)
	assert.Equal(t, 1, resp.Summary.EvaluatedFiles)
}

func TestEvaluate_ReportsProgress(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "ref", "a_source.txt"), "int f(){return 1;}", "null", "BOOM")
	writeCorpus(t, filepath.Join(root, "cand", "a_final.txt"), "int f(){return 1;}", "int g(){}", "int h(){}")
	writeCorpus(t, filepath.Join(root, "ref", "b_source.txt"), "int f(){return 1;}")

	pm := NewProgressManager()
	pm.SetWriter(&bytes.Buffer{})
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null").WithProgressManager(pm)

	_, err := svc.Evaluate(context.Background(), &domain.EvaluationRequest{Root: root})
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressTally{
		Files: 2, RejectedFiles: 1, Scored: 1, Skipped: 1, Failed: 1,
	}, pm.Finish())

	pm.Start(0)
	_, err = svc.Evaluate(context.Background(), &domain.EvaluationRequest{Root: root, NoProgress: true})
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressTally{}, pm.Finish(), "NoProgress leaves the manager untouched")
}

func TestEvaluate_HidesPairsUnlessRequested(t *testing.T) {
	root := t.TempDir()
	ref := filepath.Join(root, "r.txt")
	cand := filepath.Join(root, "c.txt")
	writeCorpus(t, ref, "int f(){}")
	writeCorpus(t, cand, "int f(){}")

	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null")
	resp, err := svc.Evaluate(context.Background(), &domain.EvaluationRequest{
		Pairs:      []domain.FilePair{{Name: "r", ReferencePath: ref, CandidatePath: cand}},
		NoProgress: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	assert.Nil(t, resp.Files[0].Pairs)
	assert.Equal(t, 1, resp.Files[0].Attempted)
}

func TestEvaluate_InvalidRequest(t *testing.T) {
	svc := newTestService(t, &fakeScorer{report: fixedReport}, "null")

	_, err := svc.Evaluate(context.Background(), &domain.EvaluationRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))

	_, err = svc.Evaluate(context.Background(), &domain.EvaluationRequest{Root: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInputNotFound, domain.ErrorCode(err))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "x: rejected (COUNT_MISMATCH)",
		Describe(domain.FileReport{Name: "x", Status: domain.FileStatusRejected, RejectCode: domain.ErrCodeCountMismatch}))
	assert.Equal(t, "y: 2 processed, 1 skipped, overall 0.5000",
		Describe(domain.FileReport{Name: "y", Status: domain.FileStatusEvaluated, Attempted: 2, Skipped: 1,
			Average: domain.SimilarityReport{Overall: 0.5}}))
}
