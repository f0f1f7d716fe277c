package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ludo-technologies/simeval/app"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/analyzer"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	runs map[string]*domain.EvaluationResponse
}

func (s *memStore) Save(_ context.Context, run *domain.EvaluationResponse) (string, error) {
	stored := *run
	stored.ID = "abc"
	s.runs[stored.ID] = &stored
	return stored.ID, nil
}

type failingStore struct{}

func (failingStore) Save(context.Context, *domain.EvaluationResponse) (string, error) {
	return "", errors.New("insert failed")
}

func (failingStore) Get(_ context.Context, id string) (*domain.EvaluationResponse, error) {
	return nil, domain.NewInputNotFoundError("run "+id, nil)
}

func (s *memStore) Get(_ context.Context, id string) (*domain.EvaluationResponse, error) {
	if run, ok := s.runs[id]; ok {
		return run, nil
	}
	return nil, domain.NewInputNotFoundError("run "+id, nil)
}

func newRouter(t *testing.T, cfg config.ServerConfig, store domain.RunStore, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	engine := analyzer.NewDefaultEngine()
	reader := service.NewCorpusReader(config.DefaultDelimiter)
	evaluator := service.NewEvaluationService(engine, reader, nil, nil,
		service.EvaluationServiceConfig{SkipSentinel: "SKIP", Version: "test"})
	compare := app.NewCompareUseCase(engine, service.NewCompareFormatter(), service.NewFileOutputWriter(nil), service.TokenDiff, "test")

	reg := prometheus.NewRegistry()
	handler := NewHandler(compare, evaluator, reader, store, "test")
	return SetupRoutes(cfg, handler, limiter, reg)
}

func doJSON(router http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, nil, nil)

	w := doJSON(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = doJSON(router, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompareEndpoint(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, nil, nil)

	w := doJSON(router, http.MethodPost, "/v1/compare", CompareBody{
		Reference: "int add(int a,int b){return a+b;}",
		Candidate: "int add(int x,int y){return x+y;}",
		Explain:   true,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp domain.CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.Report.Overall, 0.8)
	require.NotNil(t, resp.Detail)
	assert.Equal(t, "add", resp.Detail.ReferenceSignature.Name)
	assert.NotEmpty(t, resp.Diff)
}

func TestCompareEndpoint_BadBody(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, nil, nil)

	w := doJSON(router, http.MethodPost, "/v1/compare", map[string]string{"reference": "int f(){}"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeInvalidInput)
}

func TestEvaluateEndpoint(t *testing.T) {
	store := &memStore{runs: map[string]*domain.EvaluationResponse{}}
	router := newRouter(t, config.ServerConfig{}, store, nil)

	w := doJSON(router, http.MethodPost, "/v1/evaluate", EvaluateBody{
		Name:      "arith",
		Reference: "int add(int a,int b){return a+b;}\n/////\nSKIP\n/////\nint sub(int a,int b){return a-b;}",
		Candidate: "int add(int x,int y){return x+y;}\n/////\nint mul(int a,int b){return a*b;}\n/////\nSKIP",
		ShowPairs: true,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var run domain.EvaluationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.Len(t, run.Files, 1)
	assert.Equal(t, 1, run.Files[0].Attempted)
	assert.Equal(t, 2, run.Files[0].Skipped)
	assert.Len(t, run.Files[0].Pairs, 3)
	assert.Equal(t, "abc", run.ID)

	w = doJSON(router, http.MethodGet, "/v1/runs/abc", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/runs/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeInputNotFound)
}

func TestEvaluateEndpoint_StoreFailureOmitsID(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, failingStore{}, nil)

	w := doJSON(router, http.MethodPost, "/v1/evaluate", EvaluateBody{
		Reference: "int add(int a,int b){return a+b;}",
		Candidate: "int add(int x,int y){return x+y;}",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var run domain.EvaluationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Empty(t, run.ID)
	assert.Equal(t, 1, run.Summary.Attempted)
}

func TestEvaluateEndpoint_CountMismatch(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, nil, nil)

	w := doJSON(router, http.MethodPost, "/v1/evaluate", EvaluateBody{
		Reference: "int a(){}\n/////\nint b(){}\n/////\nint c(){}",
		Candidate: "int a(){}\n/////\nint b(){}",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var run domain.EvaluationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, domain.FileStatusRejected, run.Files[0].Status)
	assert.Equal(t, domain.ErrCodeCountMismatch, run.Files[0].RejectCode)
	assert.Equal(t, 1, run.Summary.RejectedFiles)
}

func TestGetRun_StoreDisabled(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, nil, nil)
	w := doJSON(router, http.MethodGet, "/v1/runs/abc", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func signedToken(t *testing.T, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTAuth(t *testing.T) {
	router := newRouter(t, config.ServerConfig{JWTSecret: "s3cret"}, nil, nil)
	body := CompareBody{Reference: "int f(){}", Candidate: "int f(){}"}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signedToken(t, "other", jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"valid", "Bearer " + signedToken(t, "s3cret", jwt.SigningMethodHS256), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			w := doJSON(router, http.MethodPost, "/v1/compare", body, h)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	// health stays open
	w := doJSON(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	router := newRouter(t, config.ServerConfig{}, nil, NewRateLimiter(0.001, 2))
	body := CompareBody{Reference: "int f(){}", Candidate: "int f(){}"}

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = doJSON(router, http.MethodPost, "/v1/compare", body, nil).Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.GetLimiter("a")
	rl.GetLimiter("b")
	assert.Equal(t, 2, rl.Cleanup(time.Hour))
	assert.Equal(t, 0, rl.Cleanup(-time.Second))
}

func TestBodyLimit(t *testing.T) {
	router := newRouter(t, config.ServerConfig{MaxBodyBytes: 64}, nil, nil)
	w := doJSON(router, http.MethodPost, "/v1/compare", CompareBody{
		Reference: strings.Repeat("x", 200),
		Candidate: "int f(){}",
	}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
