package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ludo-technologies/simeval/app"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/rs/zerolog/log"
)

const codeStoreDisabled = "STORE_DISABLED"

// CompareBody is the POST /v1/compare payload
type CompareBody struct {
	Reference string `json:"reference" binding:"required"`
	Candidate string `json:"candidate" binding:"required"`
	Explain   bool   `json:"explain"`
}

// EvaluateBody is the POST /v1/evaluate payload: two delimiter-separated corpora
type EvaluateBody struct {
	Name      string `json:"name"`
	Reference string `json:"reference" binding:"required"`
	Candidate string `json:"candidate" binding:"required"`
	ShowPairs bool   `json:"show_pairs"`
}

// Handler holds dependencies for handlers
type Handler struct {
	compare   *app.CompareUseCase
	evaluator domain.EvaluationService
	reader    domain.CorpusReader
	store     domain.RunStore // nil when persistence is disabled
	version   string
}

// NewHandler creates a new handler
func NewHandler(
	compare *app.CompareUseCase,
	evaluator domain.EvaluationService,
	reader domain.CorpusReader,
	store domain.RunStore,
	version string,
) *Handler {
	return &Handler{
		compare:   compare,
		evaluator: evaluator,
		reader:    reader,
		store:     store,
		version:   version,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"store":   h.store != nil,
	})
}

func (h *Handler) Compare(c *gin.Context) {
	var body CompareBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.compare.Compare(c.Request.Context(), domain.CompareRequest{
		Reference: body.Reference,
		Candidate: body.Candidate,
		Explain:   body.Explain,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Evaluate(c *gin.Context) {
	var body EvaluateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.Name == "" {
		body.Name = "request"
	}

	start := time.Now()
	ctx := c.Request.Context()
	report := h.evaluator.EvaluateCorpora(ctx, body.Name,
		h.reader.SplitCorpus(body.Reference),
		h.reader.SplitCorpus(body.Candidate))
	if !body.ShowPairs {
		report.Pairs = nil
	}

	files := []domain.FileReport{report}
	run := &domain.EvaluationResponse{
		Files:       files,
		Summary:     domain.Summarize(files),
		GeneratedAt: time.Now(),
		Duration:    time.Since(start).Milliseconds(),
		Version:     h.version,
	}

	if h.store != nil {
		id, err := h.store.Save(ctx, run)
		if err != nil {
			log.Error().Err(err).Str("file", body.Name).Msg("Failed to save run")
		} else {
			run.ID = id
		}
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error: "run store is not configured",
			Code:  codeStoreDisabled,
		})
		return
	}

	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func badRequest(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: domain.ErrCodeInvalidInput})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error(), Code: domain.ErrCodeInvalidInput})
}

// writeDomainError maps domain error codes to HTTP statuses
func writeDomainError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.ErrCodeInvalidInput, domain.ErrCodeCountMismatch:
		status = http.StatusBadRequest
	case domain.ErrCodeInputNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeMalformedSnippet:
		status = http.StatusUnprocessableEntity
	case "":
		code = codeInternal
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
