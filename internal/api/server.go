// Package api exposes the analyzer over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ultronhq/ultron/internal/errs"
	"github.com/ultronhq/ultron/internal/models"
	"github.com/ultronhq/ultron/internal/reporter"
	"github.com/ultronhq/ultron/internal/scanner"
)

// maxBatchSize bounds the number of URLs accepted by one batch request
const maxBatchSize = 100

// Analyzer is the subset of *scanner.Scanner the API needs
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*models.AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, urls []string, opts ...scanner.BatchOption) ([]models.Outcome, error)
}

// Recorder persists finished runs
type Recorder interface {
	RecordRun(ctx context.Context, outcomes []models.Outcome) (string, error)
}

// Server holds the API dependencies
type Server struct {
	analyzer Analyzer
	recorder Recorder
	logger   *slog.Logger
}

// NewServer wires an analyzer into an API server. recorder may be nil.
func NewServer(analyzer Analyzer, recorder Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{analyzer: analyzer, recorder: recorder, logger: logger}
}

// Router builds the gin engine with all routes and middleware
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(s.logger), Logging(s.logger))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", s.analyze)
		api.POST("/batch", s.batch)
	}
	return r
}

type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

type batchRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

type batchResponse struct {
	RunID    string           `json:"run_id,omitempty"`
	Summary  reporter.Stats   `json:"summary"`
	Outcomes []models.Outcome `json:"outcomes"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errs.New(errs.InvalidInput, "request body must be JSON with a url field", err))
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		s.renderError(c, err)
		return
	}

	outcome := models.Outcome{URL: req.URL, State: models.StateDone, Result: result}
	s.record(c, []models.Outcome{outcome})
	c.JSON(http.StatusOK, result)
}

func (s *Server) batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errs.New(errs.InvalidInput, "request body must be JSON with a non-empty urls array", err))
		return
	}
	if len(req.URLs) > maxBatchSize {
		s.renderError(c, errs.New(errs.InvalidInput, "too many URLs in one batch", nil))
		return
	}

	outcomes, err := s.analyzer.AnalyzeBatch(c.Request.Context(), req.URLs)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, batchResponse{
		RunID:    s.record(c, outcomes),
		Summary:  reporter.New(outcomes).GetStats(),
		Outcomes: outcomes,
	})
}

// record stores the run when a recorder is configured. Storage failures are
// logged and do not fail the request.
func (s *Server) record(c *gin.Context, outcomes []models.Outcome) string {
	if s.recorder == nil {
		return ""
	}
	runID, err := s.recorder.RecordRun(c.Request.Context(), outcomes)
	if err != nil {
		s.logger.Warn("failed to record run", "request_id", c.GetString(requestIDKey), "error", err)
		return ""
	}
	return runID
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.Unreachable:
		return http.StatusBadGateway
	case errs.Timeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) renderError(c *gin.Context, err error) {
	message := "internal error"
	kind := errs.Unknown

	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		kind = appErr.Kind
		message = appErr.Message
		if kind == errs.InvalidInput {
			message = err.Error()
		}
	}

	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", c.GetString(requestIDKey), "error", err)
	}

	c.JSON(status, gin.H{
		"error":      message,
		"kind":       kind.String(),
		"request_id": c.GetString(requestIDKey),
	})
}
