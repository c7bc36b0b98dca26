// Package api serves stored backtest results over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"clmm-backtest/internal/reporting"
	"clmm-backtest/internal/storage"
)

// Options configures the HTTP handler.
type Options struct {
	Runs        storage.RunStore
	Steps       storage.StepRecordStore // optional; steps endpoints answer 503 without it
	Metrics     http.Handler            // optional /metrics handler
	CORSOrigins []string                // empty allows any origin
	Logger      *slog.Logger
}

// Handler holds the route handlers.
type Handler struct {
	runs   storage.RunStore
	steps  storage.StepRecordStore
	logger *slog.Logger
}

// NewHandler builds the gin router wrapped in CORS.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{runs: opts.Runs, steps: opts.Steps, logger: logger}

	router := gin.New()
	router.Use(requestLogger(logger))
	router.Use(recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/runs", h.ListRuns)
		v1.GET("/runs/:id", h.GetRun)
		v1.GET("/runs/:id/steps", h.GetSteps)
		v1.GET("/report", h.GetReport)
	}

	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler(router)
}

// ListRuns handles GET /api/v1/runs?pool_id=&limit=
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request.Context(), c.Query("pool_id"))
	if err != nil {
		h.storageError(c, err)
		return
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	resp := RunListResponse{Runs: make([]RunResponse, 0, len(runs)), Count: len(runs)}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, newRunResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun handles GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

// GetSteps handles GET /api/v1/runs/:id/steps?format=json|csv
func (h *Handler) GetSteps(c *gin.Context) {
	if h.steps == nil {
		writeError(c, http.StatusServiceUnavailable, "STEPS_UNAVAILABLE", "no step record store configured")
		return
	}
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "format must be json or csv")
		return
	}

	runID := c.Param("id")
	if _, err := h.runs.GetByID(c.Request.Context(), runID); err != nil {
		h.storageError(c, err)
		return
	}
	records, err := h.steps.GetByRunID(c.Request.Context(), runID)
	if err != nil {
		h.storageError(c, err)
		return
	}

	if format == "csv" {
		c.Header("Content-Disposition", `attachment; filename="`+runID+`.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(reporting.RenderStepCSV(records)))
		return
	}

	resp := StepListResponse{RunID: runID, Steps: make([]StepResponse, 0, len(records))}
	for _, r := range records {
		resp.Steps = append(resp.Steps, newStepResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport handles GET /api/v1/report?pool_id= and returns Markdown.
func (h *Handler) GetReport(c *gin.Context) {
	report, err := reporting.NewGenerator(h.runs).Generate(c.Request.Context(), c.Query("pool_id"))
	if errors.Is(err, reporting.ErrNoRuns) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		h.storageError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(report)))
}

func (h *Handler) storageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "run not found")
	case errors.Is(err, storage.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		h.logger.Error("storage error", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "storage error")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// recovery turns panics into INTERNAL_ERROR responses.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
