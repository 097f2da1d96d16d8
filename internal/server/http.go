package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/tradeslip/internal/common"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
)

// HealthFunc reports readiness of a dependency, e.g. the audit database.
type HealthFunc func(ctx context.Context) error

type HTTPConfig struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Limiter        *rate.Limiter
	Metrics        http.Handler
	Health         HealthFunc
}

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type httpHandler struct {
	pipeline Pipeline
	cfg      HTTPConfig
	logger   *slog.Logger
}

// NewHTTPHandler builds the gin engine serving the upload and parse endpoints.
func NewHTTPHandler(pipeline Pipeline, cfg HTTPConfig, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = ingest.DefaultMaxBytes
	}
	h := &httpHandler{pipeline: pipeline, cfg: cfg, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.requestID())
	r.Use(h.accessLog())

	r.GET("/healthz", h.healthz)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := r.Group("/api/v1")
	v1.Use(h.rateLimit())
	v1.POST("/slips", h.scan)
	v1.POST("/parse", h.parse)
	return r
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, APIError{Code: code, Message: msg})
}

func (h *httpHandler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		ctx := common.WithRequestID(c.Request.Context(), id)
		ctx = common.WithLogger(ctx, h.logger.With("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *httpHandler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		common.LoggerFromContext(c.Request.Context(), h.logger).Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (h *httpHandler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.Limiter != nil && !h.cfg.Limiter.Allow() {
			respondError(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func (h *httpHandler) healthz(c *gin.Context) {
	if h.cfg.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// scan handles POST /api/v1/slips with a multipart "file" field.
func (h *httpHandler) scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "READ_FAILED", "could not read upload")
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
		return
	}

	ctx := c.Request.Context()
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	doc := ingest.FromBytes(data, header.Header.Get("Content-Type"), header.Filename)
	out, err := h.pipeline.Process(ctx, doc, nil)
	if err != nil {
		common.LoggerFromContext(ctx, h.logger).Warn("scan failed", "filename", header.Filename, "error", err)
		status, code, msg := httpStatus(ctx, err)
		respondError(c, status, code, msg)
		return
	}
	c.JSON(http.StatusOK, NewScanResult(out))
}

// parse handles POST /api/v1/parse with a JSON {"text": ...} body.
func (h *httpHandler) parse(c *gin.Context) {
	var req ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}
	cand, _, err := h.pipeline.ParseText(req.Text)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL", "parse failed")
		return
	}
	c.JSON(http.StatusOK, ParseTextResponse{Candidate: cand, NeedsReview: cand.NeedsReview()})
}
