// Package api exposes the reconciliation engine over HTTP.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kalder/finlink/internal/api/dto"
	"github.com/kalder/finlink/internal/application/service"
	"github.com/kalder/finlink/internal/domain/transfer"
	"github.com/kalder/finlink/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config Config
	engine *gin.Engine
	svc    *service.ReconService
	logger *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		config: cfg,
		engine: engine,
		svc:    svc,
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the server and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("API server listening", "addr", addr)
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupMiddleware() {
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:  s.config.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))
	s.engine.Use(s.requestLogging())
}

func (s *Server) requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	{
		api.GET("/transactions", s.listTransactions)
		api.POST("/transactions/import", s.importTransactions)

		api.GET("/transfers/matches", s.previewTransferMatches)
		api.POST("/transfers/automatch", s.autoMatchTransfers)
		api.GET("/transfers/manual-matches", s.findManualMatches)
		api.POST("/transfers/match", s.manualMatch)
		api.POST("/transfers/unmatch", s.unmatch)

		api.POST("/duplicates/detect", s.detectDuplicates)
		api.GET("/diagnostics/transfers", s.diagnostics)
	}
}

func (s *Server) listTransactions(c *gin.Context) {
	txns, err := s.svc.ListTransactions(c.Request.Context())
	if err != nil {
		s.internalError(c, "failed to list transactions", err)
		return
	}
	c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: dto.FromTransactions(txns),
		TotalCount:   len(txns),
	})
}

func (s *Server) importTransactions(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	incoming, err := dto.ToTransactions(req.Transactions)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := s.svc.ImportTransactions(c.Request.Context(), incoming, req.Config.ToConfig())
	if err != nil {
		s.reconError(c, "import failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDuplicateResult(result))
}

func (s *Server) previewTransferMatches(c *gin.Context) {
	opts, err := s.matchOptions(c, s.svc.AutoOptions())
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := s.svc.PreviewTransferMatches(c.Request.Context(), opts)
	if err != nil {
		s.reconError(c, "matching preview failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransferResult(result))
}

func (s *Server) autoMatchTransfers(c *gin.Context) {
	opts, err := s.matchOptions(c, s.svc.AutoOptions())
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := s.svc.AutoMatchTransfers(c.Request.Context(), opts)
	if err != nil {
		s.reconError(c, "automatic matching failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransferResult(result))
}

func (s *Server) findManualMatches(c *gin.Context) {
	opts, err := s.matchOptions(c, s.svc.ManualOptions())
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := s.svc.FindManualTransferMatches(c.Request.Context(), opts)
	if err != nil {
		s.reconError(c, "manual matching failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransferResult(result))
}

func (s *Server) manualMatch(c *gin.Context) {
	var req dto.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	if err := s.svc.ManuallyMatchTransfers(c.Request.Context(), req.SourceID, req.TargetID); err != nil {
		s.reconError(c, "manual match failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "matched"})
}

func (s *Server) unmatch(c *gin.Context) {
	var req dto.UnmatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	if err := s.svc.UnmatchTransfers(c.Request.Context(), req.MatchID); err != nil {
		s.reconError(c, "unmatch failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unmatched"})
}

func (s *Server) detectDuplicates(c *gin.Context) {
	var req dto.DetectDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	incoming, err := dto.ToTransactions(req.Transactions)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := s.svc.DetectDuplicates(c.Request.Context(), incoming, req.Config.ToConfig())
	if err != nil {
		s.reconError(c, "duplicate detection failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDuplicateResult(result))
}

func (s *Server) diagnostics(c *gin.Context) {
	report, err := s.svc.DiagnoseTransferMatching(c.Request.Context())
	if err != nil {
		s.internalError(c, "diagnostics failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.DiagnosticsResponse{Report: report})
}

// matchOptions reads the optional days/tolerance query overrides.
func (s *Server) matchOptions(c *gin.Context, base transfer.Options) (transfer.Options, error) {
	opts := base
	var query struct {
		Days      *int     `form:"days"`
		Tolerance *float64 `form:"tolerance"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return opts, err
	}
	if query.Days != nil {
		opts.MaxDaysDifference = *query.Days
	}
	if query.Tolerance != nil {
		opts.TolerancePercentage = *query.Tolerance
	}
	return opts, opts.Validate()
}

// reconError maps domain errors to status codes: user-input problems are
// 400s, unknown ids are 404s, everything else is a 500.
func (s *Server) reconError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, transfer.ErrSelfMatch),
		errors.Is(err, transfer.ErrSameAccount),
		errors.Is(err, transfer.ErrAlreadyLinked):
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, transfer.ErrNotFound),
		errors.Is(err, transfer.ErrMatchNotFound),
		errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError(err.Error()))
	default:
		s.internalError(c, msg, err)
	}
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, dto.InternalError())
}
