package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// GenericError is the body of every 500 response
const GenericError = "An error occurred processing your request"

// Analyzer is the pipeline surface the HTTP API needs
type Analyzer interface {
	Analyze(ctx context.Context, q model.RawQuery) model.AnalysisResult
	AnalyzeStream(ctx context.Context, q model.RawQuery, emit func(chunk string) error) error
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// Server exposes the analysis pipeline over HTTP
type Server struct {
	echo     *echo.Echo
	analyzer Analyzer
	cfg      model.ServerConfig
	maxInput int
	logger   *zap.Logger
}

// New builds the echo instance and registers every route.
// A nil gatherer serves the default prometheus registry.
func New(cfg *model.Config, analyzer Analyzer, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	logger = telemetry.OrNop(logger)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		echo:     echo.New(),
		analyzer: analyzer,
		cfg:      cfg.Server,
		maxInput: cfg.Retrieval.MaxInputLength,
		logger:   logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))
	e.Use(s.requestLogger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.POST("/chat", s.chat)
	api.POST("/keywords", s.keywords)

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests for up to the analysis timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Listen))
		errCh <- s.echo.Start(s.cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	grace := s.cfg.AnalysisTimeout
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handleError renders every failure as {"error": msg}. Unhandled errors
// never leak their detail.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := GenericError

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		// 5xx detail stays in the log, except the timeout notice
		if he.Message != nil && (code < http.StatusInternalServerError || code == http.StatusGatewayTimeout) {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	logger := telemetry.LoggerFrom(req.Context(), s.logger)
	fields := []zap.Field{
		zap.Int("status", code),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
