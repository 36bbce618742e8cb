package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/config"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/db"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

const requestIDHeader = "X-Request-ID"

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg      config.Config
	source   db.Source
	pipeline *timeseries.Pipeline
	logger   *slog.Logger
	engine   *gin.Engine
}

// New constructs a server with routes and middleware. source may be nil, in
// which case only the payload-driven endpoints are served.
func New(cfg config.Config, source db.Source, pipeline *timeseries.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if pipeline == nil {
		pipeline = timeseries.NewPipeline(nil,
			timeseries.WithLogger(logger),
			timeseries.WithMaxBuckets(cfg.MaxGapBuckets),
		)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(requestIDMiddleware())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, source: source, pipeline: pipeline, logger: logger, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"source": s.source != nil,
		})
	})

	s.registerV1Routes()
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		c.Header("Access-Control-Expose-Headers", requestIDHeader+", X-API-Version")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireSource rejects source-backed requests when no database is configured.
func (s *Server) requireSource() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.source == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "no observation source configured"})
			return
		}
		c.Next()
	}
}

// respondError maps pipeline and source errors to status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, timeseries.ErrInvalidMode),
		errors.Is(err, timeseries.ErrInvalidStep),
		errors.Is(err, timeseries.ErrInvalidWidth):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(requestIDHeader),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
