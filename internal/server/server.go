// Package server exposes the SDMX services over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	POST /v1/keys
//	GET  /v1/datasets/:id/dimensions
//	GET  /v1/datasets/:id/metadata
//	GET  /v1/datasets/:id/summary
//	POST /v1/datasets/:id/data
//	POST /v1/datasets/:id/reconcile
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nucleus/sdmx-core/internal/endpoint"
	"github.com/nucleus/sdmx-core/internal/reconcile"
	"github.com/nucleus/sdmx-core/internal/summary"
)

// Source is the statistical backend the server queries.
type Source interface {
	endpoint.StructureCapable
	endpoint.DatasetCapable
}

// Options configures the server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration

	// Reconcile holds defaults applied to reconciliation requests.
	Reconcile   reconcile.Options
	StartPeriod string
}

// Server is the HTTP API.
type Server struct {
	service    *summary.Service
	reconciler *reconcile.Reconciler
	opts       Options
	logger     *slog.Logger
	router     *gin.Engine
}

// New creates a server over source.
func New(source Source, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Reconcile == (reconcile.Options{}) {
		opts.Reconcile = reconcile.DefaultOptions()
	}
	s := &Server{
		service:    summary.NewService(source, summary.DefaultOptions(), logger),
		reconciler: reconcile.New(source, logger),
		opts:       opts,
		logger:     logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(s.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "sdmx-core"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/keys", s.handleKey)

	datasets := v1.Group("/datasets/:id")
	datasets.GET("/dimensions", s.handleDimensions)
	datasets.GET("/metadata", s.handleMetadata)
	datasets.GET("/summary", s.handleSummary)
	datasets.POST("/data", s.handleData)
	datasets.POST("/reconcile", s.handleReconcile)
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http api", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
