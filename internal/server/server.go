// Package server exposes the screener as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/metrics"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/recorder"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

// Latest serves the results of the last scheduled runs.
type Latest interface {
	LatestWeinstein() *screener.WeinsteinResult
	LatestRanking() *screener.RankingResult
}

// Config wires the server's collaborators. Latest, Recorder and Metrics are optional.
type Config struct {
	Addr     string
	Screener *screener.Screener
	Universe *universe.Universe
	Index    string
	Latest   Latest
	Recorder recorder.Recorder
	Metrics  *metrics.Registry
	Logger   zerolog.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	router *gin.Engine
	log    zerolog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Screener == nil {
		return nil, errors.New("server: nil screener")
	}
	if cfg.Universe == nil {
		return nil, errors.New("server: nil universe")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	s := &Server{cfg: cfg, router: router, log: cfg.Logger}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.cfg.Metrics.Handler()))

	api := s.router.Group("/api")
	api.GET("/weinstein", s.handleWeinstein)
	api.GET("/weinstein/:symbol", s.handleWeinsteinDetail)
	api.GET("/ranking", s.handleRanking)
	api.GET("/chart/:symbol", s.handleChart)
	api.GET("/runs", s.handleRuns)
	api.GET("/universe", s.handleUniverse)
}

// Handler returns the router for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
