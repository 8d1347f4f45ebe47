package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/recorder"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/report"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"universe": s.cfg.Universe.Len(),
		"index":    s.cfg.Index,
	})
}

// asOf parses the optional as_of=YYYY-MM-DD query parameter.
func (s *Server) asOf(c *gin.Context) (time.Time, bool) {
	v := c.Query("as_of")
	if v == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation("2006-01-02", v, s.cfg.Screener.Config().Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) stocks(c *gin.Context) []model.Stock {
	return s.cfg.Universe.Members(c.DefaultQuery("index", s.cfg.Index))
}

// cached reports whether the request may be served from the last scheduled run.
func cached(c *gin.Context, asOf time.Time) bool {
	return asOf.IsZero() && c.Query("index") == "" && c.Query("fresh") == ""
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, screener.ErrSymbolNotFound), errors.Is(err, collector.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, screener.ErrInsufficientHistory):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, screener.ErrEmptyUniverse):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleWeinstein(c *gin.Context) {
	asOf, ok := s.asOf(c)
	if !ok {
		return
	}
	if s.cfg.Latest != nil && cached(c, asOf) {
		if res := s.cfg.Latest.LatestWeinstein(); res != nil {
			c.JSON(http.StatusOK, report.NewWeinstein(res))
			return
		}
	}
	res, err := s.cfg.Screener.RunWeinstein(c.Request.Context(), s.stocks(c), asOf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.NewWeinstein(res))
}

func (s *Server) lookup(symbol string) model.Stock {
	if st, ok := s.cfg.Universe.Lookup(symbol); ok {
		return st
	}
	return model.Stock{Symbol: universe.NormalizeSymbol(symbol, universe.DefaultSuffix)}
}

func (s *Server) handleWeinsteinDetail(c *gin.Context) {
	asOf, ok := s.asOf(c)
	if !ok {
		return
	}
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", "12"))
	if err != nil || weeks <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weeks must be a positive integer"})
		return
	}
	d, err := s.cfg.Screener.WeinsteinDetail(c.Request.Context(), s.lookup(c.Param("symbol")), weeks, asOf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.NewDetail(d))
}

func (s *Server) handleRanking(c *gin.Context) {
	asOf, ok := s.asOf(c)
	if !ok {
		return
	}
	if s.cfg.Latest != nil && cached(c, asOf) {
		if res := s.cfg.Latest.LatestRanking(); res != nil {
			c.JSON(http.StatusOK, report.NewRanking(res))
			return
		}
	}
	res, err := s.cfg.Screener.RunRanking(c.Request.Context(), s.stocks(c), asOf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.NewRanking(res))
}

// handleChart serves the daily indicator frame as JSON, or as an HTML
// chart page with format=html.
func (s *Server) handleChart(c *gin.Context) {
	asOf, ok := s.asOf(c)
	if !ok {
		return
	}
	frame, err := s.cfg.Screener.Chart(c.Request.Context(), s.lookup(c.Param("symbol")).Symbol, asOf)
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := report.RenderChart(c.Writer, frame); err != nil {
			s.log.Error().Err(err).Str("symbol", frame.Symbol).Msg("render chart")
		}
		return
	}
	c.JSON(http.StatusOK, report.NewFrame(frame))
}

func (s *Server) handleRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := s.cfg.Recorder.Runs(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		runs = []recorder.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleUniverse(c *gin.Context) {
	stocks := s.stocks(c)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(stocks),
		"sectors": s.cfg.Universe.Sectors(),
		"stocks":  stocks,
	})
}
