// Package api serves chart records, AI analyses and the watchlist to the
// rendering client over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/chart"
	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/portfolio"
	"StockLens/internal/strategy"

	"github.com/rs/zerolog"
)

// Analyzer produces AI analyses.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string) (*model.AnalysisResult, error)
	MarketOverview(ctx context.Context) ([]model.MarketIndex, error)
	SearchNews(ctx context.Context, ticker, query string) ([]model.NewsItem, error)
}

// Server holds the HTTP handlers' collaborators. Analyzer may be nil.
type Server struct {
	Collector *collector.Collector
	Builder   chart.Builder
	Options   chart.Options
	Analyzer  Analyzer
	Portfolio *portfolio.Manager
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// ChartResponse is the body of the chart endpoint.
type ChartResponse struct {
	Ticker        string              `json:"ticker"`
	Range         string              `json:"range"`
	Records       []model.ChartRecord `json:"records"`
	Signals       []model.Signal      `json:"signals"`
	RecentSignals []model.Signal      `json:"recentSignals"`
}

// NewsResponse is the body of the news endpoint.
type NewsResponse struct {
	Ticker string           `json:"ticker"`
	Query  string           `json:"query"`
	News   []model.NewsItem `json:"news"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/chart/{ticker}", s.handleChart)
	mux.HandleFunc("GET /api/v1/analysis/{ticker}", s.handleAnalysis)
	mux.HandleFunc("GET /api/v1/news/{ticker}", s.handleNews)
	mux.HandleFunc("GET /api/v1/market", s.handleMarket)
	mux.HandleFunc("GET /api/v1/portfolio", s.handlePortfolio)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return s.logRequests(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// chartOptions overlays query parameters on the configured options.
func (s *Server) chartOptions(r *http.Request) (chart.Options, string, error) {
	q := r.URL.Query()
	opts := s.Options

	rng, err := collector.ValidateRange(q.Get("range"))
	if err != nil {
		return opts, "", err
	}

	for name, dst := range map[string]*int{"sma": &opts.SMAPeriod, "ema": &opts.EMAPeriod, "rsi": &opts.RSIPeriod} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, "", fmt.Errorf("%s: period must be a positive integer, got %q", name, v)
		}
		*dst = n
	}

	for name, dst := range map[string]*bool{
		"showSMA": &opts.ShowSMA, "showEMA": &opts.ShowEMA, "showRSI": &opts.ShowRSI, "signals": &opts.ShowSignals,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, "", fmt.Errorf("%s: expected a boolean, got %q", name, v)
		}
		*dst = b
	}

	if v := q.Get("policy"); v != "" {
		p, err := strategy.ParseZonePolicy(v)
		if err != nil {
			return opts, "", err
		}
		opts.Rules.Policy = p
	}
	return opts, rng, nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeTicker(r.PathValue("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	opts, rng, err := s.chartOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.Collector.Collect(r.Context(), ticker, rng)
	if err != nil {
		s.Logger.Error().Err(err).Str("ticker", ticker).Msg("chart collect")
		if errors.Is(err, collector.ErrNoData) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no data for %s", ticker))
			return
		}
		writeError(w, http.StatusBadGateway, "upstream quote source failed")
		return
	}

	a := s.Builder.Build(ticker, bars, opts)
	writeJSON(w, http.StatusOK, ChartResponse{
		Ticker:        ticker,
		Range:         rng,
		Records:       a.Records,
		Signals:       a.Signals,
		RecentSignals: a.RecentSignals,
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.Analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "AI analysis is not configured")
		return
	}
	ticker := collector.NormalizeTicker(r.PathValue("ticker"))
	res, err := s.Analyzer.Analyze(r.Context(), ticker)
	if err != nil {
		s.Logger.Error().Err(err).Str("ticker", ticker).Msg("analysis")
		writeError(w, http.StatusBadGateway, "AI analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeTicker(r.PathValue("ticker"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	if s.Analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "AI analysis is not configured")
		return
	}
	items, err := s.Analyzer.SearchNews(r.Context(), ticker, query)
	if err != nil {
		s.Logger.Error().Err(err).Str("ticker", ticker).Msg("news search")
		writeError(w, http.StatusBadGateway, "news search failed")
		return
	}
	writeJSON(w, http.StatusOK, NewsResponse{Ticker: ticker, Query: query, News: items})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if s.Analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "AI analysis is not configured")
		return
	}
	rows, err := s.Analyzer.MarketOverview(r.Context())
	if err != nil {
		s.Logger.Error().Err(err).Msg("market overview")
		writeError(w, http.StatusBadGateway, "market overview failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stocks": s.Portfolio.List()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
