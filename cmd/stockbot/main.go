package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockLens/internal/analysis"
	"StockLens/internal/api"
	"StockLens/internal/cache"
	"StockLens/internal/chart"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/metrics"
	"StockLens/internal/notifier"
	"StockLens/internal/portfolio"
	"StockLens/internal/recorder"
	"StockLens/internal/scheduler"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	once := flag.String("once", "", "print the chart analysis of one ticker and exit")
	rng := flag.String("range", "", "history range for -once (1mo,3mo,6mo,1y,2y,5y)")
	dump := flag.Bool("dump", false, "with -once, dump the full analysis structure instead of JSON")
	flag.Parse()

	// A local .env file feeds the environment overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}

	m := metrics.New()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Mock {
		fetcher = &collector.MockFetcher{Price: 50000}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.DataSource.RelayPrefix, cfg.Proxy)
	}
	logger.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, m, logger)
	builder := &chart.Builder{Metrics: m}
	opts := cfg.ChartOptions()

	if *once != "" {
		if err := runOnce(col, builder, opts, *once, *rng, *dump); err != nil {
			logger.Fatal().Err(err).Str("ticker", *once).Msg("analysis failed")
		}
		return
	}

	logger.Info().Msg("StockLens starting")

	// Init watchlist
	pm, err := portfolio.NewManager(cfg.Portfolio.StateFile, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init watchlist")
	}
	seedWatchlist(pm, col, cfg.Portfolio.Tickers, logger)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init cache
	var store cache.Cache = cache.NoopCache{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Warn().Err(err).Msg("init redis cache failed, caching disabled")
		} else {
			store = rc
			defer rc.Close()
		}
	}

	// Init AI client
	var ai *analysis.Client
	if cfg.Gemini.APIKey != "" {
		ai = analysis.NewClient(analysis.Config{
			APIKey:    cfg.Gemini.APIKey,
			Model:     cfg.Gemini.Model,
			BaseURL:   cfg.Gemini.BaseURL,
			Grounding: cfg.Gemini.Grounding,
			Timeout:   cfg.Gemini.Timeout,
			ProxyURL:  cfg.Proxy,
		}, store, m, logger)
	} else {
		logger.Info().Msg("gemini api key not set, AI analysis disabled")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := scheduler.Deps{
		Collector: col,
		Builder:   builder,
		Portfolio: pm,
		Recorder:  rec,
		Metrics:   m,
		Logger:    logger,
	}
	if ai != nil {
		deps.Analyzer = ai
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		deps.Notifier = tn
	} else {
		logger.Info().Msg("telegram not configured, notifications disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, deps, opts, cfg.DataSource.Range)
	if cfg.Schedule.AlertWindow > 0 {
		sched.AlertWindow = cfg.Schedule.AlertWindow
	}
	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.RefreshCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")
	}

	// HTTP API
	srv := &api.Server{
		Collector: col,
		Builder:   *builder,
		Options:   opts,
		Portfolio: pm,
		Metrics:   m,
		Logger:    logger.With().Str("component", "api").Logger(),
	}
	if ai != nil {
		srv.Analyzer = ai
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		logger.Info().Msg("run_on_start enabled, executing signal scan now")
		go sched.RunScanNow()
	}

	logger.Info().Msg("StockLens is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("StockLens stopped")
}

// seedWatchlist adds configured tickers that are not watched yet, at their
// current price when it can be fetched.
func seedWatchlist(pm *portfolio.Manager, col *collector.Collector, tickers []string, logger zerolog.Logger) {
	watched := map[string]bool{}
	for _, t := range pm.Tickers() {
		watched[t] = true
	}
	for _, t := range tickers {
		t = collector.NormalizeTicker(t)
		if t == "" || watched[t] {
			continue
		}
		price := 0.0
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if q, err := col.LatestPrice(ctx, t); err == nil {
			price = q.Price
		} else {
			logger.Warn().Err(err).Str("ticker", t).Msg("seed price unavailable")
		}
		cancel()
		if _, err := pm.Add(t, price); err != nil {
			logger.Warn().Err(err).Str("ticker", t).Msg("seed watchlist")
		}
	}
}

// runOnce prints the chart analysis of a single ticker to stdout.
func runOnce(col *collector.Collector, builder *chart.Builder, opts chart.Options, ticker, rng string, dump bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rng, err := collector.ValidateRange(rng)
	if err != nil {
		return err
	}
	ticker = collector.NormalizeTicker(ticker)
	bars, err := col.Collect(ctx, ticker, rng)
	if err != nil {
		return err
	}
	a := builder.Build(ticker, bars, opts)

	if dump {
		spew.Config.Indent = "  "
		spew.Config.DisablePointerAddresses = true
		spew.Dump(a.RecentSignals, a.Records)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
