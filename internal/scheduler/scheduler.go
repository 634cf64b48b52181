// Package scheduler runs the periodic signal scan and watchlist refresh, and
// answers chat commands.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockLens/internal/chart"
	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/portfolio"
	"StockLens/internal/recorder"
	"StockLens/internal/strategy"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Notifier delivers a message, retrying on failure.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Analyzer produces AI analyses. It may be nil when no API key is configured.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string) (*model.AnalysisResult, error)
	MarketOverview(ctx context.Context) ([]model.MarketIndex, error)
	SearchNews(ctx context.Context, ticker, query string) ([]model.NewsItem, error)
}

// DefaultAlertWindow is how many trailing bars a new signal may sit in and
// still be pushed as an alert. Older first-seen signals are only recorded.
const DefaultAlertWindow = 3

// Deps groups the collaborators of a Scheduler.
type Deps struct {
	Collector *collector.Collector
	Builder   *chart.Builder
	Portfolio *portfolio.Manager
	Notifier  Notifier
	Recorder  recorder.Recorder
	Analyzer  Analyzer
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Deps
	Cron        *cron.Cron
	Options     chart.Options
	Range       string
	AlertWindow int
	Ctx         context.Context
}

// NewScheduler creates a new Scheduler. Cron expressions are evaluated in
// Vietnam time.
func NewScheduler(ctx context.Context, deps Deps, opts chart.Options, rng string) *Scheduler {
	if deps.Builder == nil {
		deps.Builder = &chart.Builder{Metrics: deps.Metrics}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	deps.Logger = deps.Logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Deps:        deps,
		Cron:        cron.New(cron.WithSeconds(), cron.WithLocation(collector.VietnamZone)),
		Options:     opts,
		Range:       rng,
		AlertWindow: DefaultAlertWindow,
		Ctx:         ctx,
	}
}

// RegisterAll registers the signal scan and watchlist refresh tasks.
func (s *Scheduler) RegisterAll(scanCron, refreshCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RunScanNow executes the signal scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() int {
	return s.scan(s.Ctx)
}

func (s *Scheduler) scanTask() {
	s.scan(s.Ctx)
}

// analyze collects bars for a ticker and runs the indicator pipeline.
func (s *Scheduler) analyze(ctx context.Context, ticker, rng string) ([]model.PriceBar, *model.Analysis, error) {
	if rng == "" {
		rng = s.Range
	}
	bars, err := s.Collector.Collect(ctx, ticker, rng)
	if err != nil {
		return nil, nil, err
	}
	return bars, s.Builder.Build(ticker, bars, s.Options), nil
}

// scan runs the pipeline for every watched ticker, records the signals and
// alerts on recent ones that were not seen before. A failing ticker is
// logged and skipped. It returns the number of alerts sent.
func (s *Scheduler) scan(ctx context.Context) int {
	tickers := s.Portfolio.Tickers()
	s.Logger.Info().Int("tickers", len(tickers)).Msg("running signal scan")

	alerts := 0
	for _, t := range tickers {
		if ctx.Err() != nil {
			return alerts
		}
		bars, a, err := s.analyze(ctx, t, "")
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("scan collect")
			continue
		}

		fresh, err := s.Recorder.RecordSignals(t, a.Signals)
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("record signals")
			continue
		}
		for _, sig := range fresh {
			s.Metrics.IncSignal(string(sig.Kind))
		}

		recent := s.withinAlertWindow(fresh, len(bars))
		if len(recent) == 0 {
			continue
		}
		s.Logger.Info().Str("ticker", t).Int("signals", len(recent)).Msg("new signals")
		s.trySend(ctx, notifier.FormatNewSignals(t, recent))
		alerts++
	}
	return alerts
}

func (s *Scheduler) withinAlertWindow(signals []model.Signal, barCount int) []model.Signal {
	window := s.AlertWindow
	if window <= 0 {
		window = DefaultAlertWindow
	}
	out := []model.Signal{}
	for _, sig := range signals {
		if sig.Index >= barCount-window {
			out = append(out, sig)
		}
	}
	return out
}

func (s *Scheduler) refreshTask() {
	if err := s.Portfolio.Refresh(s.Ctx, s.Collector); err != nil {
		s.Logger.Warn().Err(err).Msg("watchlist refresh incomplete")
		return
	}
	s.Logger.Debug().Msg("watchlist refreshed")
}

const helpText = `Các lệnh hỗ trợ:
• /chart MÃ [1mo|3mo|6mo|1y|2y|5y] - tóm tắt kỹ thuật
• /signals MÃ - tín hiệu RSI gần đây
• /watch MÃ - thêm vào danh mục
• /unwatch MÃ - xóa khỏi danh mục
• /list - danh mục theo dõi
• /analyze MÃ - phân tích AI
• /news MÃ từ khóa - tìm tin tức
• /market - tổng quan thị trường
• /scan - quét tín hiệu ngay`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats send "/cmd@BotName".
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	needTicker := func() (string, bool) {
		if len(args) == 0 {
			return "", false
		}
		return collector.NormalizeTicker(args[0]), true
	}

	switch cmd {
	case "/chart":
		t, ok := needTicker()
		if !ok {
			return "Cú pháp: /chart MÃ [khoảng]"
		}
		rng := ""
		if len(args) > 1 {
			r, err := collector.ValidateRange(args[1])
			if err != nil {
				return fmt.Sprintf("❌ Khoảng thời gian không hợp lệ: %s", args[1])
			}
			rng = r
		}
		bars, a, err := s.analyze(ctx, t, rng)
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("chart command")
			return fmt.Sprintf("❌ Không lấy được dữ liệu %s", t)
		}
		return notifier.FormatTickerSummary(a, bars)

	case "/signals":
		t, ok := needTicker()
		if !ok {
			return "Cú pháp: /signals MÃ"
		}
		_, a, err := s.analyze(ctx, t, "")
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("signals command")
			return fmt.Sprintf("❌ Không lấy được dữ liệu %s", t)
		}
		return notifier.FormatSignalList(t, strategy.Recent(a.Signals, 10))

	case "/watch":
		t, ok := needTicker()
		if !ok {
			return "Cú pháp: /watch MÃ"
		}
		q, err := s.Collector.LatestPrice(ctx, t)
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("watch command")
			return fmt.Sprintf("❌ Không tìm thấy mã %s", t)
		}
		added, err := s.Portfolio.Add(t, q.Price)
		if err != nil {
			return fmt.Sprintf("❌ Lỗi lưu danh mục: %v", err)
		}
		if !added {
			return fmt.Sprintf("%s đã có trong danh mục", t)
		}
		return fmt.Sprintf("✅ Đã thêm %s @ %s", t, notifier.FormatVND(q.Price))

	case "/unwatch":
		t, ok := needTicker()
		if !ok {
			return "Cú pháp: /unwatch MÃ"
		}
		removed, err := s.Portfolio.Remove(t)
		if err != nil {
			return fmt.Sprintf("❌ Lỗi lưu danh mục: %v", err)
		}
		if !removed {
			return fmt.Sprintf("%s không có trong danh mục", t)
		}
		return fmt.Sprintf("🗑 Đã xóa %s", t)

	case "/list":
		return notifier.FormatWatchlist(s.Portfolio.List())

	case "/analyze":
		t, ok := needTicker()
		if !ok {
			return "Cú pháp: /analyze MÃ"
		}
		if s.Analyzer == nil {
			return "⚠️ Chưa cấu hình Gemini API"
		}
		res, err := s.Analyzer.Analyze(ctx, t)
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("analyze command")
			return fmt.Sprintf("❌ Phân tích %s thất bại", t)
		}
		if err := s.Recorder.RecordAnalysis(t, res); err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("record analysis")
		}
		return notifier.FormatAnalysis(res)

	case "/news":
		if len(args) < 2 {
			return "Cú pháp: /news MÃ từ khóa"
		}
		if s.Analyzer == nil {
			return "⚠️ Chưa cấu hình Gemini API"
		}
		t := collector.NormalizeTicker(args[0])
		query := strings.Join(args[1:], " ")
		items, err := s.Analyzer.SearchNews(ctx, t, query)
		if err != nil {
			s.Logger.Error().Err(err).Str("ticker", t).Msg("news command")
			return fmt.Sprintf("❌ Tìm tin tức %s thất bại", t)
		}
		return notifier.FormatNews(t, query, items)

	case "/market":
		if s.Analyzer == nil {
			return "⚠️ Chưa cấu hình Gemini API"
		}
		rows, err := s.Analyzer.MarketOverview(ctx)
		if err != nil {
			s.Logger.Error().Err(err).Msg("market command")
			return "❌ Không lấy được dữ liệu thị trường"
		}
		return notifier.FormatMarketOverview(rows, time.Now().In(collector.VietnamZone))

	case "/scan":
		n := s.scan(ctx)
		return fmt.Sprintf("Quét xong, %d mã có tín hiệu mới", n)

	default:
		return helpText
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.Metrics.IncNotificationError()
		s.Logger.Error().Err(err).Msg("send notification")
	}
}
