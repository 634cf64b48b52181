// Package chart runs the indicator pipeline over a bar series and merges the
// results into display-ready records for the rendering client.
package chart

import (
	"math"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/strategy"
)

const (
	DefaultSMAPeriod     = 20
	DefaultEMAPeriod     = 10
	DefaultRSIPeriod     = 14
	DefaultRecentSignals = 3
)

// Options configures one pipeline run.
type Options struct {
	SMAPeriod     int
	EMAPeriod     int
	RSIPeriod     int
	Rules         strategy.Rules
	RecentSignals int

	ShowSMA     bool
	ShowEMA     bool
	ShowRSI     bool
	ShowSignals bool
}

// DefaultOptions mirrors the chart defaults: SMA and RSI panels and
// signal markers on, EMA off.
func DefaultOptions() Options {
	return Options{
		SMAPeriod:     DefaultSMAPeriod,
		EMAPeriod:     DefaultEMAPeriod,
		RSIPeriod:     DefaultRSIPeriod,
		Rules:         strategy.DefaultRules(),
		RecentSignals: DefaultRecentSignals,
		ShowSMA:       true,
		ShowEMA:       false,
		ShowRSI:       true,
		ShowSignals:   true,
	}
}

// withDefaults replaces unset or invalid settings with their defaults.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SMAPeriod <= 0 {
		o.SMAPeriod = def.SMAPeriod
	}
	if o.EMAPeriod <= 0 {
		o.EMAPeriod = def.EMAPeriod
	}
	if o.RSIPeriod <= 0 {
		o.RSIPeriod = def.RSIPeriod
	}
	if o.RecentSignals <= 0 {
		o.RecentSignals = def.RecentSignals
	}
	if o.Rules.Oversold <= 0 || o.Rules.Overbought <= 0 || o.Rules.Oversold >= o.Rules.Overbought {
		o.Rules.Oversold = def.Rules.Oversold
		o.Rules.Overbought = def.Rules.Overbought
	}
	if o.Rules.Policy == "" {
		o.Rules.Policy = def.Rules.Policy
	}
	return o
}

// Builder runs the pipeline and records metrics. The zero value is usable.
type Builder struct {
	Metrics *metrics.Metrics
}

// Build runs the indicator pipeline for a ticker.
func (b *Builder) Build(ticker string, bars []model.PriceBar, opts Options) *model.Analysis {
	start := time.Now()
	a := Build(bars, opts)
	a.Ticker = ticker
	b.Metrics.ObservePipeline(start)
	return a
}

// Build computes SMA, EMA and RSI, scans RSI for signals and projects
// everything into chart records. It is a pure function of its inputs; every
// call allocates fresh series. Hidden indicators are neither computed nor
// projected, but RSI is always computed when signals are shown.
func Build(bars []model.PriceBar, opts Options) *model.Analysis {
	opts = opts.withDefaults()
	n := len(bars)

	sma := make(model.Series, n)
	ema := make(model.Series, n)
	rsi := make(model.Series, n)
	if opts.ShowSMA {
		sma = calculator.SMA(bars, opts.SMAPeriod)
	}
	if opts.ShowEMA {
		ema = calculator.EMA(bars, opts.EMAPeriod)
	}
	if opts.ShowRSI || opts.ShowSignals {
		rsi = calculator.RSI(bars, opts.RSIPeriod)
	}

	signals := []model.Signal{}
	if opts.ShowSignals {
		signals = strategy.GenerateSignals(bars, rsi, opts.Rules)
	}

	rsiPanel := rsi
	if !opts.ShowRSI {
		rsiPanel = make(model.Series, n)
	}

	return &model.Analysis{
		Records:       Project(bars, sma, ema, rsiPanel, signals),
		Signals:       signals,
		RecentSignals: strategy.Recent(signals, opts.RecentSignals),
		SMA:           sma,
		EMA:           ema,
		RSI:           rsi,
	}
}

// Project merges bars, indicator series and signals index-for-index. The
// output always has one record per bar; missing series slots and signals
// are left absent. RSI is rounded for display.
func Project(bars []model.PriceBar, sma, ema, rsi model.Series, signals []model.Signal) []model.ChartRecord {
	byIndex := make(map[int]model.Signal, len(signals))
	for _, s := range signals {
		byIndex[s.Index] = s
	}

	records := make([]model.ChartRecord, len(bars))
	for i, bar := range bars {
		rec := model.ChartRecord{
			Date:   bar.Date,
			Time:   bar.Time,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
			SMA:    sma.Ptr(i),
			EMA:    ema.Ptr(i),
		}
		if v, ok := rsi.At(i); ok {
			r := math.Round(v)
			rec.RSI = &r
		}
		if s, ok := byIndex[i]; ok {
			price := s.Price
			rec.Signal = &price
			rec.SignalKind = s.Kind
			rec.SignalLabel = s.Kind.Label()
		}
		records[i] = rec
	}
	return records
}
