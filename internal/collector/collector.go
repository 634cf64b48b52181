package collector

import (
	"context"
	"fmt"
	"time"

	"StockLens/internal/metrics"
	"StockLens/internal/model"

	"github.com/rs/zerolog"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Quotes []model.RawQuote
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, _ string, rng string) ([]model.RawQuote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if _, err := ValidateRange(rng); err != nil {
		return nil, err
	}
	if m.Quotes != nil {
		return m.Quotes, nil
	}
	return generateMockQuotes(m.Price, 60), nil
}

func (m *MockFetcher) FetchLatestPrice(_ context.Context, ticker string) (*model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	prev := m.Price * 0.99
	return newQuote(ticker, m.Price, &prev), nil
}

func generateMockQuotes(basePrice float64, count int) []model.RawQuote {
	start := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	quotes := make([]model.RawQuote, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		o, h, l, c, v := p*0.999, p*1.005, p*0.995, p, 1000000.0
		quotes[i] = model.RawQuote{
			Timestamp: start.AddDate(0, 0, i).Unix(),
			Open:      &o,
			High:      &h,
			Low:       &l,
			Close:     &c,
			Volume:    &v,
		}
	}
	return quotes
}

// Collector orchestrates data fetching and series normalization.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, m *metrics.Metrics, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Metrics: m,
		Logger:  logger.With().Str("component", "collector").Logger(),
	}
}

// Collect fetches daily history for a ticker and returns normalized bars.
// An empty result is not an error.
func (c *Collector) Collect(ctx context.Context, ticker, rng string) ([]model.PriceBar, error) {
	ticker = NormalizeTicker(ticker)
	start := time.Now()
	quotes, err := c.Fetcher.FetchHistory(ctx, ticker, rng)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", ticker, err)
	}

	bars, dropped := Normalize(quotes)
	c.Metrics.AddDropped(dropped)
	if dropped > 0 {
		c.Logger.Debug().Str("ticker", ticker).Int("dropped", dropped).Int("kept", len(bars)).
			Msg("dropped unusable quotes")
	}
	return bars, nil
}

// LatestPrice fetches the current quote for a ticker.
func (c *Collector) LatestPrice(ctx context.Context, ticker string) (*model.Quote, error) {
	start := time.Now()
	q, err := c.Fetcher.FetchLatestPrice(ctx, NormalizeTicker(ticker))
	c.Metrics.ObserveFetch(c.Fetcher.Name(), start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch latest price %s: %w", ticker, err)
	}
	return q, nil
}
