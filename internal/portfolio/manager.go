// Package portfolio keeps the user's watchlist of tickers and their latest
// quotes in a JSON file.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"StockLens/internal/collector"
	"StockLens/internal/model"

	"github.com/rs/zerolog"
)

// ErrEmptyTicker is returned when adding or removing a blank ticker.
var ErrEmptyTicker = errors.New("empty ticker")

// QuoteSource provides the latest price for a ticker.
type QuoteSource interface {
	LatestPrice(ctx context.Context, ticker string) (*model.Quote, error)
}

// Manager handles watchlist operations with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.PortfolioState
	filePath string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, logger zerolog.Logger) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		state:    state,
		filePath: filePath,
		logger:   logger.With().Str("component", "portfolio").Logger(),
		now:      time.Now,
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) indexOf(ticker string) int {
	return slices.IndexFunc(m.state.Stocks, func(s model.PortfolioStock) bool {
		return s.Ticker == ticker
	})
}

// Add puts a ticker on the watchlist at the given reference price. Adding a
// ticker that is already watched is a no-op and reports false.
func (m *Manager) Add(ticker string, price float64) (bool, error) {
	ticker = collector.NormalizeTicker(ticker)
	if ticker == "" {
		return false, ErrEmptyTicker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(ticker) >= 0 {
		return false, nil
	}
	now := m.now()
	m.state.Stocks = append(m.state.Stocks, model.PortfolioStock{
		Ticker:       ticker,
		AddedPrice:   price,
		CurrentPrice: price,
		AddedAt:      now,
		UpdatedAt:    now,
	})
	if err := m.save(); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops a ticker from the watchlist and reports whether it was present.
func (m *Manager) Remove(ticker string) (bool, error) {
	ticker = collector.NormalizeTicker(ticker)
	if ticker == "" {
		return false, ErrEmptyTicker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(ticker)
	if i < 0 {
		return false, nil
	}
	m.state.Stocks = slices.Delete(m.state.Stocks, i, i+1)
	if err := m.save(); err != nil {
		return false, err
	}
	return true, nil
}

// List returns a copy of the watched stocks in insertion order.
func (m *Manager) List() []model.PortfolioStock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.Stocks)
}

// Tickers returns the watched symbols in insertion order.
func (m *Manager) Tickers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.state.Stocks))
	for _, s := range m.state.Stocks {
		out = append(out, s.Ticker)
	}
	return out
}

// Refresh updates every watched stock from the quote source. A failing ticker
// keeps its previous quote; the joined errors are returned after all tickers
// have been tried.
func (m *Manager) Refresh(ctx context.Context, src QuoteSource) error {
	tickers := m.Tickers()

	// Fetch without holding the lock.
	quotes := make(map[string]*model.Quote, len(tickers))
	var errs []error
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		q, err := src.LatestPrice(ctx, t)
		if err != nil {
			m.logger.Warn().Err(err).Str("ticker", t).Msg("refresh quote failed")
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
			continue
		}
		quotes[t] = q
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(quotes) > 0 {
		now := m.now()
		for i := range m.state.Stocks {
			q, ok := quotes[m.state.Stocks[i].Ticker]
			if !ok {
				continue
			}
			s := &m.state.Stocks[i]
			s.CurrentPrice = q.Price
			s.Change = q.Change
			s.ChangePercent = q.ChangePercent
			s.UpdatedAt = now
		}
		if err := m.save(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
