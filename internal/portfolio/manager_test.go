package portfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"StockLens/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

type stubQuotes map[string]float64

func (s stubQuotes) LatestPrice(_ context.Context, ticker string) (*model.Quote, error) {
	p, ok := s[ticker]
	if !ok {
		return nil, errors.New("no quote")
	}
	return &model.Quote{Ticker: ticker, Price: p, Change: p - 100, ChangePercent: p - 100}, nil
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "watchlist.json")
	m, err := NewManager(path, zerolog.Nop())
	assert.NoError(t, err)
	return m, path
}

func TestLoadState_MissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "none.json"))
	assert.NoError(t, err)
	assert.NotNil(t, state.Stocks)
	assert.Equal(t, len(state.Stocks), 0)
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadState(path)
	assert.Error(t, err)
}

func TestManager_AddIsIdempotent(t *testing.T) {
	m, _ := newManager(t)

	added, err := m.Add(" vnm ", 70000)
	assert.NoError(t, err)
	assert.True(t, added)

	added, err = m.Add("VNM", 99999)
	assert.NoError(t, err)
	assert.False(t, added)

	list := m.List()
	assert.Equal(t, len(list), 1)
	assert.Equal(t, list[0].Ticker, "VNM")
	assert.Equal(t, list[0].AddedPrice, 70000.0)
}

func TestManager_AddEmpty(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Add("  ", 1)
	assert.True(t, errors.Is(err, ErrEmptyTicker))
}

func TestManager_Remove(t *testing.T) {
	m, _ := newManager(t)
	for _, tk := range []string{"VNM", "FPT", "HPG"} {
		_, err := m.Add(tk, 100)
		assert.NoError(t, err)
	}

	removed, err := m.Remove("fpt")
	assert.NoError(t, err)
	assert.True(t, removed)

	removed, err = m.Remove("FPT")
	assert.NoError(t, err)
	assert.False(t, removed)

	if diff := cmp.Diff([]string{"VNM", "HPG"}, m.Tickers()); diff != "" {
		t.Errorf("tickers mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_PersistsAcrossRestarts(t *testing.T) {
	m, path := newManager(t)
	_, err := m.Add("SSI", 30000)
	assert.NoError(t, err)

	reloaded, err := NewManager(path, zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, reloaded.Tickers(), []string{"SSI"})
}

func TestManager_ListReturnsCopy(t *testing.T) {
	m, _ := newManager(t)
	_, _ = m.Add("VNM", 100)
	list := m.List()
	list[0].Ticker = "XXX"
	assert.Equal(t, m.Tickers(), []string{"VNM"})
}

func TestManager_RefreshContinuesOnError(t *testing.T) {
	m, path := newManager(t)
	_, _ = m.Add("VNM", 100)
	_, _ = m.Add("ZZZ", 50)
	_, _ = m.Add("FPT", 100)

	err := m.Refresh(context.Background(), stubQuotes{"VNM": 110, "FPT": 95})
	assert.Error(t, err)

	byTicker := map[string]model.PortfolioStock{}
	for _, s := range m.List() {
		byTicker[s.Ticker] = s
	}
	assert.Equal(t, byTicker["VNM"].CurrentPrice, 110.0)
	assert.Equal(t, byTicker["VNM"].ChangePercent, 10.0)
	assert.Equal(t, byTicker["FPT"].CurrentPrice, 95.0)
	assert.Equal(t, byTicker["ZZZ"].CurrentPrice, 50.0)

	state, err := LoadState(path)
	assert.NoError(t, err)
	assert.Equal(t, state.Stocks[0].CurrentPrice, 110.0)
}

func TestManager_RefreshEmpty(t *testing.T) {
	m, _ := newManager(t)
	assert.NoError(t, m.Refresh(context.Background(), stubQuotes{}))
}
