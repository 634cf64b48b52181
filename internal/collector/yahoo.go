package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockLens/internal/model"
)

// DefaultYahooBaseURL is the public chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	// RelayPrefix, when set, is prepended to the escaped upstream URL
	// (e.g. "https://api.allorigins.win/raw?url=").
	RelayPrefix string
	Client      *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(baseURL, relayPrefix, proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		RelayPrefix: relayPrefix,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// YahooSymbol maps a HOSE/HNX ticker to its Yahoo symbol. Tickers that
// already carry an exchange suffix or are index symbols pass through.
func YahooSymbol(ticker string) string {
	t := NormalizeTicker(ticker)
	if strings.Contains(t, ".") || strings.HasPrefix(t, "^") {
		return t
	}
	return t + ".VN"
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Price columns are pointers because Yahoo reports null for missing sessions.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) chartURL(ticker, interval, rng string) string {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(YahooSymbol(ticker)), interval, rng)
	if f.RelayPrefix != "" {
		return f.RelayPrefix + url.QueryEscape(u)
	}
	return u
}

func (f *YahooFetcher) fetchChart(ctx context.Context, ticker, interval, rng string) (*yahooChart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(ticker, interval, rng), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", YahooSymbol(ticker), ErrNoData)
	}
	return &chart, nil
}

// FetchHistory returns daily raw quotes for the given lookback.
func (f *YahooFetcher) FetchHistory(ctx context.Context, ticker, rng string) ([]model.RawQuote, error) {
	rng, err := ValidateRange(rng)
	if err != nil {
		return nil, err
	}
	chart, err := f.fetchChart(ctx, ticker, "1d", rng)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return []model.RawQuote{}, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	quotes := make([]model.RawQuote, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		quotes[i] = model.RawQuote{
			Timestamp: ts,
			Open:      column(quote.Open, i),
			High:      column(quote.High, i),
			Low:       column(quote.Low, i),
			Close:     column(quote.Close, i),
			AdjClose:  column(adj, i),
			Volume:    column(quote.Volume, i),
		}
	}
	return quotes, nil
}

// FetchLatestPrice returns the latest market price and change vs previous close.
func (f *YahooFetcher) FetchLatestPrice(ctx context.Context, ticker string) (*model.Quote, error) {
	chart, err := f.fetchChart(ctx, ticker, "1m", "1d")
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("yahoo %s: no market price: %w", YahooSymbol(ticker), ErrNoData)
	}
	prev := meta.PreviousClose
	if prev == nil {
		prev = meta.ChartPreviousClose
	}
	return newQuote(ticker, *meta.RegularMarketPrice, prev), nil
}

func newQuote(ticker string, price float64, prevClose *float64) *model.Quote {
	q := &model.Quote{
		Ticker:    NormalizeTicker(ticker),
		Price:     roundTo(price, 0),
		FetchedAt: time.Now(),
	}
	if prevClose != nil && *prevClose > 0 {
		q.PreviousClose = *prevClose
		q.Change = roundTo(price-*prevClose, 2)
		q.ChangePercent = roundTo((price-*prevClose) / *prevClose * 100, 2)
	}
	return q
}

// column guards against Yahoo returning columns shorter than the timestamps.
func column(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
