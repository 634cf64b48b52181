package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
)

const chartFixture = `{"chart":{"result":[{
  "meta":{"regularMarketPrice":27350.0,"previousClose":27000.0},
  "timestamp":[1740967200,1741053600,1741140000],
  "indicators":{
    "quote":[{"open":[27000,null,27100],"high":[27500,null,27600],"low":[26900,null,27000],"close":[27200,null,27400],"volume":[1200300,null,980000]}],
    "adjclose":[{"adjclose":[27150.2,null,27400]}]
  }}],"error":null}}`

func newYahooServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.String()
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYahooSymbol(t *testing.T) {
	assert.Equal(t, YahooSymbol("vnm"), "VNM.VN")
	assert.Equal(t, YahooSymbol(" fpt "), "FPT.VN")
	assert.Equal(t, YahooSymbol("AAPL.US"), "AAPL.US")
	assert.Equal(t, YahooSymbol("^VNINDEX"), "^VNINDEX")
}

func TestYahooFetcher_FetchHistory(t *testing.T) {
	var seen string
	srv := newYahooServer(t, http.StatusOK, chartFixture, &seen)
	f := NewYahooFetcher(srv.URL, "", "")

	quotes, err := f.FetchHistory(context.Background(), "vnm", "")
	assert.NoError(t, err)
	assert.Equal(t, len(quotes), 3)
	assert.True(t, strings.Contains(seen, "/v8/finance/chart/VNM.VN"))
	assert.True(t, strings.Contains(seen, "range=3mo"))
	assert.True(t, strings.Contains(seen, "interval=1d"))

	assert.Equal(t, *quotes[0].AdjClose, 27150.2)
	assert.True(t, quotes[1].Close == nil)
	assert.True(t, quotes[1].AdjClose == nil)
	assert.Equal(t, *quotes[2].Volume, 980000.0)

	bars, dropped := Normalize(quotes)
	assert.Equal(t, len(bars), 2)
	assert.Equal(t, dropped, 1)
	assert.Equal(t, bars[0].Close, 27150.0)
}

func TestYahooFetcher_InvalidRange(t *testing.T) {
	f := NewYahooFetcher("http://127.0.0.1:1", "", "")
	_, err := f.FetchHistory(context.Background(), "VNM", "10y")
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestYahooFetcher_StatusError(t *testing.T) {
	srv := newYahooServer(t, http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, nil)
	f := NewYahooFetcher(srv.URL, "", "")
	_, err := f.FetchHistory(context.Background(), "XXX", "1mo")
	assert.Error(t, err)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := newYahooServer(t, http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, nil)
	f := NewYahooFetcher(srv.URL, "", "")
	_, err := f.FetchHistory(context.Background(), "XXX", "1mo")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "delisted"))
}

func TestYahooFetcher_EmptyResult(t *testing.T) {
	srv := newYahooServer(t, http.StatusOK, `{"chart":{"result":[],"error":null}}`, nil)
	f := NewYahooFetcher(srv.URL, "", "")
	_, err := f.FetchHistory(context.Background(), "VNM", "1mo")
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestYahooFetcher_NoTimestamps(t *testing.T) {
	srv := newYahooServer(t, http.StatusOK, `{"chart":{"result":[{"meta":{},"indicators":{"quote":[{}]}}],"error":null}}`, nil)
	f := NewYahooFetcher(srv.URL, "", "")
	quotes, err := f.FetchHistory(context.Background(), "VNM", "1mo")
	assert.NoError(t, err)
	assert.Equal(t, len(quotes), 0)
}

func TestYahooFetcher_FetchLatestPrice(t *testing.T) {
	var seen string
	srv := newYahooServer(t, http.StatusOK, chartFixture, &seen)
	f := NewYahooFetcher(srv.URL, "", "")

	q, err := f.FetchLatestPrice(context.Background(), "vnm")
	assert.NoError(t, err)
	assert.True(t, strings.Contains(seen, "interval=1m"))
	assert.Equal(t, q.Ticker, "VNM")
	assert.Equal(t, q.Price, 27350.0)
	assert.Equal(t, q.Change, 350.0)
	assert.Equal(t, q.ChangePercent, 1.3)
}

func TestYahooFetcher_RelayPrefix(t *testing.T) {
	var seen string
	srv := newYahooServer(t, http.StatusOK, chartFixture, &seen)
	f := NewYahooFetcher("https://query1.finance.yahoo.com", srv.URL+"/raw?url=", "")

	_, err := f.FetchHistory(context.Background(), "FPT", "6mo")
	assert.NoError(t, err)
	u, err := url.Parse(seen)
	assert.NoError(t, err)
	upstream := u.Query().Get("url")
	assert.True(t, strings.HasPrefix(upstream, "https://query1.finance.yahoo.com/v8/finance/chart/FPT.VN"))
	assert.True(t, strings.Contains(upstream, "range=6mo"))
}
