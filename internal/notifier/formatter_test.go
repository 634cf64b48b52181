package notifier

import (
	"strings"
	"testing"
	"time"

	"StockLens/internal/chart"
	"StockLens/internal/model"

	"github.com/peterldowns/testy/assert"
)

func TestFormatVND(t *testing.T) {
	cases := map[float64]string{
		0:        "0",
		950:      "950",
		1000:     "1.000",
		72500:    "72.500",
		1234567:  "1.234.567",
		-45000.4: "-45.000",
	}
	for in, want := range cases {
		assert.Equal(t, FormatVND(in), want)
	}
}

func TestFormatNewSignals(t *testing.T) {
	msg := FormatNewSignals("VNM", []model.Signal{
		{Kind: model.SignalBuy, Price: 68000, Date: "03/03", RSI: 27.6},
		{Kind: model.SignalSell, Price: 75500, Date: "20/03", RSI: 71.2},
	})
	assert.True(t, strings.Contains(msg, "<b>VNM</b>"))
	assert.True(t, strings.Contains(msg, "03/03 🟢 MUA @ 68.000 (RSI 28)"))
	assert.True(t, strings.Contains(msg, "20/03 🔴 BÁN @ 75.500 (RSI 71)"))
}

func TestFormatSignalList(t *testing.T) {
	assert.True(t, strings.Contains(FormatSignalList("VNM", nil), "Chưa có tín hiệu"))
	msg := FormatSignalList("VNM", []model.Signal{{Kind: model.SignalSell, Price: 1500, Date: "01/02", RSI: 80}})
	assert.True(t, strings.Contains(msg, "01/02 🔴 BÁN @ 1.500 (RSI 80)"))
}

func summaryBars(closes ...float64) []model.PriceBar {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		ts := start.AddDate(0, 0, i)
		bars[i] = model.PriceBar{Time: ts, Date: ts.Format("02/01"), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func TestFormatTickerSummary(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 - i)
	}
	bars := summaryBars(closes...)
	a := chart.Build(bars, chart.DefaultOptions())
	a.Ticker = "HPG"

	msg := FormatTickerSummary(a, bars)
	assert.True(t, strings.Contains(msg, "<b>HPG</b> | 31/01"))
	assert.True(t, strings.Contains(msg, "Giá đóng cửa: 71 (-1.39%)"))
	assert.True(t, strings.Contains(msg, "RSI: 0 (quá bán)"))
	assert.True(t, strings.Contains(msg, "SMA: 81"))
	assert.False(t, strings.Contains(msg, "EMA:"))
	assert.True(t, strings.Contains(msg, "Biên độ: 71 - 100 (vị trí 0%)"))
	assert.True(t, strings.Contains(msg, "MUA @ 86"))
}

func TestFormatTickerSummary_NoBars(t *testing.T) {
	msg := FormatTickerSummary(&model.Analysis{Ticker: "XYZ"}, nil)
	assert.True(t, strings.Contains(msg, "Không có dữ liệu"))
}

func TestFormatWatchlist(t *testing.T) {
	assert.True(t, strings.Contains(FormatWatchlist(nil), "trống"))

	msg := FormatWatchlist([]model.PortfolioStock{
		{Ticker: "FPT", AddedPrice: 100000, CurrentPrice: 110000, ChangePercent: 1.5},
	})
	assert.True(t, strings.Contains(msg, "<b>FPT</b>: 110.000 (+1.50% hôm nay, +10.00% từ khi thêm)"))
}

func TestFormatAnalysis(t *testing.T) {
	pe := 12.5
	msg := FormatAnalysis(&model.AnalysisResult{
		Ticker:         "VNM",
		Summary:        "Tăng trưởng <ổn định>",
		Risks:          "Tỷ giá",
		Recommendation: model.RecommendHold,
		FinancialRatios: model.FinancialRatios{
			PE:  &pe,
			ROE: "25%",
		},
		PriceForecast: model.PriceForecast{TargetPrice: 80000, CurrentPrice: 64000, Timeframe: "6 tháng", Confidence: model.ConfidenceHigh},
		News: []model.NewsItem{
			{Title: "A", Source: "CafeF", URL: "https://cafef.vn/a"},
			{Title: "B", Source: "CafeF", URL: "https://cafef.vn/b"},
			{Title: "C", Source: "CafeF", URL: "https://cafef.vn/c"},
			{Title: "D", Source: "CafeF", URL: "https://cafef.vn/d"},
		},
	})
	assert.True(t, strings.Contains(msg, "Khuyến nghị: <b>NẮM GIỮ</b>"))
	assert.True(t, strings.Contains(msg, "Giá mục tiêu: 80.000 (+25.0%, 6 tháng, độ tin cậy HIGH)"))
	assert.True(t, strings.Contains(msg, "P/E 12.5 | ROE 25%"))
	assert.True(t, strings.Contains(msg, "Tăng trưởng &lt;ổn định&gt;"))
	assert.True(t, strings.Contains(msg, "https://cafef.vn/c"))
	assert.False(t, strings.Contains(msg, "https://cafef.vn/d"))
}

func TestFormatMarketOverview(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 5, 0, 0, time.UTC)
	msg := FormatMarketOverview([]model.MarketIndex{
		{Name: "VN-INDEX", Value: 1300.12, Change: -5.5, ChangePercent: -0.42},
		{Name: "VN30", Value: 1350, Change: 2, ChangePercent: 0.15},
	}, at)
	assert.True(t, strings.Contains(msg, "14/03 15:05"))
	assert.True(t, strings.Contains(msg, "VN-INDEX: 1300.12 ▼ -5.50 (-0.42%)"))
	assert.True(t, strings.Contains(msg, "VN30: 1350.00 ▲ +2.00 (+0.15%)"))

	assert.True(t, strings.Contains(FormatMarketOverview(nil, at), "Không lấy được"))
}

func TestFormatNews(t *testing.T) {
	msg := FormatNews("VNM", "cổ tức", []model.NewsItem{
		{Title: "VNM tạm ứng cổ tức", Source: "CafeF", URL: "https://cafef.vn/vnm?a=1&b=2", Time: "2 giờ trước", Category: model.NewsDividend},
	})
	assert.True(t, strings.Contains(msg, "Tin tức VNM</b> | cổ tức"))
	assert.True(t, strings.Contains(msg, "[Cổ tức]"))
	assert.True(t, strings.Contains(msg, `href="https://cafef.vn/vnm?a=1&amp;b=2"`))
	assert.True(t, strings.Contains(msg, "CafeF, 2 giờ trước"))

	assert.Equal(t, FormatNews("VNM", "x", nil), `Không tìm thấy tin tức VNM về "x"`)
}
