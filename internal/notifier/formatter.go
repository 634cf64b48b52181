package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// FormatVND renders a price with dot thousand separators, e.g. 72.500.
func FormatVND(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}

func signalText(k model.SignalKind) string {
	switch k {
	case model.SignalBuy:
		return "🟢 MUA"
	case model.SignalSell:
		return "🔴 BÁN"
	default:
		return string(k)
	}
}

func writeSignals(b *strings.Builder, signals []model.Signal) {
	for _, s := range signals {
		fmt.Fprintf(b, "  %s %s @ %s (RSI %.0f)\n", s.Date, signalText(s.Kind), FormatVND(s.Price), s.RSI)
	}
}

// FormatNewSignals formats the alert sent when a scan finds signals that were
// not reported before.
func FormatNewSignals(ticker string, signals []model.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>%s</b> | Tín hiệu mới\n\n", html.EscapeString(ticker))
	writeSignals(&b, signals)
	return b.String()
}

// FormatSignalList formats signals of one ticker in the order given.
func FormatSignalList(ticker string, signals []model.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📍 <b>%s</b> | Tín hiệu RSI\n\n", html.EscapeString(ticker))
	if len(signals) == 0 {
		b.WriteString("  Chưa có tín hiệu\n")
		return b.String()
	}
	writeSignals(&b, signals)
	return b.String()
}

// rsiZone describes where an RSI reading sits against the 30/70 bands.
func rsiZone(rsi float64) string {
	switch {
	case rsi < 30:
		return "quá bán"
	case rsi > 70:
		return "quá mua"
	default:
		return "trung tính"
	}
}

// FormatTickerSummary formats the technical snapshot of one ticker: last
// close, latest indicator values, the trading range and recent signals.
func FormatTickerSummary(a *model.Analysis, bars []model.PriceBar) string {
	var b strings.Builder
	if len(bars) == 0 {
		fmt.Fprintf(&b, "⚠️ Không có dữ liệu cho <b>%s</b>", html.EscapeString(a.Ticker))
		return b.String()
	}
	last := bars[len(bars)-1]

	fmt.Fprintf(&b, "📊 <b>%s</b> | %s\n\n", html.EscapeString(a.Ticker), last.Date)
	fmt.Fprintf(&b, "Giá đóng cửa: %s", FormatVND(last.Close))
	if len(bars) > 1 {
		prev := bars[len(bars)-2].Close
		fmt.Fprintf(&b, " (%+.2f%%)", (last.Close-prev)/prev*100)
	}
	b.WriteString("\n")

	if v, _, ok := calculator.LastValue(a.SMA); ok {
		fmt.Fprintf(&b, "SMA: %s\n", FormatVND(v))
	}
	if v, _, ok := calculator.LastValue(a.EMA); ok {
		fmt.Fprintf(&b, "EMA: %s\n", FormatVND(v))
	}
	if v, _, ok := calculator.LastValue(a.RSI); ok {
		fmt.Fprintf(&b, "RSI: %.0f (%s)\n", v, rsiZone(v))
	}

	if high, low, err := calculator.Range(bars, 0); err == nil {
		pos, _ := calculator.RangePosition(last.Close, high, low)
		fmt.Fprintf(&b, "Biên độ: %s - %s (vị trí %.0f%%)\n", FormatVND(low), FormatVND(high), pos*100)
	}

	b.WriteString("\n<b>Tín hiệu gần nhất:</b>\n")
	if len(a.RecentSignals) == 0 {
		b.WriteString("  Chưa có tín hiệu\n")
	} else {
		writeSignals(&b, a.RecentSignals)
	}
	return b.String()
}

// FormatWatchlist formats the watchlist with the latest quotes.
func FormatWatchlist(stocks []model.PortfolioStock) string {
	if len(stocks) == 0 {
		return "📋 Danh mục theo dõi trống. Dùng /watch MÃ để thêm."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Danh mục theo dõi</b>\n\n")
	for _, s := range stocks {
		sinceAdded := 0.0
		if s.AddedPrice > 0 {
			sinceAdded = (s.CurrentPrice - s.AddedPrice) / s.AddedPrice * 100
		}
		fmt.Fprintf(&b, "<b>%s</b>: %s (%+.2f%% hôm nay, %+.2f%% từ khi thêm)\n",
			html.EscapeString(s.Ticker), FormatVND(s.CurrentPrice), s.ChangePercent, sinceAdded)
	}
	return b.String()
}

var recommendationText = map[model.Recommendation]string{
	model.RecommendBuy:     "MUA",
	model.RecommendSell:    "BÁN",
	model.RecommendHold:    "NẮM GIỮ",
	model.RecommendNeutral: "TRUNG LẬP",
}

// FormatAnalysis formats the digest of an AI analysis.
func FormatAnalysis(res *model.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 <b>Phân tích AI: %s</b>\n\n", html.EscapeString(res.Ticker))
	fmt.Fprintf(&b, "Khuyến nghị: <b>%s</b>\n", recommendationText[res.Recommendation])

	pf := res.PriceForecast
	if pf.CurrentPrice > 0 {
		upside := (pf.TargetPrice - pf.CurrentPrice) / pf.CurrentPrice * 100
		fmt.Fprintf(&b, "Giá mục tiêu: %s (%+.1f%%, %s, độ tin cậy %s)\n",
			FormatVND(pf.TargetPrice), upside, html.EscapeString(pf.Timeframe), pf.Confidence)
	}

	r := res.FinancialRatios
	var ratios []string
	if r.PE != nil {
		ratios = append(ratios, fmt.Sprintf("P/E %.1f", *r.PE))
	}
	if r.PB != nil {
		ratios = append(ratios, fmt.Sprintf("P/B %.1f", *r.PB))
	}
	if r.EPS != nil {
		ratios = append(ratios, "EPS "+FormatVND(*r.EPS))
	}
	if r.ROE != "" {
		ratios = append(ratios, "ROE "+html.EscapeString(r.ROE))
	}
	if len(ratios) > 0 {
		b.WriteString(strings.Join(ratios, " | ") + "\n")
	}

	fmt.Fprintf(&b, "\n<b>Tóm tắt:</b> %s\n", html.EscapeString(res.Summary))
	fmt.Fprintf(&b, "\n<b>Rủi ro:</b> %s\n", html.EscapeString(res.Risks))

	if len(res.News) > 0 {
		b.WriteString("\n<b>Tin tức:</b>\n")
		for i, n := range res.News {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "  • <a href=\"%s\">%s</a> (%s)\n",
				html.EscapeString(n.URL), html.EscapeString(n.Title), html.EscapeString(n.Source))
		}
	}
	return b.String()
}

// FormatNews formats the result of a news search.
func FormatNews(ticker, query string, items []model.NewsItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("Không tìm thấy tin tức %s về \"%s\"", html.EscapeString(ticker), html.EscapeString(query))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📰 <b>Tin tức %s</b> | %s\n\n", html.EscapeString(ticker), html.EscapeString(query))
	for _, n := range items {
		fmt.Fprintf(&b, "• [%s] <a href=\"%s\">%s</a>\n  %s, %s\n",
			html.EscapeString(string(n.Category)), html.EscapeString(n.URL), html.EscapeString(n.Title),
			html.EscapeString(n.Source), html.EscapeString(n.Time))
	}
	return b.String()
}

// FormatMarketOverview formats the market index table.
func FormatMarketOverview(rows []model.MarketIndex, at time.Time) string {
	if len(rows) == 0 {
		return "⚠️ Không lấy được dữ liệu thị trường"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏦 <b>Tổng quan thị trường</b> | %s\n\n", at.Format("02/01 15:04"))
	for _, r := range rows {
		arrow := "▲"
		if r.Change < 0 {
			arrow = "▼"
		}
		fmt.Fprintf(&b, "%s: %.2f %s %+.2f (%+.2f%%)\n", html.EscapeString(r.Name), r.Value, arrow, r.Change, r.ChangePercent)
	}
	return b.String()
}
