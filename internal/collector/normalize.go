package collector

import (
	"math"
	"sort"
	"time"

	"StockLens/internal/model"
)

// VietnamZone is Indochina Time (UTC+7). Vietnam observes no daylight saving.
var VietnamZone = time.FixedZone("ICT", 7*60*60)

// DisplayDateLayout renders bar dates as day/month.
const DisplayDateLayout = "02/01"

// Normalize converts raw quotes into validated, ascending price bars.
//
// Quotes without a usable close are dropped, never interpolated. A positive
// adjusted close is preferred over the raw close. Missing open/high/low fall
// back to the close and high/low are widened to cover open and close. Prices
// are rounded to whole VND. When two quotes share a session date the later
// one wins. The second return value is the number of quotes dropped.
func Normalize(quotes []model.RawQuote) ([]model.PriceBar, int) {
	ordered := make([]model.RawQuote, len(quotes))
	copy(ordered, quotes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp < ordered[j].Timestamp })

	bars := make([]model.PriceBar, 0, len(ordered))
	dropped := 0
	for _, q := range ordered {
		closePrice, ok := usableClose(q)
		if !ok {
			dropped++
			continue
		}
		open := orDefault(q.Open, closePrice)
		high := math.Max(orDefault(q.High, closePrice), math.Max(open, closePrice))
		low := math.Min(orDefault(q.Low, closePrice), math.Min(open, closePrice))

		t := time.Unix(q.Timestamp, 0).In(VietnamZone)
		bar := model.PriceBar{
			Time:   t,
			Date:   t.Format(DisplayDateLayout),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume(q.Volume),
		}

		if n := len(bars); n > 0 && sameSession(bars[n-1].Time, t) {
			bars[n-1] = bar
			dropped++
			continue
		}
		bars = append(bars, bar)
	}
	return bars, dropped
}

func usableClose(q model.RawQuote) (float64, bool) {
	if v, ok := positive(q.AdjClose); ok {
		return math.Round(v), true
	}
	if v, ok := positive(q.Close); ok {
		return math.Round(v), true
	}
	return 0, false
}

func positive(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) || *p <= 0 {
		return 0, false
	}
	return *p, true
}

func orDefault(p *float64, def float64) float64 {
	if v, ok := positive(p); ok {
		return math.Round(v)
	}
	return def
}

func volume(p *float64) int64 {
	if p == nil || math.IsNaN(*p) || *p < 0 {
		return 0
	}
	return int64(math.Round(*p))
}

func sameSession(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
