package calculator

import (
	"math"

	"StockLens/internal/model"
)

// SMA computes the simple moving average of closes over a trailing window.
// Slots before index period-1 are undefined; defined values are rounded to
// the nearest whole price unit. A non-positive period or a period longer than
// the series yields an all-undefined series.
func SMA(bars []model.PriceBar, period int) model.Series {
	out := make(model.Series, len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}
	closes := extractCloses(bars)
	for i := period - 1; i < len(closes); i++ {
		out[i] = model.Value{V: math.Round(mean(closes[i-period+1 : i+1])), Valid: true}
	}
	return out
}

// EMA computes the exponential moving average with k = 2/(period+1).
//
// The first slot is seeded with the first close regardless of period, so early
// values lean towards price instead of a period-length warm-up. Later slots
// are rounded for display while the unrounded value is carried forward.
func EMA(bars []model.PriceBar, period int) model.Series {
	out := make(model.Series, len(bars))
	if period <= 0 || len(bars) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	prev := bars[0].Close
	out[0] = model.Value{V: prev, Valid: true}
	for i := 1; i < len(bars); i++ {
		prev = bars[i].Close*k + prev*(1-k)
		out[i] = model.Value{V: math.Round(prev), Valid: true}
	}
	return out
}

func mean(window []float64) float64 {
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
