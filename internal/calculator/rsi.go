package calculator

import (
	"math"

	"StockLens/internal/model"
)

// zeroLossRS stands in for an infinite RS when the average loss is zero.
const zeroLossRS = 100.0

// wilder is the state carried between RSI steps.
type wilder struct {
	period      int
	steps       int // deltas consumed so far
	sumGain     float64
	sumLoss     float64
	prevAvgGain float64
	prevAvgLoss float64
}

// next consumes one close-over-close delta and returns the new state plus the
// RSI for that step, if the seed window has filled.
func (w wilder) next(delta float64) (wilder, float64, bool) {
	gain := math.Max(delta, 0)
	loss := math.Max(-delta, 0)
	p := float64(w.period)
	w.steps++

	switch {
	case w.steps < w.period:
		w.sumGain += gain
		w.sumLoss += loss
		return w, 0, false
	case w.steps == w.period:
		w.sumGain += gain
		w.sumLoss += loss
		w.prevAvgGain = w.sumGain / p
		w.prevAvgLoss = w.sumLoss / p
	default:
		w.prevAvgGain = (w.prevAvgGain*(p-1) + gain) / p
		w.prevAvgLoss = (w.prevAvgLoss*(p-1) + loss) / p
	}
	return w, rsiFromAverages(w.prevAvgGain, w.prevAvgLoss), true
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	rs := zeroLossRS
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100.0 - 100.0/(1.0+rs)
}

// RSI computes the Wilder-smoothed Relative Strength Index in one pass.
// Index 0 is always undefined; the first value appears at index period.
// A non-positive period or too short a series yields an all-undefined series.
func RSI(bars []model.PriceBar, period int) model.Series {
	out := make(model.Series, len(bars))
	if period <= 0 || len(bars) <= period {
		return out
	}
	state := wilder{period: period}
	for i := 1; i < len(bars); i++ {
		var v float64
		var ok bool
		state, v, ok = state.next(bars[i].Close - bars[i-1].Close)
		if ok {
			out[i] = model.Value{V: v, Valid: true}
		}
	}
	return out
}
