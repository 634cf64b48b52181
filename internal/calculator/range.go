package calculator

import (
	"errors"
	"math"

	"StockLens/internal/model"
)

// ErrNoData is returned when a summary is requested over an empty series.
var ErrNoData = errors.New("no bars provided")

// Range scans the most recent lookback bars and returns the high and low.
// A non-positive lookback scans the whole series.
func Range(bars []model.PriceBar, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrNoData
	}
	n := len(bars)
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where the current price sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// LastValue returns the most recent defined value of a series and its index.
func LastValue(s model.Series) (v float64, idx int, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i].V, i, true
		}
	}
	return 0, -1, false
}
