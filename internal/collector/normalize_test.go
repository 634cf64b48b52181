package collector

import (
	"math"
	"testing"
	"time"

	"StockLens/internal/model"

	"github.com/peterldowns/testy/assert"
)

func f(v float64) *float64 { return &v }

// session returns the unix timestamp of 09:00 ICT on the given day.
func session(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 9, 0, 0, 0, VietnamZone).Unix()
}

func TestNormalize_Empty(t *testing.T) {
	bars, dropped := Normalize(nil)
	assert.True(t, bars != nil)
	assert.Equal(t, len(bars), 0)
	assert.Equal(t, dropped, 0)
}

func TestNormalize_DropsMissingClose(t *testing.T) {
	quotes := []model.RawQuote{
		{Timestamp: session(2025, 3, 3), Open: f(10), High: f(11), Low: f(9), Close: f(10), Volume: f(100)},
		{Timestamp: session(2025, 3, 4), Open: f(10), High: f(11), Low: f(9)},
		{Timestamp: session(2025, 3, 5), Close: f(math.NaN())},
		{Timestamp: session(2025, 3, 6), Close: f(0)},
		{Timestamp: session(2025, 3, 7), Open: f(12), High: f(13), Low: f(11), Close: f(12), Volume: f(200)},
	}
	bars, dropped := Normalize(quotes)
	assert.Equal(t, len(bars), 2)
	assert.Equal(t, dropped, 3)
	assert.Equal(t, bars[0].Date, "03/03")
	assert.Equal(t, bars[1].Date, "07/03")
}

func TestNormalize_PrefersAdjustedClose(t *testing.T) {
	quotes := []model.RawQuote{
		{Timestamp: session(2025, 3, 3), Open: f(25000), High: f(25500), Low: f(24800), Close: f(25200), AdjClose: f(24100.4), Volume: f(1500)},
	}
	bars, _ := Normalize(quotes)
	assert.Equal(t, len(bars), 1)
	assert.Equal(t, bars[0].Close, 24100.0)
	assert.Equal(t, bars[0].Open, 25000.0)
	assert.Equal(t, bars[0].High, 25500.0)
	// Low widened to keep low <= close.
	assert.Equal(t, bars[0].Low, 24100.0)
}

func TestNormalize_FallsBackToRawCloseWhenAdjustedIsNull(t *testing.T) {
	quotes := []model.RawQuote{
		{Timestamp: session(2025, 3, 3), Close: f(30000.6), AdjClose: nil},
	}
	bars, _ := Normalize(quotes)
	assert.Equal(t, bars[0].Close, 30001.0)
}

func TestNormalize_DefaultsMissingOHLToClose(t *testing.T) {
	bars, _ := Normalize([]model.RawQuote{{Timestamp: session(2025, 3, 3), Close: f(500)}})
	b := bars[0]
	assert.Equal(t, b.Open, 500.0)
	assert.Equal(t, b.High, 500.0)
	assert.Equal(t, b.Low, 500.0)
	assert.Equal(t, b.Volume, int64(0))
}

func TestNormalize_BarInvariant(t *testing.T) {
	quotes := []model.RawQuote{
		{Timestamp: session(2025, 3, 3), Open: f(105), High: f(101), Low: f(99), Close: f(98)},
		{Timestamp: session(2025, 3, 4), Open: f(90), High: f(120), Low: f(95), Close: f(110)},
	}
	bars, _ := Normalize(quotes)
	for _, b := range bars {
		assert.True(t, b.Low <= b.Open && b.Low <= b.Close)
		assert.True(t, b.High >= b.Open && b.High >= b.Close)
		assert.True(t, b.Low <= b.High)
	}
}

func TestNormalize_SortsAndDedupesSessions(t *testing.T) {
	quotes := []model.RawQuote{
		{Timestamp: session(2025, 3, 5), Close: f(3)},
		{Timestamp: session(2025, 3, 3), Close: f(1)},
		{Timestamp: session(2025, 3, 4), Close: f(2)},
		// Intraday refresh of the last session: later quote wins.
		{Timestamp: session(2025, 3, 5) + 3600, Close: f(4)},
	}
	bars, dropped := Normalize(quotes)
	assert.Equal(t, dropped, 1)
	assert.Equal(t, len(bars), 3)
	assert.Equal(t, bars[0].Close, 1.0)
	assert.Equal(t, bars[1].Close, 2.0)
	assert.Equal(t, bars[2].Close, 4.0)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Time.After(bars[i-1].Time))
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	quotes := []model.RawQuote{
		{Timestamp: session(2025, 3, 5), Close: f(3)},
		{Timestamp: session(2025, 3, 3), Close: f(1)},
	}
	Normalize(quotes)
	assert.Equal(t, quotes[0].Timestamp, session(2025, 3, 5))
}

func TestNormalize_DateUsesVietnamTime(t *testing.T) {
	// 2025-03-02 20:00 UTC is already 03/03 in Hanoi.
	ts := time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC).Unix()
	bars, _ := Normalize([]model.RawQuote{{Timestamp: ts, Close: f(1)}})
	assert.Equal(t, bars[0].Date, "03/03")
}
