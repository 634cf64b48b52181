package strategy

import (
	"testing"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func bars(n int) []model.PriceBar {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	out := make([]model.PriceBar, n)
	for i := range out {
		t := start.AddDate(0, 0, i)
		out[i] = model.PriceBar{Time: t, Date: t.Format("02/01"), Close: float64(1000 + i), Open: float64(1000 + i), High: float64(1001 + i), Low: float64(999 + i)}
	}
	return out
}

// rsiSeries builds a series; negative values mark undefined slots.
func rsiSeries(vals ...float64) model.Series {
	s := make(model.Series, len(vals))
	for i, v := range vals {
		if v >= 0 {
			s[i] = model.Value{V: v, Valid: true}
		}
	}
	return s
}

type emitted struct {
	Index int
	Kind  model.SignalKind
}

func summarize(signals []model.Signal) []emitted {
	out := make([]emitted, 0, len(signals))
	for _, s := range signals {
		out = append(out, emitted{s.Index, s.Kind})
	}
	return out
}

func TestGenerateSignals_Policies(t *testing.T) {
	// oversold, neutral bounce, oversold again, overbought, neutral, overbought again
	rsi := rsiSeries(-1, 25, 20, 50, 28, 75, 80, 60, 72)

	tests := []struct {
		name   string
		policy ZonePolicy
		want   []emitted
	}{
		{
			name:   "sticky keeps the zone armed across neutral readings",
			policy: ZoneSticky,
			want: []emitted{
				{1, model.SignalBuy},
				{5, model.SignalSell},
			},
		},
		{
			name:   "reset re-arms both kinds on neutral readings",
			policy: ZoneReset,
			want: []emitted{
				{1, model.SignalBuy},
				{4, model.SignalBuy},
				{5, model.SignalSell},
				{8, model.SignalSell},
			},
		},
	}
	for _, tt := range tests {
		rules := DefaultRules()
		rules.Policy = tt.policy
		got := summarize(GenerateSignals(bars(len(rsi)), rsi, rules))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: signals mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestGenerateSignals_AlternatingExtremes(t *testing.T) {
	// Opposite extremes always fire regardless of policy.
	rsi := rsiSeries(10, 90, 10, 90)
	for _, p := range []ZonePolicy{ZoneSticky, ZoneReset} {
		rules := DefaultRules()
		rules.Policy = p
		got := GenerateSignals(bars(4), rsi, rules)
		assert.Equal(t, len(got), 4)
	}
}

func TestGenerateSignals_DebounceWithinRun(t *testing.T) {
	rsi := rsiSeries(29, 20, 10, 5, 1, 0, 29.9)
	got := GenerateSignals(bars(len(rsi)), rsi, DefaultRules())
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Index, 0)
	assert.Equal(t, got[0].Kind, model.SignalBuy)
}

func TestGenerateSignals_ThresholdsAreExclusive(t *testing.T) {
	rsi := rsiSeries(30, 70, 30, 70)
	got := GenerateSignals(bars(4), rsi, DefaultRules())
	assert.Equal(t, len(got), 0)
}

func TestGenerateSignals_NoSignalWithoutRSI(t *testing.T) {
	rsi := rsiSeries(-1, -1, 10, -1, 90)
	got := GenerateSignals(bars(5), rsi, DefaultRules())
	for _, s := range got {
		_, ok := rsi.At(s.Index)
		assert.True(t, ok)
	}
	assert.Equal(t, len(got), 2)
}

func TestGenerateSignals_CarriesBarFields(t *testing.T) {
	b := bars(3)
	got := GenerateSignals(b, rsiSeries(-1, 12.5, 50), DefaultRules())
	assert.Equal(t, len(got), 1)
	want := model.Signal{Index: 1, Kind: model.SignalBuy, Price: b[1].Close, Date: b[1].Date, Time: b[1].Time, RSI: 12.5}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("signal mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateSignals_MismatchedLengths(t *testing.T) {
	got := GenerateSignals(bars(2), rsiSeries(10, 50, 90, 10), DefaultRules())
	assert.Equal(t, len(got), 1)

	got = GenerateSignals(bars(5), rsiSeries(50, 90), DefaultRules())
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Kind, model.SignalSell)
}

func TestGenerateSignals_Empty(t *testing.T) {
	got := GenerateSignals(nil, nil, DefaultRules())
	assert.True(t, got != nil)
	assert.Equal(t, len(got), 0)
}

func TestGenerateSignals_DecreasingSeriesFiresOneBuy(t *testing.T) {
	b := make([]model.PriceBar, 20)
	for i := range b {
		c := float64(100 - i)
		b[i] = model.PriceBar{Close: c, Open: c, High: c, Low: c}
	}
	rsi := calculator.RSI(b, 14)
	got := GenerateSignals(b, rsi, DefaultRules())
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Index, 14)
	assert.Equal(t, got[0].Kind, model.SignalBuy)
	assert.Equal(t, got[0].Price, 86.0)
}

func TestRecent(t *testing.T) {
	signals := []model.Signal{{Index: 1}, {Index: 4}, {Index: 9}, {Index: 12}}
	got := Recent(signals, 3)
	assert.Equal(t, len(got), 3)
	assert.Equal(t, got[0].Index, 12)
	assert.Equal(t, got[1].Index, 9)
	assert.Equal(t, got[2].Index, 4)

	assert.Equal(t, len(Recent(signals[:2], 3)), 2)
	assert.Equal(t, len(Recent(signals, 0)), 0)
	assert.Equal(t, len(Recent(nil, 3)), 0)
	// The input must not be reordered.
	assert.Equal(t, signals[0].Index, 1)
}

func TestParseZonePolicy(t *testing.T) {
	p, err := ParseZonePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, p, ZoneSticky)

	p, err = ParseZonePolicy(" Reset ")
	assert.NoError(t, err)
	assert.Equal(t, p, ZoneReset)

	_, err = ParseZonePolicy("bogus")
	assert.Error(t, err)
}
