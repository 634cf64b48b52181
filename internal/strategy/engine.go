package strategy

import (
	"fmt"
	"strings"

	"StockLens/internal/model"
)

// ZonePolicy decides what happens to the debounce state when RSI returns to
// the neutral band between the oversold and overbought thresholds.
type ZonePolicy string

const (
	// ZoneSticky keeps the last extreme armed until the opposite extreme
	// fires. A dip below oversold, a bounce into neutral and a second dip
	// produce a single BUY.
	ZoneSticky ZonePolicy = "sticky"
	// ZoneReset clears the state on every neutral reading so each fresh
	// excursion into an extreme zone produces its own marker.
	ZoneReset ZonePolicy = "reset"
)

// ParseZonePolicy maps a config or query value to a policy.
func ParseZonePolicy(s string) (ZonePolicy, error) {
	switch ZonePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ZoneSticky:
		return ZoneSticky, nil
	case ZoneReset:
		return ZoneReset, nil
	default:
		return "", fmt.Errorf("unknown zone policy %q", s)
	}
}

// Rules configures the RSI signal scan.
type Rules struct {
	Oversold   float64
	Overbought float64
	Policy     ZonePolicy
}

// DefaultRules are the classic 30/70 thresholds with sticky zones.
func DefaultRules() Rules {
	return Rules{Oversold: 30, Overbought: 70, Policy: ZoneSticky}
}

// lastSignal is the debounce state of the scan.
type lastSignal int

const (
	lastNone lastSignal = iota
	lastBuy
	lastSell
)

// scanState is the accumulator threaded through the signal fold.
type scanState struct {
	last    lastSignal
	signals []model.Signal
}

func (r Rules) step(st scanState, i int, bar model.PriceBar, rsi float64, defined bool) scanState {
	if !defined {
		return st
	}
	var kind model.SignalKind
	switch {
	case rsi < r.Oversold && st.last != lastBuy:
		kind = model.SignalBuy
		st.last = lastBuy
	case rsi > r.Overbought && st.last != lastSell:
		kind = model.SignalSell
		st.last = lastSell
	case rsi >= r.Oversold && rsi <= r.Overbought && r.Policy == ZoneReset:
		st.last = lastNone
	}
	if kind != "" {
		st.signals = append(st.signals, model.Signal{
			Index: i,
			Kind:  kind,
			Price: bar.Close,
			Date:  bar.Date,
			Time:  bar.Time,
			RSI:   rsi,
		})
	}
	return st
}

// GenerateSignals scans RSI left to right and emits BUY markers on oversold
// readings and SELL markers on overbought readings, at most once per
// excursion. Slots with undefined RSI never produce a signal. When bars and
// rsi differ in length only the common prefix is scanned.
func GenerateSignals(bars []model.PriceBar, rsi model.Series, rules Rules) []model.Signal {
	n := len(bars)
	if len(rsi) < n {
		n = len(rsi)
	}
	st := scanState{last: lastNone}
	for i := 0; i < n; i++ {
		v, ok := rsi.At(i)
		st = rules.step(st, i, bars[i], v, ok)
	}
	if st.signals == nil {
		return []model.Signal{}
	}
	return st.signals
}

// Recent returns at most n signals, newest first.
func Recent(signals []model.Signal, n int) []model.Signal {
	if n <= 0 {
		return []model.Signal{}
	}
	out := make([]model.Signal, 0, n)
	for i := len(signals) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, signals[i])
	}
	return out
}
