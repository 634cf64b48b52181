package model

import "time"

// SignalKind is the direction of an RSI marker.
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
)

// Label returns the short marker drawn on the chart (Mua / Bán).
func (k SignalKind) Label() string {
	switch k {
	case SignalBuy:
		return "M"
	case SignalSell:
		return "B"
	default:
		return ""
	}
}

// Signal tags one bar index with a BUY or SELL marker.
type Signal struct {
	Index int        `json:"index"`
	Kind  SignalKind `json:"kind"`
	Price float64    `json:"price"`
	Date  string     `json:"date"`
	Time  time.Time  `json:"time"`
	RSI   float64    `json:"rsi"`
}

// ChartRecord is one bar enriched with indicator values and an optional
// signal marker. Absent values are omitted from JSON.
type ChartRecord struct {
	Date        string     `json:"date"`
	Time        time.Time  `json:"time"`
	Open        float64    `json:"open"`
	High        float64    `json:"high"`
	Low         float64    `json:"low"`
	Close       float64    `json:"close"`
	Volume      int64      `json:"volume"`
	SMA         *float64   `json:"sma,omitempty"`
	EMA         *float64   `json:"ema,omitempty"`
	RSI         *float64   `json:"rsi,omitempty"`
	Signal      *float64   `json:"signal,omitempty"`
	SignalKind  SignalKind `json:"signalKind,omitempty"`
	SignalLabel string     `json:"signalLabel,omitempty"`
}

// Analysis is the full output of one indicator pipeline run.
type Analysis struct {
	Ticker        string        `json:"ticker"`
	Records       []ChartRecord `json:"records"`
	Signals       []Signal      `json:"signals"`
	RecentSignals []Signal      `json:"recentSignals"`
	SMA           Series        `json:"-"`
	EMA           Series        `json:"-"`
	RSI           Series        `json:"-"`
}
