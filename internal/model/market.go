package model

import "time"

// RawQuote is one session as reported by the upstream quote source.
// Every price column may be null (trading halts, holidays, partial sessions).
type RawQuote struct {
	Timestamp int64
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	AdjClose  *float64
	Volume    *float64
}

// PriceBar represents a single validated daily session.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Date   string    `json:"date"` // dd/MM display label
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Quote is the latest intraday price for a ticker.
type Quote struct {
	Ticker        string    `json:"ticker"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previousClose"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	FetchedAt     time.Time `json:"fetchedAt"`
}
