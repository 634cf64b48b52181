package model

import "time"

// PortfolioStock is one watched ticker with its latest quote.
type PortfolioStock struct {
	Ticker        string    `json:"ticker"`
	AddedPrice    float64   `json:"addedPrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	AddedAt       time.Time `json:"addedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PortfolioState is the persisted watchlist.
type PortfolioState struct {
	Stocks    []PortfolioStock `json:"stocks"`
	UpdatedAt time.Time        `json:"updated_at"`
}
