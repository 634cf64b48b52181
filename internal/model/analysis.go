package model

// Recommendation is the AI verdict for a ticker.
type Recommendation string

const (
	RecommendBuy     Recommendation = "BUY"
	RecommendSell    Recommendation = "SELL"
	RecommendHold    Recommendation = "HOLD"
	RecommendNeutral Recommendation = "NEUTRAL"
)

// Confidence grades a price forecast.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// NewsCategory values are the Vietnamese labels the AI is asked to use.
type NewsCategory string

const (
	NewsEarnings NewsCategory = "Kết quả kinh doanh"
	NewsDividend NewsCategory = "Cổ tức"
	NewsMacro    NewsCategory = "Vĩ mô"
	NewsTrading  NewsCategory = "Giao dịch"
	NewsGeneral  NewsCategory = "Tin chung"
)

// FinancialRatios are all optional; the AI often omits some of them.
type FinancialRatios struct {
	PE            *float64 `json:"pe,omitempty"`
	EPS           *float64 `json:"eps,omitempty"`
	ROE           string   `json:"roe,omitempty"`
	PB            *float64 `json:"pb,omitempty"`
	DividendYield string   `json:"dividendYield,omitempty"`
	MarketCap     string   `json:"marketCap,omitempty"`
}

// PriceForecast is the 3-6 month target produced by the AI.
type PriceForecast struct {
	TargetPrice  float64    `json:"targetPrice"`
	CurrentPrice float64    `json:"currentPrice"`
	Timeframe    string     `json:"timeframe"`
	Confidence   Confidence `json:"confidence"`
	Reasoning    string     `json:"reasoning"`
}

// NewsItem is one headline related to a ticker.
type NewsItem struct {
	Title    string       `json:"title"`
	Source   string       `json:"source"`
	URL      string       `json:"url"`
	Time     string       `json:"time"`
	Category NewsCategory `json:"category"`
}

// GroundingLink is a web source the AI cited.
type GroundingLink struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// AnalysisResult is the validated AI analysis for one ticker.
type AnalysisResult struct {
	Ticker              string          `json:"ticker"`
	Summary             string          `json:"summary"`
	TechnicalAnalysis   string          `json:"technicalAnalysis"`
	FundamentalAnalysis string          `json:"fundamentalAnalysis"`
	Risks               string          `json:"risks"`
	Recommendation      Recommendation  `json:"recommendation"`
	FinancialRatios     FinancialRatios `json:"financialRatios"`
	PriceForecast       PriceForecast   `json:"priceForecast"`
	News                []NewsItem      `json:"news"`
	Sources             []GroundingLink `json:"sources"`
}

// MarketIndex is one row of the market overview (VN-INDEX, HNX-INDEX...).
type MarketIndex struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}
