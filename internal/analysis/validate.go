package analysis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"StockLens/internal/model"

	"github.com/tidwall/gjson"
)

// ErrInvalidAnalysis wraps every schema violation found in an AI payload.
var ErrInvalidAnalysis = errors.New("invalid analysis payload")

var recommendations = map[string]model.Recommendation{
	"BUY":     model.RecommendBuy,
	"SELL":    model.RecommendSell,
	"HOLD":    model.RecommendHold,
	"NEUTRAL": model.RecommendNeutral,
}

var confidences = map[string]model.Confidence{
	"LOW":    model.ConfidenceLow,
	"MEDIUM": model.ConfidenceMedium,
	"HIGH":   model.ConfidenceHigh,
}

var newsCategories = []model.NewsCategory{
	model.NewsEarnings, model.NewsDividend, model.NewsMacro, model.NewsTrading, model.NewsGeneral,
}

const defaultSourceTitle = "Nguồn tin"

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// requiredString returns the trimmed string at path or records a problem.
func requiredString(obj gjson.Result, path string, errs *[]error) string {
	v := obj.Get(path)
	if !v.Exists() || v.Type != gjson.String || strings.TrimSpace(v.Str) == "" {
		*errs = append(*errs, fmt.Errorf("%s: required string missing", path))
		return ""
	}
	return strings.TrimSpace(v.Str)
}

// number accepts JSON numbers and numeric strings ("12.5", "1,234").
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.Str), ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func optionalNumber(obj gjson.Result, path string) *float64 {
	if f, ok := number(obj.Get(path)); ok {
		return &f
	}
	return nil
}

// optionalText accepts strings and numbers, rendering numbers as text.
func optionalText(obj gjson.Result, path string) string {
	v := obj.Get(path)
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// ParseAnalysis validates an AI analysis payload against the strict schema.
// Missing required fields or out-of-enum values are rejected; malformed news
// items are dropped and unknown news categories default to "Tin chung".
func ParseAnalysis(text string) (*model.AnalysisResult, error) {
	raw := stripFences(text)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidAnalysis)
	}
	obj := gjson.Parse(raw)
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidAnalysis)
	}

	var errs []error
	res := &model.AnalysisResult{
		Summary:             requiredString(obj, "summary", &errs),
		TechnicalAnalysis:   requiredString(obj, "technicalAnalysis", &errs),
		FundamentalAnalysis: requiredString(obj, "fundamentalAnalysis", &errs),
		Risks:               requiredString(obj, "risks", &errs),
	}

	rec := strings.ToUpper(requiredString(obj, "recommendation", &errs))
	if r, ok := recommendations[rec]; ok {
		res.Recommendation = r
	} else if rec != "" {
		errs = append(errs, fmt.Errorf("recommendation: %q not one of BUY, SELL, HOLD, NEUTRAL", rec))
	}

	ratios := obj.Get("financialRatios")
	if !ratios.IsObject() {
		errs = append(errs, errors.New("financialRatios: required object missing"))
	} else {
		res.FinancialRatios = model.FinancialRatios{
			PE:            optionalNumber(ratios, "pe"),
			EPS:           optionalNumber(ratios, "eps"),
			ROE:           optionalText(ratios, "roe"),
			PB:            optionalNumber(ratios, "pb"),
			DividendYield: optionalText(ratios, "dividendYield"),
			MarketCap:     optionalText(ratios, "marketCap"),
		}
	}

	forecast := obj.Get("priceForecast")
	if !forecast.IsObject() {
		errs = append(errs, errors.New("priceForecast: required object missing"))
	} else {
		res.PriceForecast = parseForecast(forecast, &errs)
	}

	news := obj.Get("news")
	if !news.IsArray() {
		errs = append(errs, errors.New("news: required array missing"))
	} else {
		res.News = parseNewsItems(news)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAnalysis, errors.Join(errs...))
	}
	return res, nil
}

func parseForecast(obj gjson.Result, errs *[]error) model.PriceForecast {
	var pf model.PriceForecast
	for _, field := range []struct {
		path string
		dst  *float64
	}{
		{"targetPrice", &pf.TargetPrice},
		{"currentPrice", &pf.CurrentPrice},
	} {
		v, ok := number(obj.Get(field.path))
		if !ok || v <= 0 {
			*errs = append(*errs, fmt.Errorf("priceForecast.%s: required positive number missing", field.path))
			continue
		}
		*field.dst = v
	}
	pf.Timeframe = requiredString(obj, "timeframe", errs)
	pf.Reasoning = requiredString(obj, "reasoning", errs)

	conf := strings.ToUpper(requiredString(obj, "confidence", errs))
	if c, ok := confidences[conf]; ok {
		pf.Confidence = c
	} else if conf != "" {
		*errs = append(*errs, fmt.Errorf("priceForecast.confidence: %q not one of LOW, MEDIUM, HIGH", conf))
	}
	return pf
}

func parseCategory(s string) model.NewsCategory {
	s = strings.TrimSpace(s)
	for _, c := range newsCategories {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return model.NewsGeneral
}

// parseNewsItems keeps only items carrying every required field.
func parseNewsItems(arr gjson.Result) []model.NewsItem {
	items := []model.NewsItem{}
	arr.ForEach(func(_, item gjson.Result) bool {
		var errs []error
		n := model.NewsItem{
			Title:  requiredString(item, "title", &errs),
			Source: requiredString(item, "source", &errs),
			URL:    requiredString(item, "url", &errs),
			Time:   requiredString(item, "time", &errs),
		}
		if len(errs) > 0 {
			return true
		}
		n.Category = parseCategory(item.Get("category").String())
		items = append(items, n)
		return true
	})
	return items
}

// ParseNews validates a news search payload (a JSON array of items).
func ParseNews(text string) ([]model.NewsItem, error) {
	raw := stripFences(text)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidAnalysis)
	}
	arr := gjson.Parse(raw)
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidAnalysis)
	}
	return parseNewsItems(arr), nil
}

// ParseMarketOverview validates a market overview payload. Rows missing any
// field are dropped.
func ParseMarketOverview(text string) ([]model.MarketIndex, error) {
	raw := stripFences(text)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidAnalysis)
	}
	arr := gjson.Parse(raw)
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidAnalysis)
	}

	out := []model.MarketIndex{}
	arr.ForEach(func(_, row gjson.Result) bool {
		name := strings.TrimSpace(row.Get("name").String())
		value, okV := number(row.Get("value"))
		change, okC := number(row.Get("change"))
		pct, okP := number(row.Get("changePercent"))
		if name == "" || !okV || !okC || !okP {
			return true
		}
		out = append(out, model.MarketIndex{Name: name, Value: value, Change: change, ChangePercent: pct})
		return true
	})
	return out, nil
}
