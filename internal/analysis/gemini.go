// Package analysis talks to the Gemini generative-AI API and turns its
// loosely typed JSON replies into validated analysis results.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockLens/internal/cache"
	"StockLens/internal/metrics"
	"StockLens/internal/model"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("gemini api key not configured")

// Config configures the Gemini client.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Grounding bool // enable the google_search tool
	Timeout   time.Duration
	ProxyURL  string
}

// Client is a Gemini generateContent client.
type Client struct {
	cfg     Config
	httpc   *http.Client
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewClient creates a Gemini client. A nil cache disables caching.
func NewClient(cfg Config, c cache.Cache, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if c == nil {
		c = cache.NoopCache{}
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout, Transport: transport},
		cache:   c,
		metrics: m,
		logger:  logger.With().Str("component", "gemini").Logger(),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []map[string]any `json:"tools,omitempty"`
	GenerationConfig map[string]any   `json:"generationConfig,omitempty"`
}

// generate sends one prompt and returns the reply text plus any web sources
// the model grounded its answer on.
func (c *Client) generate(ctx context.Context, prompt string, schema map[string]any) (string, []model.GroundingLink, error) {
	if c.cfg.APIKey == "" {
		return "", nil, ErrNotConfigured
	}

	var reqBody generateRequest
	if c.cfg.Grounding {
		// JSON mode cannot be combined with tools, so the schema rides in the
		// prompt and the Parse functions enforce it on the reply.
		reqBody.Contents = []content{{Parts: []part{{Text: withSchema(prompt, schema)}}}}
		reqBody.Tools = []map[string]any{{"google_search": map[string]any{}}}
	} else {
		reqBody.Contents = []content{{Parts: []part{{Text: prompt}}}}
		reqBody.GenerationConfig = map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
		}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("gemini read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = string(data)
		}
		return "", nil, fmt.Errorf("gemini: status %d: %s", resp.StatusCode, msg)
	}

	return parseEnvelope(data)
}

// parseEnvelope extracts the first candidate's text and grounding sources.
func parseEnvelope(data []byte) (string, []model.GroundingLink, error) {
	candidate := gjson.GetBytes(data, "candidates.0")
	if !candidate.Exists() {
		reason := gjson.GetBytes(data, "promptFeedback.blockReason").String()
		if reason != "" {
			return "", nil, fmt.Errorf("gemini: prompt blocked: %s", reason)
		}
		return "", nil, errors.New("gemini: no candidates returned")
	}

	var text strings.Builder
	for _, p := range candidate.Get("content.parts.#.text").Array() {
		text.WriteString(p.String())
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", nil, fmt.Errorf("gemini: empty reply (finishReason=%s)", candidate.Get("finishReason").String())
	}

	sources := []model.GroundingLink{}
	for _, chunk := range candidate.Get("groundingMetadata.groundingChunks").Array() {
		web := chunk.Get("web")
		uri := web.Get("uri").String()
		if uri == "" {
			continue
		}
		title := web.Get("title").String()
		if title == "" {
			title = defaultSourceTitle
		}
		sources = append(sources, model.GroundingLink{URI: uri, Title: title})
	}
	return text.String(), sources, nil
}

// Analyze returns the validated AI analysis for a ticker, served from cache
// when a fresh copy exists.
func (c *Client) Analyze(ctx context.Context, ticker string) (*model.AnalysisResult, error) {
	key := cache.AnalysisKey(ticker)
	var cached model.AnalysisResult
	if hit, err := c.cache.GetJSON(ctx, key, &cached); err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("analysis cache read failed")
	} else if hit {
		c.metrics.IncAICacheHit()
		return &cached, nil
	}

	text, sources, err := c.generate(ctx, analysisPrompt(ticker), analysisSchema)
	if err == nil {
		var res *model.AnalysisResult
		res, err = ParseAnalysis(text)
		if err == nil {
			res.Ticker = ticker
			res.Sources = sources
			c.metrics.ObserveAI("analyze", nil)
			if cerr := c.cache.SetJSON(ctx, key, res); cerr != nil {
				c.logger.Warn().Err(cerr).Str("ticker", ticker).Msg("analysis cache write failed")
			}
			return res, nil
		}
	}
	c.metrics.ObserveAI("analyze", err)
	return nil, fmt.Errorf("analyze %s: %w", ticker, err)
}

// MarketOverview returns the main Vietnamese index levels.
func (c *Client) MarketOverview(ctx context.Context) ([]model.MarketIndex, error) {
	var cached []model.MarketIndex
	if hit, err := c.cache.GetJSON(ctx, cache.MarketOverviewKey, &cached); err != nil {
		c.logger.Warn().Err(err).Msg("market overview cache read failed")
	} else if hit {
		c.metrics.IncAICacheHit()
		return cached, nil
	}

	text, _, err := c.generate(ctx, marketOverviewPrompt, marketOverviewSchema)
	if err != nil {
		c.metrics.ObserveAI("market", err)
		return nil, fmt.Errorf("market overview: %w", err)
	}
	rows, err := ParseMarketOverview(text)
	c.metrics.ObserveAI("market", err)
	if err != nil {
		return nil, fmt.Errorf("market overview: %w", err)
	}
	if len(rows) > 0 {
		if cerr := c.cache.SetJSON(ctx, cache.MarketOverviewKey, rows); cerr != nil {
			c.logger.Warn().Err(cerr).Msg("market overview cache write failed")
		}
	}
	return rows, nil
}

// SearchNews asks the AI for news about a ticker matching a free-text query.
func (c *Client) SearchNews(ctx context.Context, ticker, query string) ([]model.NewsItem, error) {
	text, _, err := c.generate(ctx, newsPrompt(ticker, query), newsSchema)
	if err != nil {
		c.metrics.ObserveAI("news", err)
		return nil, fmt.Errorf("search news %s: %w", ticker, err)
	}
	items, err := ParseNews(text)
	c.metrics.ObserveAI("news", err)
	if err != nil {
		return nil, fmt.Errorf("search news %s: %w", ticker, err)
	}
	return items, nil
}
