// Package config loads the YAML configuration and applies environment
// overrides and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"StockLens/internal/chart"
	"StockLens/internal/collector"
	"StockLens/internal/strategy"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL     string `yaml:"base_url"`
		RelayPrefix string `yaml:"relay_prefix"`
		Range       string `yaml:"range"`
		Mock        bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Gemini struct {
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model"`
		BaseURL   string        `yaml:"base_url"`
		Grounding bool          `yaml:"grounding"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"gemini"`
	Indicators struct {
		SMAPeriod     int     `yaml:"sma_period"`
		EMAPeriod     int     `yaml:"ema_period"`
		RSIPeriod     int     `yaml:"rsi_period"`
		Oversold      float64 `yaml:"oversold"`
		Overbought    float64 `yaml:"overbought"`
		ZonePolicy    string  `yaml:"zone_policy"`
		RecentSignals int     `yaml:"recent_signals"`
		ShowSMA       *bool   `yaml:"show_sma"`
		ShowEMA       *bool   `yaml:"show_ema"`
		ShowRSI       *bool   `yaml:"show_rsi"`
		ShowSignals   *bool   `yaml:"show_signals"`
	} `yaml:"indicators"`
	Schedule struct {
		ScanCron    string `yaml:"scan_cron"`
		RefreshCron string `yaml:"refresh_cron"`
		AlertWindow int    `yaml:"alert_window"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Portfolio struct {
		StateFile string   `yaml:"state_file"`
		Tickers   []string `yaml:"tickers"`
	} `yaml:"portfolio"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Gemini.Grounding = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"YAHOO_BASE_URL":     &c.DataSource.BaseURL,
		"YAHOO_RELAY_PREFIX": &c.DataSource.RelayPrefix,
		"GEMINI_API_KEY":     &c.Gemini.APIKey,
		"GEMINI_MODEL":       &c.Gemini.Model,
		"REDIS_ADDR":         &c.Redis.Addr,
		"REDIS_PASSWORD":     &c.Redis.Password,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"HTTP_ADDR":          &c.HTTP.Addr,
		"CRON_SCAN":          &c.Schedule.ScanCron,
		"LOG_LEVEL":          &c.Log.Level,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("ZONE_POLICY"); v != "" {
		c.Indicators.ZonePolicy = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = collector.DefaultYahooBaseURL
	}
	if c.DataSource.Range == "" {
		c.DataSource.Range = collector.DefaultRange
	}
	if c.Indicators.SMAPeriod == 0 {
		c.Indicators.SMAPeriod = chart.DefaultSMAPeriod
	}
	if c.Indicators.EMAPeriod == 0 {
		c.Indicators.EMAPeriod = chart.DefaultEMAPeriod
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = chart.DefaultRSIPeriod
	}
	if c.Indicators.Oversold == 0 {
		c.Indicators.Oversold = 30
	}
	if c.Indicators.Overbought == 0 {
		c.Indicators.Overbought = 70
	}
	if c.Indicators.RecentSignals == 0 {
		c.Indicators.RecentSignals = chart.DefaultRecentSignals
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 15 * * 1-5"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */15 9-15 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stocklens.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 6 * time.Hour
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Portfolio.StateFile == "" {
		c.Portfolio.StateFile = "data/watchlist.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ChartOptions builds the pipeline options from the indicators section.
// Call Validate first; an invalid zone policy falls back to sticky.
func (c *Config) ChartOptions() chart.Options {
	opts := chart.DefaultOptions()
	ind := c.Indicators
	opts.SMAPeriod = ind.SMAPeriod
	opts.EMAPeriod = ind.EMAPeriod
	opts.RSIPeriod = ind.RSIPeriod
	opts.RecentSignals = ind.RecentSignals
	opts.Rules.Oversold = ind.Oversold
	opts.Rules.Overbought = ind.Overbought
	if p, err := strategy.ParseZonePolicy(ind.ZonePolicy); err == nil {
		opts.Rules.Policy = p
	}
	for dst, src := range map[*bool]*bool{
		&opts.ShowSMA:     ind.ShowSMA,
		&opts.ShowEMA:     ind.ShowEMA,
		&opts.ShowRSI:     ind.ShowRSI,
		&opts.ShowSignals: ind.ShowSignals,
	} {
		if src != nil {
			*dst = *src
		}
	}
	return opts
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	if _, err := collector.ValidateRange(c.DataSource.Range); err != nil {
		errs = append(errs, fmt.Errorf("data_source.range: %w", err))
	}
	ind := c.Indicators
	if ind.SMAPeriod < 1 || ind.EMAPeriod < 1 || ind.RSIPeriod < 1 {
		errs = append(errs, errors.New("indicators: periods must be positive"))
	}
	if ind.Oversold <= 0 || ind.Overbought >= 100 || ind.Oversold >= ind.Overbought {
		errs = append(errs, fmt.Errorf("indicators: need 0 < oversold (%v) < overbought (%v) < 100", ind.Oversold, ind.Overbought))
	}
	if _, err := strategy.ParseZonePolicy(ind.ZonePolicy); err != nil {
		errs = append(errs, fmt.Errorf("indicators.zone_policy: %w", err))
	}
	if _, err := cronParser.Parse(c.Schedule.ScanCron); err != nil {
		errs = append(errs, fmt.Errorf("schedule.scan_cron: %w", err))
	}
	if _, err := cronParser.Parse(c.Schedule.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("schedule.refresh_cron: %w", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
