// Package config loads the screener configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/resample"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider       string  `yaml:"provider" toml:"provider"`
		ProxyURL       string  `yaml:"proxy" toml:"proxy"`
		TimeoutSeconds int     `yaml:"timeout_seconds" toml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit" toml:"rate_limit"`
		Burst          int     `yaml:"burst" toml:"burst"`
		Resolution     string  `yaml:"resolution" toml:"resolution"`
	} `yaml:"data_source" toml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
		RecordRuns bool   `yaml:"record_runs" toml:"record_runs"`
	} `yaml:"database" toml:"database"`
	Cache struct {
		Backend    string `yaml:"backend" toml:"backend"`
		RedisAddr  string `yaml:"redis_addr" toml:"redis_addr"`
		RedisDB    int    `yaml:"redis_db" toml:"redis_db"`
		Prefix     string `yaml:"prefix" toml:"prefix"`
		TTLMinutes int    `yaml:"ttl_minutes" toml:"ttl_minutes"`
	} `yaml:"cache" toml:"cache"`
	Market struct {
		Timezone         string   `yaml:"timezone" toml:"timezone"`
		WeekAnchor       string   `yaml:"week_anchor" toml:"week_anchor"`
		BenchmarkSymbols []string `yaml:"benchmark_symbols" toml:"benchmark_symbols"`
		BenchmarkIndex   string   `yaml:"benchmark_index" toml:"benchmark_index"`
		ProxySample      int      `yaml:"proxy_sample" toml:"proxy_sample"`
		ProxyCandidates  int      `yaml:"proxy_candidates" toml:"proxy_candidates"`
		UniverseFile     string   `yaml:"universe_file" toml:"universe_file"`
	} `yaml:"market" toml:"market"`
	Screening struct {
		BatchSize          int    `yaml:"batch_size" toml:"batch_size"`
		Workers            int    `yaml:"workers" toml:"workers"`
		ReleaseBetween     *bool  `yaml:"release_between_batches" toml:"release_between_batches"`
		HistoryDays        int    `yaml:"history_days" toml:"history_days"`
		RankingHistoryDays int    `yaml:"ranking_history_days" toml:"ranking_history_days"`
		MinWeeklyBars      int    `yaml:"min_weekly_bars" toml:"min_weekly_bars"`
		MinDailyBars       int    `yaml:"min_daily_bars" toml:"min_daily_bars"`
		Index              string `yaml:"index" toml:"index"`
	} `yaml:"screening" toml:"screening"`
	Ranking   strategy.RankingParams `yaml:"ranking" toml:"ranking"`
	Weinstein struct {
		Preset     string                   `yaml:"preset" toml:"preset"`
		Required   []model.Condition        `yaml:"required" toml:"required"`
		Thresholds strategy.Thresholds      `yaml:"thresholds" toml:"thresholds"`
		Scoring    strategy.ScoringRules    `yaml:"scoring" toml:"scoring"`
		Indicators strategy.IndicatorParams `yaml:"indicators" toml:"indicators"`
		version    int
	} `yaml:"weinstein" toml:"weinstein"`
	Schedule struct {
		WeinsteinCron string `yaml:"weinstein_cron" toml:"weinstein_cron"`
		RankingCron   string `yaml:"ranking_cron" toml:"ranking_cron"`
	} `yaml:"schedule" toml:"schedule"`
	Server struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"server" toml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
		TopN     int    `yaml:"top_n" toml:"top_n"`
	} `yaml:"telegram" toml:"telegram"`
	Logging struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"`
	} `yaml:"logging" toml:"logging"`
}

type decodeFunc func([]byte, any) error

func decoderFor(path string) decodeFunc {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal
	}
	return yaml.Unmarshal
}

// Load reads config from a YAML or TOML file, then applies environment
// variable overrides and defaults. A missing file yields the defaults.
//
// The Weinstein section starts from the named preset; only the fields the
// file sets replace the preset's values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	decode := decoderFor(path)

	// first pass only selects the preset
	var head struct {
		Weinstein struct {
			Preset string `yaml:"preset" toml:"preset"`
		} `yaml:"weinstein" toml:"weinstein"`
	}
	if len(data) > 0 {
		if err := decode(data, &head); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	name := head.Weinstein.Preset
	if v := os.Getenv("SCREENER_PRESET"); v != "" {
		name = v
	}
	preset, err := strategy.LookupPreset(name)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.Weinstein.Preset = preset.Name
	cfg.Weinstein.version = preset.Version
	cfg.Weinstein.Required = preset.Required
	cfg.Weinstein.Thresholds = preset.Thresholds
	cfg.Weinstein.Scoring = preset.Scoring
	cfg.Weinstein.Indicators = strategy.DefaultIndicatorParams()
	cfg.Ranking = strategy.DefaultRankingParams()
	if len(data) > 0 {
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Weinstein.Preset = preset.Name

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SCREENER_DATA_SOURCE":    &c.DataSource.Provider,
		"HTTPS_PROXY":             &c.DataSource.ProxyURL,
		"SQLITE_PATH":             &c.Database.SQLitePath,
		"REDIS_ADDR":              &c.Cache.RedisAddr,
		"SCREENER_UNIVERSE":       &c.Market.UniverseFile,
		"SCREENER_TIMEZONE":       &c.Market.Timezone,
		"SCREENER_SERVER_ADDR":    &c.Server.Addr,
		"SCREENER_LOG_LEVEL":      &c.Logging.Level,
		"SCREENER_LOG_FORMAT":     &c.Logging.Format,
		"TELEGRAM_BOT_TOKEN":      &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":        &c.Telegram.ChatID,
		"SCREENER_WEINSTEIN_CRON": &c.Schedule.WeinsteinCron,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"SCREENER_BATCH_SIZE": &c.Screening.BatchSize,
		"SCREENER_WORKERS":    &c.Screening.Workers,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	if c.Cache.RedisAddr != "" && c.Cache.Backend == "" {
		c.Cache.Backend = "redis"
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.TimeoutSeconds == 0 {
		c.DataSource.TimeoutSeconds = 30
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 2
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 1
	}
	if c.DataSource.Resolution == "" {
		c.DataSource.Resolution = string(model.ResolutionDaily)
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/screener.db"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "screener:bars:"
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 360
	}
	if c.Market.Timezone == "" {
		c.Market.Timezone = "Asia/Kolkata"
	}
	if c.Market.WeekAnchor == "" {
		c.Market.WeekAnchor = "friday"
	}
	if len(c.Market.BenchmarkSymbols) == 0 {
		c.Market.BenchmarkSymbols = []string{"^NSEI", "NIFTY50", "NIFTY 50", "NSEI", "^NSEI.NS", "NIFTY50.NS"}
	}
	if c.Market.BenchmarkIndex == "" {
		c.Market.BenchmarkIndex = "nifty50"
	}
	if c.Market.ProxySample == 0 {
		c.Market.ProxySample = 10
	}
	if c.Market.ProxyCandidates == 0 {
		c.Market.ProxyCandidates = 20
	}
	if c.Market.UniverseFile == "" {
		c.Market.UniverseFile = "configs/universe.yaml"
	}
	if c.Screening.BatchSize == 0 {
		c.Screening.BatchSize = 50
	}
	if c.Screening.Workers == 0 {
		c.Screening.Workers = 4
	}
	if c.Screening.ReleaseBetween == nil {
		on := true
		c.Screening.ReleaseBetween = &on
	}
	if c.Screening.HistoryDays == 0 {
		c.Screening.HistoryDays = 3 * 365
	}
	if c.Screening.RankingHistoryDays == 0 {
		c.Screening.RankingHistoryDays = 500
	}
	if c.Screening.MinWeeklyBars == 0 {
		c.Screening.MinWeeklyBars = 52
	}
	if c.Screening.MinDailyBars == 0 {
		c.Screening.MinDailyBars = 30
	}
	if c.Schedule.WeinsteinCron == "" {
		c.Schedule.WeinsteinCron = "0 0 18 * * 5"
	}
	if c.Schedule.RankingCron == "" {
		c.Schedule.RankingCron = "0 30 16 * * 1-5"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Telegram.TopN == 0 {
		c.Telegram.TopN = 20
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Ranking.EMAKind = calculator.MAKind(strings.ToUpper(string(c.Ranking.EMAKind)))
	c.Ranking.Direction = calculator.Direction(strings.ToLower(string(c.Ranking.Direction)))
}

// Preset returns the configured Weinstein preset with overrides applied.
func (c *Config) Preset() strategy.Preset {
	return strategy.Preset{
		Name:       c.Weinstein.Preset,
		Version:    c.Weinstein.version,
		Required:   c.Weinstein.Required,
		Thresholds: c.Weinstein.Thresholds,
		Scoring:    c.Weinstein.Scoring,
	}
}

// Location resolves the market timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return nil, fmt.Errorf("market.timezone %q: %w", c.Market.Timezone, err)
	}
	return loc, nil
}

// CacheTTL is the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration { return time.Duration(c.Cache.TTLMinutes) * time.Minute }

// Screener builds the run configuration.
func (c *Config) Screener() (screener.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return screener.Config{}, err
	}
	anchor, err := resample.ParseWeekday(c.Market.WeekAnchor)
	if err != nil {
		return screener.Config{}, fmt.Errorf("market.week_anchor: %w", err)
	}
	sc := screener.DefaultConfig()
	sc.BatchSize = c.Screening.BatchSize
	sc.Workers = c.Screening.Workers
	sc.ReleaseBetweenBatches = *c.Screening.ReleaseBetween
	sc.HistoryDays = c.Screening.HistoryDays
	sc.RankingHistoryDays = c.Screening.RankingHistoryDays
	sc.SourceResolution = model.Resolution(c.DataSource.Resolution)
	sc.Location = loc
	sc.WeekAnchor = anchor
	sc.BenchmarkSymbols = c.Market.BenchmarkSymbols
	sc.BenchmarkIndex = c.Market.BenchmarkIndex
	sc.ProxySample = c.Market.ProxySample
	sc.ProxyCandidates = c.Market.ProxyCandidates
	sc.Preset = c.Preset()
	sc.Indicators = c.Weinstein.Indicators
	sc.Ranking = c.Ranking
	sc.MinWeeklyBars = c.Screening.MinWeeklyBars
	sc.MinDailyBars = c.Screening.MinDailyBars
	return sc, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "sqlite", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, sqlite, mock", c.DataSource.Provider)
	}
	switch model.Resolution(c.DataSource.Resolution) {
	case model.ResolutionDaily, model.ResolutionIntraday:
	default:
		return fmt.Errorf("data_source.resolution %q must be 1d or 1h", c.DataSource.Resolution)
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis, none", c.Cache.Backend)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required when telegram.bot_token is set")
	}
	sc, err := c.Screener()
	if err != nil {
		return err
	}
	return sc.Validate()
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
