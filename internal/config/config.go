package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"TrendSentinel/internal/trendline"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // csv, rest, yahoo or mock; inferred when empty
		CSVPath  string `yaml:"csv_path"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
		Interval string `yaml:"interval"`
		Bars     int    `yaml:"bars"`
	} `yaml:"data_source"`
	Scan struct {
		Lookback    int      `yaml:"lookback"`
		LogPrices   *bool    `yaml:"log_prices"`
		Workers     int      `yaml:"workers"`
		Tolerance   *float64 `yaml:"tolerance"` // 0 means exact containment
		MinStep     float64  `yaml:"min_step"`
		InitialStep float64  `yaml:"initial_step"`
	} `yaml:"scan"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Tracker struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"tracker"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Output struct {
		CSVDir string `yaml:"csv_dir"`
	} `yaml:"output"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional and never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("load .env: %v", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BARS_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("BARS_CSV_PATH"); v != "" {
		cfg.DataSource.CSVPath = v
	}
	if v := os.Getenv("BARS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BARS_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("LOOKBACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Lookback = n
		} else {
			log.Warnf("ignoring LOOKBACK=%q: %v", v, err)
		}
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CSV_OUTPUT_DIR"); v != "" {
		cfg.Output.CSVDir = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func applyDefaults(cfg *Config) {
	def := trendline.DefaultParams()

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = inferProvider(cfg)
	}
	cfg.DataSource.Provider = strings.ToLower(cfg.DataSource.Provider)
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "BTCUSDT"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = "1h"
	}
	if cfg.DataSource.Bars == 0 {
		cfg.DataSource.Bars = 500
	}
	if cfg.Scan.Lookback == 0 {
		cfg.Scan.Lookback = 30
	}
	if cfg.Scan.LogPrices == nil {
		on := true
		cfg.Scan.LogPrices = &on
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 1
	}
	if cfg.Scan.Tolerance == nil {
		tol := def.Tolerance
		cfg.Scan.Tolerance = &tol
	}
	if cfg.Scan.MinStep == 0 {
		cfg.Scan.MinStep = def.MinStep
	}
	if cfg.Scan.InitialStep == 0 {
		cfg.Scan.InitialStep = def.InitialStep
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 5 * * * *"
	}
	if cfg.Tracker.StateFile == "" {
		cfg.Tracker.StateFile = "data/tracker_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/trend_sentinel.db"
	}
}

func inferProvider(cfg *Config) string {
	switch {
	case cfg.DataSource.CSVPath != "":
		return "csv"
	case cfg.DataSource.BaseURL != "":
		return "rest"
	default:
		return "yahoo"
	}
}

// UseLogPrices reports whether bars are log-transformed before fitting.
func (c *Config) UseLogPrices() bool {
	return c.Scan.LogPrices == nil || *c.Scan.LogPrices
}

func (c *Config) tolerance() float64 {
	if c.Scan.Tolerance == nil {
		return trendline.DefaultTolerance
	}
	return *c.Scan.Tolerance
}

// Params returns the optimizer parameters.
func (c *Config) Params() trendline.Params {
	return trendline.Params{
		Tolerance:   c.tolerance(),
		InitialStep: c.Scan.InitialStep,
		MinStep:     c.Scan.MinStep,
	}
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if c.Scan.Lookback < 2 {
		return fmt.Errorf("scan.lookback must be at least 2, got %d", c.Scan.Lookback)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if c.tolerance() < 0 {
		return fmt.Errorf("scan.tolerance must not be negative")
	}
	if c.Scan.MinStep <= 0 || c.Scan.InitialStep < c.Scan.MinStep {
		return fmt.Errorf("scan.initial_step must be >= scan.min_step > 0")
	}
	if c.DataSource.Bars < c.Scan.Lookback {
		return fmt.Errorf("data_source.bars (%d) must be >= scan.lookback (%d)", c.DataSource.Bars, c.Scan.Lookback)
	}
	switch c.DataSource.Provider {
	case "csv":
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv provider")
		}
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	case "yahoo", "mock":
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ValidateNotifier checks the Telegram settings the daemon needs.
func (c *Config) ValidateNotifier() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
