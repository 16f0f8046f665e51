package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL           string        `yaml:"base_url"`
		SearchURL         string        `yaml:"search_url"`
		Timeout           time.Duration `yaml:"timeout"`
		UserAgent         string        `yaml:"user_agent"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"provider"`
	Report struct {
		Benchmark    string   `yaml:"benchmark"`
		Indices      []string `yaml:"indices"`
		Leaders      []string `yaml:"leaders"`
		LookbackDays int      `yaml:"lookback_days"`
		RiskFreeRate *float64 `yaml:"risk_free_rate"`
		TopN         int      `yaml:"top_n"`
		Cron         string   `yaml:"cron"`
	} `yaml:"report"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
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

	// Environment variable overrides
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REPORT_CRON"); v != "" {
		cfg.Report.Cron = v
	}
	if v := os.Getenv("REPORT_LEADERS"); v != "" {
		cfg.Report.Leaders = splitList(v)
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse RISK_FREE_RATE: %w", err)
		}
		cfg.Report.RiskFreeRate = &rate
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Provider.RequestsPerSecond == 0 {
		cfg.Provider.RequestsPerSecond = 2
	}
	if cfg.Provider.Burst == 0 {
		cfg.Provider.Burst = 4
	}
	if cfg.Report.Benchmark == "" {
		cfg.Report.Benchmark = "MERVAL"
	}
	if len(cfg.Report.Indices) == 0 {
		cfg.Report.Indices = []string{cfg.Report.Benchmark}
	}
	if len(cfg.Report.Leaders) == 0 {
		cfg.Report.Leaders = []string{"GGAL", "YPFD", "PAMP", "TXAR", "BYMA", "BBAR", "ALUA"}
	}
	if cfg.Report.LookbackDays == 0 {
		cfg.Report.LookbackDays = 90
	}
	if cfg.Report.RiskFreeRate == nil {
		rate := 0.01
		cfg.Report.RiskFreeRate = &rate
	}
	if cfg.Report.TopN == 0 {
		cfg.Report.TopN = 3
	}
	if cfg.Report.Cron == "" {
		cfg.Report.Cron = "0 0 18 * * 1-5"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	return cfg, nil
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	if c.Report.LookbackDays <= 0 {
		return fmt.Errorf("report.lookback_days must be positive")
	}
	if c.Report.RiskFreeRate != nil && *c.Report.RiskFreeRate < 0 {
		return fmt.Errorf("report.risk_free_rate must not be negative")
	}
	if c.Report.TopN < 0 {
		return fmt.Errorf("report.top_n must not be negative")
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("provider.requests_per_second must not be negative")
	}
	if c.Report.Benchmark == "" {
		return fmt.Errorf("report.benchmark is required")
	}
	if !slices.Contains(c.Report.Indices, c.Report.Benchmark) {
		return fmt.Errorf("report.benchmark %q must be listed in report.indices", c.Report.Benchmark)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Lookback returns the report period as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Report.LookbackDays) * 24 * time.Hour
}

// RiskFree returns the configured risk-free rate.
func (c *Config) RiskFree() float64 {
	if c.Report.RiskFreeRate == nil {
		return 0
	}
	return *c.Report.RiskFreeRate
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
