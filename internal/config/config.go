package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

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
		BaseURL     string        `yaml:"base_url"`
		Region      string        `yaml:"region"`
		RegionParam string        `yaml:"region_param"`
		Timezone    string        `yaml:"timezone"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Schedule struct {
		DailyCron    string `yaml:"daily_cron"`
		TomorrowCron string `yaml:"tomorrow_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Report struct {
		PreviewCount int `yaml:"preview_count"`
		Parallelism  int `yaml:"parallelism"`
	} `yaml:"report"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ENERGY_CHARTS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("PRICE_REGION"); v != "" {
		cfg.DataSource.Region = v
	}
	if v := os.Getenv("PRICE_TIMEZONE"); v != "" {
		cfg.DataSource.Timezone = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_DB: %w", err)
		}
		cfg.Cache.RedisDB = db
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://api.energy-charts.info"
	}
	if cfg.DataSource.Region == "" {
		cfg.DataSource.Region = "de"
	}
	if cfg.DataSource.RegionParam == "" {
		cfg.DataSource.RegionParam = "country"
	}
	if cfg.DataSource.Timezone == "" {
		cfg.DataSource.Timezone = "Europe/Berlin"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 7 * * *"
	}
	if cfg.Schedule.TomorrowCron == "" {
		cfg.Schedule.TomorrowCron = "0 30 14 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/spot_sentinel.db"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 15 * time.Minute
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Report.PreviewCount == 0 {
		cfg.Report.PreviewCount = 5
	}
	if cfg.Report.Parallelism == 0 {
		cfg.Report.Parallelism = 4
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataSource.Region == "" {
		return fmt.Errorf("data_source.region is required")
	}
	if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
		return fmt.Errorf("data_source.timezone: %w", err)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule.daily_cron: %w", err)
	}
	if _, err := parser.Parse(c.Schedule.TomorrowCron); err != nil {
		return fmt.Errorf("schedule.tomorrow_cron: %w", err)
	}
	if c.Report.PreviewCount < 0 {
		return fmt.Errorf("report.preview_count must not be negative")
	}
	if c.Report.Parallelism < 1 {
		return fmt.Errorf("report.parallelism must be at least 1")
	}
	return nil
}

// TelegramEnabled reports whether Telegram credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.DataSource.Timezone, err)
	}
	return loc, nil
}
