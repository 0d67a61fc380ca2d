// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token     string `yaml:"token"`
	AdminID   int64  `yaml:"admin_id"`
	WebAppURL string `yaml:"webapp_url"`
	Workers   int    `yaml:"workers"`      // max handlers running at once
	PollTime  int    `yaml:"poll_timeout"` // getUpdates long-poll seconds
	Language  string `yaml:"language"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite|postgres
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables cache and rate limiting
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GeocoderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Language  string        `yaml:"language"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Workers   int           `yaml:"workers"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type RegistrationConfig struct {
	LocationTimeout time.Duration `yaml:"location_timeout"`
}

type BroadcastConfig struct {
	RatePerSecond int `yaml:"rate_per_second"` // 0 disables throttling
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type HTTPConfig struct {
	Port int `yaml:"port"` // 0 disables the ops server
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
}

type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Geocoder     GeocoderConfig     `yaml:"geocoder"`
	Registration RegistrationConfig `yaml:"registration"`
	Broadcast    BroadcastConfig    `yaml:"broadcast"`
	Export       ExportConfig       `yaml:"export"`
	HTTP         HTTPConfig         `yaml:"http"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LoadConfig parses -config and -dev flags and loads the configuration.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

// Load reads the YAML file at path (a missing file is not an error), then a
// .env file from the working directory, then applies environment overrides,
// defaults and validation.
func Load(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("parse ADMIN_ID: %w", err)
		}
		cfg.Bot.AdminID = id
	}
	if v := os.Getenv("WEBAPP_URL"); v != "" {
		cfg.Bot.WebAppURL = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.PollTime <= 0 {
		cfg.Bot.PollTime = 30
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.URL == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.URL = "users.db"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL, time.Hour)
	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Geocoder.Language == "" {
		cfg.Geocoder.Language = "ru"
	}
	if cfg.Geocoder.UserAgent == "" {
		cfg.Geocoder.UserAgent = "telegram-bot-exporter/1.0"
	}
	cfg.Geocoder.Timeout = normalizeTTL(cfg.Geocoder.Timeout, 5*time.Second)
	if cfg.Geocoder.Workers <= 0 {
		cfg.Geocoder.Workers = 5
	}
	cfg.Geocoder.CacheTTL = normalizeTTL(cfg.Geocoder.CacheTTL, 24*time.Hour)
	cfg.Registration.LocationTimeout = normalizeTTL(cfg.Registration.LocationTimeout, 15*time.Second)
	if cfg.Broadcast.RatePerSecond < 0 {
		cfg.Broadcast.RatePerSecond = 0
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = os.TempDir()
	}
	if cfg.RateLimit.PerMinute <= 0 {
		cfg.RateLimit.PerMinute = 20
	}
}

// Validate checks the settings the bot cannot start without.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Bot.AdminID == 0 {
		return errors.New("bot.admin_id is required")
	}
	if c.Bot.WebAppURL == "" {
		return errors.New("bot.webapp_url is required")
	}
	u, err := url.Parse(c.Bot.WebAppURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("bot.webapp_url must be an absolute URL, got %q", c.Bot.WebAppURL)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	return nil
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
