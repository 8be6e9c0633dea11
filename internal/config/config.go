package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/technosupport/ts-console/internal/ratelimit"
)

// Config is the root of config/default.yaml.
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		BaseURL         string        `yaml:"base_url"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`

	Redis struct {
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		SessionTTL time.Duration `yaml:"session_ttl"`
	} `yaml:"redis"`

	NATS struct {
		URL              string `yaml:"url"`
		BroadcastSubject string `yaml:"broadcast_subject"`
		PublishRetryMax  int    `yaml:"publish_retry_max"`
	} `yaml:"nats"`

	Database struct {
		Driver         string `yaml:"driver"` // "postgres" or "sqlite"
		DSN            string `yaml:"dsn"`
		MigrateOnStart bool   `yaml:"migrate_on_start"`
	} `yaml:"database"`

	Auth struct {
		SigningKey string `yaml:"signing_key"`
	} `yaml:"auth"`

	RateLimit struct {
		Chat ratelimit.LimitConfig `yaml:"chat"`
	} `yaml:"rate_limit"`

	Console struct {
		CacheSize          int           `yaml:"cache_size"`
		PlaybackStep       int           `yaml:"playback_step"`
		TrackingDuration   time.Duration `yaml:"tracking_duration"`
		TrackingTick       time.Duration `yaml:"tracking_tick"`
		TrackingOverlayTTL time.Duration `yaml:"tracking_overlay_ttl"`
	} `yaml:"console"`

	Broadcast struct {
		SpoolDir       string        `yaml:"spool_dir"`
		SpoolMaxBytes  int64         `yaml:"spool_max_bytes"`
		ReplayInterval time.Duration `yaml:"replay_interval"`
	} `yaml:"broadcast"`

	Styles struct {
		Path string `yaml:"path"`
	} `yaml:"styles"`
}

// Load reads the yaml file at path (missing file is not an error), then a
// .env file if present, then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("CONSOLE_PORT", c.Server.Port)
	c.Server.BaseURL = getEnv("CONSOLE_BASE_URL", c.Server.BaseURL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Console = getEnvBool("LOG_CONSOLE", c.Log.Console)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Auth.SigningKey = getEnv("JWT_SIGNING_KEY", c.Auth.SigningKey)
	c.Styles.Path = getEnv("STYLES_PATH", c.Styles.Path)
	c.Broadcast.SpoolDir = getEnv("BROADCAST_SPOOL_DIR", c.Broadcast.SpoolDir)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = 12 * time.Hour
	}
	if c.NATS.BroadcastSubject == "" {
		c.NATS.BroadcastSubject = "console.broadcasts"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "console.db"
	}
	if c.Auth.SigningKey == "" {
		c.Auth.SigningKey = "dev-secret-do-not-use-in-prod"
	}
	if c.RateLimit.Chat.Rate == 0 {
		c.RateLimit.Chat.Rate = 30
	}
	if c.RateLimit.Chat.Window == 0 {
		c.RateLimit.Chat.Window = time.Minute
	}
	if c.Console.CacheSize == 0 {
		c.Console.CacheSize = 256
	}
	if c.Console.PlaybackStep == 0 {
		c.Console.PlaybackStep = 10
	}
	if c.Console.TrackingDuration == 0 {
		c.Console.TrackingDuration = 2 * time.Second
	}
	if c.Console.TrackingTick == 0 {
		c.Console.TrackingTick = 50 * time.Millisecond
	}
	if c.Console.TrackingOverlayTTL == 0 {
		c.Console.TrackingOverlayTTL = 4 * time.Second
	}
	if c.Broadcast.SpoolDir == "" {
		c.Broadcast.SpoolDir = "spool"
	}
	if c.Broadcast.SpoolMaxBytes == 0 {
		c.Broadcast.SpoolMaxBytes = 64 << 20
	}
	if c.Broadcast.ReplayInterval == 0 {
		c.Broadcast.ReplayInterval = 30 * time.Second
	}
	if c.Styles.Path == "" {
		c.Styles.Path = "styles/generated.ts"
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
