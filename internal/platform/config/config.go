package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// DefaultBaseURL is where the backend listens in local development.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// Config is the full client configuration.
type Config struct {
	API     API         `yaml:"api"`
	Session Session     `yaml:"session"`
	Redis   RedisConfig `yaml:"redis"`
	Log     Log         `yaml:"log"`
	Google  Google      `yaml:"google"`
	// MetricsTextfile, when set, receives a Prometheus text dump on exit.
	MetricsTextfile string `yaml:"metrics_textfile"`
}

type API struct {
	BaseURL string `yaml:"base_url"`
}

// Session selects where the signed-in identity is kept between runs.
type Session struct {
	Store string `yaml:"store"`
	// File defaults to the user config dir when empty.
	File string `yaml:"file"`
	// Key is a hex-encoded 32-byte key sealing the session file.
	Key string `yaml:"key"`
}

// EncryptionKey decodes Key. It returns nil when no key is configured.
func (s Session) EncryptionKey() ([]byte, error) {
	if s.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.Key)
	if err != nil {
		return nil, fmt.Errorf("session key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("session key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// RedisConfig configures the Redis session store.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	Prefix       string        `yaml:"prefix"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Google holds the OAuth client used for federated sign-in. Both fields
// empty disables it.
type Google struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		API:     API{BaseURL: DefaultBaseURL},
		Session: Session{Store: StoreFile},
		Redis: RedisConfig{
			Prefix:       "foodrescue:",
			PoolSize:     10,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// FromEnv builds the config from defaults, the YAML file named by
// FOODRESCUE_CONFIG if any, and environment variables, in that order.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load is FromEnv with an injectable lookup.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("FOODRESCUE_CONFIG"); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path from user-provided environment
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	overlay(getenv, "FOODRESCUE_API_BASE_URL", &cfg.API.BaseURL)
	overlay(getenv, "FOODRESCUE_SESSION_STORE", &cfg.Session.Store)
	overlay(getenv, "FOODRESCUE_SESSION_FILE", &cfg.Session.File)
	overlay(getenv, "FOODRESCUE_SESSION_KEY", &cfg.Session.Key)
	overlay(getenv, "REDIS_URL", &cfg.Redis.URL)
	overlay(getenv, "FOODRESCUE_REDIS_PREFIX", &cfg.Redis.Prefix)
	overlay(getenv, "FOODRESCUE_LOG_LEVEL", &cfg.Log.Level)
	overlay(getenv, "FOODRESCUE_LOG_FORMAT", &cfg.Log.Format)
	overlay(getenv, "FOODRESCUE_METRICS_TEXTFILE", &cfg.MetricsTextfile)
	overlay(getenv, "GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	overlay(getenv, "GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Session.Store = strings.ToLower(cfg.Session.Store)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}
	switch c.Session.Store {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown session store %q (valid: file, redis, memory)", c.Session.Store)
	}
	if _, err := c.Session.EncryptionKey(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json", "":
	default:
		return fmt.Errorf("unknown log format %q (valid: text, json)", c.Log.Format)
	}
	return nil
}

// GoogleEnabled reports whether federated sign-in has credentials.
func (c Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

func overlay(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}
