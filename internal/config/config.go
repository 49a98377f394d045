// Package config loads scribe settings from a YAML file, a .env file and
// SCRIBE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/persistence/middleware"
)

// DefaultFile is read when Load is called without a path and the file exists.
const DefaultFile = "scribe.yaml"

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Model     ModelConfig     `yaml:"model"`
	Session   SessionConfig   `yaml:"session"`
	Chat      ChatConfig      `yaml:"chat"`
	Retry     RetryConfig     `yaml:"retry"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// WorkspaceConfig points at the Notion workspace.
type WorkspaceConfig struct {
	Token         string  `yaml:"token"`
	BaseURL       string  `yaml:"base_url"`
	APIVersion    string  `yaml:"api_version"`
	RootPageID    string  `yaml:"root_page_id"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// ModelConfig selects the language model behind the first parser tier.
type ModelConfig struct {
	Provider string        `yaml:"provider"` // openai, gemini or none
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Store   string        `yaml:"store"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
	LockTTL time.Duration `yaml:"lock_ttl"`
	Redis   RedisConfig   `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, stored sessions are sealed.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// Redact masks e-mail addresses and long numbers in stored instructions.
	Redact bool `yaml:"redact"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ChatConfig holds the defaults for new conversations and the parser.
type ChatConfig struct {
	RequireConfirm        bool    `yaml:"require_confirm"`
	DefaultTarget         string  `yaml:"default_target"`
	ServiceName           string  `yaml:"service_name"`
	Offline               bool    `yaml:"offline"`
	SectionFallbackAppend bool    `yaml:"section_fallback_append"`
	MatchThreshold        float64 `yaml:"match_threshold"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{RatePerSecond: 3},
		Model:     ModelConfig{Timeout: 30 * time.Second},
		Session: SessionConfig{
			Store:   StoreMemory,
			Dir:     ".scribe/sessions",
			Prefix:  "scribe:session:",
			LockTTL: 30 * time.Second,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Chat: ChatConfig{
			RequireConfirm: true,
			DefaultTarget:  domain.DefaultTarget,
			ServiceName:    "notion",
			MatchThreshold: 0.5,
		},
		Retry:  RetryConfig{MaxAttempts: 3, Backoff: time.Second, CallTimeout: 15 * time.Second},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: logging.FormatText},
	}
}

// Load builds the configuration. An explicit path must exist; an empty path
// reads DefaultFile only if present. A .env file in the working directory is
// loaded into the environment first, without overriding variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SCRIBE_* variables. Provider-specific keys
// (NOTION_TOKEN, OPENAI_API_KEY, GEMINI_API_KEY) fill in missing secrets.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SCRIBE_NOTION_TOKEN", &c.Workspace.Token)
	str("SCRIBE_NOTION_BASE_URL", &c.Workspace.BaseURL)
	str("SCRIBE_NOTION_ROOT_PAGE", &c.Workspace.RootPageID)
	float("SCRIBE_NOTION_RATE", &c.Workspace.RatePerSecond)

	str("SCRIBE_MODEL_PROVIDER", &c.Model.Provider)
	str("SCRIBE_MODEL_API_KEY", &c.Model.APIKey)
	str("SCRIBE_MODEL", &c.Model.Model)
	str("SCRIBE_MODEL_BASE_URL", &c.Model.BaseURL)
	duration("SCRIBE_MODEL_TIMEOUT", &c.Model.Timeout)

	str("SCRIBE_SESSION_STORE", &c.Session.Store)
	str("SCRIBE_SESSION_DIR", &c.Session.Dir)
	duration("SCRIBE_SESSION_TTL", &c.Session.TTL)
	str("SCRIBE_SESSION_KEY", &c.Session.EncryptionKey)
	boolean("SCRIBE_SESSION_REDACT", &c.Session.Redact)
	str("SCRIBE_REDIS_ADDR", &c.Session.Redis.Addr)
	str("SCRIBE_REDIS_PASSWORD", &c.Session.Redis.Password)
	integer("SCRIBE_REDIS_DB", &c.Session.Redis.DB)

	boolean("SCRIBE_REQUIRE_CONFIRM", &c.Chat.RequireConfirm)
	str("SCRIBE_DEFAULT_TARGET", &c.Chat.DefaultTarget)
	str("SCRIBE_SERVICE_NAME", &c.Chat.ServiceName)
	boolean("SCRIBE_OFFLINE", &c.Chat.Offline)
	boolean("SCRIBE_SECTION_FALLBACK_APPEND", &c.Chat.SectionFallbackAppend)
	float("SCRIBE_MATCH_THRESHOLD", &c.Chat.MatchThreshold)

	integer("SCRIBE_RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts)
	duration("SCRIBE_RETRY_BACKOFF", &c.Retry.Backoff)
	duration("SCRIBE_CALL_TIMEOUT", &c.Retry.CallTimeout)

	str("SCRIBE_ADDR", &c.Server.Addr)
	str("SCRIBE_METRICS_ADDR", &c.Server.MetricsAddr)
	str("SCRIBE_LOG_LEVEL", &c.Log.Level)
	str("SCRIBE_LOG_FORMAT", &c.Log.Format)

	if c.Workspace.Token == "" {
		str("NOTION_TOKEN", &c.Workspace.Token)
	}
	if c.Model.APIKey == "" {
		switch strings.ToLower(c.Model.Provider) {
		case "openai":
			str("OPENAI_API_KEY", &c.Model.APIKey)
		case "gemini":
			str("GEMINI_API_KEY", &c.Model.APIKey)
		}
	}
	return errors.Join(errs...)
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Session.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("session.store: unknown store %q (want memory, file or redis)", c.Session.Store))
	}
	if c.Session.Store == StoreRedis && c.Session.Redis.Addr == "" {
		errs = append(errs, errors.New("session.redis.addr: required for the redis store"))
	}
	if c.Session.EncryptionKey != "" {
		if _, err := middleware.DecodeKey(c.Session.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("session.encryption_key: %w", err))
		}
	}
	for i, k := range c.Session.FallbackKeys {
		if _, err := middleware.DecodeKey(k); err != nil {
			errs = append(errs, fmt.Errorf("session.fallback_keys[%d]: %w", i, err))
		}
	}
	switch strings.ToLower(c.Model.Provider) {
	case "", "none", "off", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("model.provider: unknown provider %q", c.Model.Provider))
	}
	if c.Chat.MatchThreshold <= 0 || c.Chat.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("chat.match_threshold: %v is outside (0, 1]", c.Chat.MatchThreshold))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts: must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.Backoff < 0 || c.Retry.CallTimeout < 0 || c.Model.Timeout < 0 || c.Session.TTL < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.Workspace.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("workspace.rate_per_second: must not be negative, got %v", c.Workspace.RatePerSecond))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
