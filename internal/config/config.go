package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Tenders TendersConfig `mapstructure:"tenders"`
	Log     LogConfig     `mapstructure:"log"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       string        `mapstructure:"body_limit"`
}

type DBConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// StorageConfig points at the S3-compatible bucket holding document files.
type StorageConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	Bucket     string        `mapstructure:"bucket"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// AuthConfig describes how session tokens of the managed auth backend are verified.
// JWKSURL wins over JWTSecret when both are set.
type AuthConfig struct {
	JWKSURL    string `mapstructure:"jwks_url"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	CookieName string `mapstructure:"cookie_name"`
}

type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
	TenantLimit    int           `mapstructure:"tenant_limit"`
	TenantWindow   time.Duration `mapstructure:"tenant_window"`
}

type TendersConfig struct {
	StaleAfterDays int `mapstructure:"stale_after_days"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type JobsConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	StaleScanInterval    time.Duration `mapstructure:"stale_scan_interval"`
	DashboardWarmupEvery time.Duration `mapstructure:"dashboard_warmup_every"`
}

// Load reads configuration from defaults, an optional config file and
// BIZDESK_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BIZDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.body_limit", "20M")

	v.SetDefault("db.url", "")
	v.SetDefault("db.max_conns", 20)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "5m")

	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "bizdesk-documents")
	v.SetDefault("storage.presign_ttl", "15m")

	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.cookie_name", "sb-access-token")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.requests_per_sec", 2.0)
	v.SetDefault("llm.burst", 4)
	v.SetDefault("llm.timeout", "90s")
	v.SetDefault("llm.tenant_limit", 30)
	v.SetDefault("llm.tenant_window", "1m")

	v.SetDefault("tenders.stale_after_days", 7)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.stale_scan_interval", "1h")
	v.SetDefault("jobs.dashboard_warmup_every", "15m")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.DB.URL == "" {
		return errors.New("config: db.url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Auth.JWKSURL == "" && c.Auth.JWTSecret == "" {
		return errors.New("config: one of auth.jwks_url or auth.jwt_secret is required")
	}
	if c.Auth.JWKSURL == "" && len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Tenders.StaleAfterDays <= 0 {
		return errors.New("config: tenders.stale_after_days must be positive")
	}
	return nil
}

// AssistantEnabled reports whether an LLM key is configured.
func (c *Config) AssistantEnabled() bool {
	return c.LLM.APIKey != ""
}
