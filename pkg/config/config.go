package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	OpenAI    OpenAIConfig
	Ranking   RankingConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host               string
	Port               int
	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
	TrustedProxies     []string
}

// StoreConfig selects the therapist store
type StoreConfig struct {
	Driver   string
	SeedFile string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerMinute int
}

// RankingConfig holds relevance ranking configuration
type RankingConfig struct {
	Timeout             time.Duration
	BreakerMaxFailures  uint32
	BreakerOpenDuration time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 300)
	v.SetDefault("RATE_LIMIT_BURST", 60)

	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("STORE_SEED_FILE", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "therapist_directory")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", true)

	v.SetDefault("TYPESENSE_URL", "http://localhost:8108")
	v.SetDefault("TYPESENSE_API_KEY", "xyz")
	v.SetDefault("TYPESENSE_ENABLED", true)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_REQUESTS_PER_MINUTE", 60)

	v.SetDefault("RANKING_TIMEOUT", "15s")
	v.SetDefault("RANKING_BREAKER_MAX_FAILURES", 5)
	v.SetDefault("RANKING_BREAKER_OPEN_DURATION", "30s")

	v.SetDefault("OTEL_SERVICE_NAME", "therapist-directory")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)
}

// Load loads configuration from environment variables and, when CONFIG_FILE
// is set, from that file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Host:               v.GetString("SERVER_HOST"),
			Port:               v.GetInt("SERVER_PORT"),
			AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
			RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
			TrustedProxies:     splitList(v.GetString("TRUSTED_PROXIES")),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			SeedFile: v.GetString("STORE_SEED_FILE"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Enabled:  v.GetBool("REDIS_ENABLED"),
		},
		Typesense: TypesenseConfig{
			URL:     v.GetString("TYPESENSE_URL"),
			APIKey:  v.GetString("TYPESENSE_API_KEY"),
			Enabled: v.GetBool("TYPESENSE_ENABLED"),
		},
		OpenAI: OpenAIConfig{
			APIKey:            v.GetString("OPENAI_API_KEY"),
			Model:             v.GetString("OPENAI_MODEL"),
			BaseURL:           v.GetString("OPENAI_BASE_URL"),
			RequestsPerMinute: v.GetInt("OPENAI_REQUESTS_PER_MINUTE"),
		},
		Ranking: RankingConfig{
			Timeout:             v.GetDuration("RANKING_TIMEOUT"),
			BreakerMaxFailures:  v.GetUint32("RANKING_BREAKER_MAX_FAILURES"),
			BreakerOpenDuration: v.GetDuration("RANKING_BREAKER_OPEN_DURATION"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Ranking.Timeout <= 0 {
		return errors.New("RANKING_TIMEOUT must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// RankingEnabled reports whether a text generation backend is configured.
func (c *Config) RankingEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
