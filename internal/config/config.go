package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"rewear-api/internal/pkg/jwtutil"
)

const (
	DriverMongo    = "mongo"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Storage   StorageConfig   `toml:"storage"`
	Auth      AuthConfig      `toml:"auth"`
	LLM       LLMConfig       `toml:"llm"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`

	// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For is honoured. Empty trusts none.
	TrustedProxies []string `toml:"trusted_proxies"`
}

type StorageConfig struct {
	Driver        string `toml:"driver"`
	URL           string `toml:"url"`
	DBName        string `toml:"db_name"`
	ConnectTries  int    `toml:"connect_tries"`
	RetryBackoffS int    `toml:"retry_backoff_seconds"`
}

type AuthConfig struct {
	JWTSecret        string `toml:"jwt_secret"`
	Algorithm        string `toml:"algorithm"`
	JWTExpireMinutes int    `toml:"jwt_expire_minutes"`
	BcryptCost       int    `toml:"bcrypt_cost"`
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SystemPrompt   string `toml:"system_prompt"`
}

// RedisConfig is optional; an empty Addr disables Redis and rate limits fall back to process memory.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	ItemTTLS int    `toml:"item_cache_ttl_seconds"`
}

// RabbitMQConfig is optional; an empty URL disables the auth event pipeline.
type RabbitMQConfig struct {
	URL            string `toml:"url"`
	AuthEventQueue string `toml:"auth_event_queue"`
}

type RateLimitConfig struct {
	AuthPerMinute int `toml:"auth_per_minute"`
	ChatPerMinute int `toml:"chat_per_minute"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	envPath := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load env file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Storage.URL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if strings.TrimSpace(c.Storage.DBName) == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if c.Auth.Algorithm == "" {
		missing = append(missing, "ALGORITHM")
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if !jwtutil.SupportedAlgorithm(c.Auth.Algorithm) {
		return fmt.Errorf("unsupported jwt algorithm %q", c.Auth.Algorithm)
	}
	switch c.Storage.Driver {
	case DriverMongo, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTExpireMinutes <= 0 {
		return errors.New("jwt expire minutes must be positive")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.JWTExpireMinutes) * time.Minute
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Storage.RetryBackoffS) * time.Second
}

func (c *Config) ItemCacheTTL() time.Duration {
	return time.Duration(c.Redis.ItemTTLS) * time.Second
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "rewear-api",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8000,
			GinMode: "debug",
		},
		Storage: StorageConfig{
			Driver:        DriverMongo,
			DBName:        "rewear_db",
			ConnectTries:  3,
			RetryBackoffS: 2,
		},
		Auth: AuthConfig{
			Algorithm:        "HS256",
			JWTExpireMinutes: 30,
			BcryptCost:       12,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
			SystemPrompt: "You are ReWear Bot, a helpful assistant for a community clothing exchange platform. " +
				"Provide information, styling tips, or answer questions related to sustainable fashion, " +
				"clothing swaps, and second-hand items.",
		},
		Redis: RedisConfig{
			ItemTTLS: 60,
		},
		RabbitMQ: RabbitMQConfig{
			AuthEventQueue: "rewear.auth.events",
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: 10,
			ChatPerMinute: 20,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.TrustedProxies = getEnvAsList("TRUSTED_PROXIES", cfg.App.TrustedProxies)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.URL = getEnv("DATABASE_URL", cfg.Storage.URL)
	cfg.Storage.DBName = getEnv("DB_NAME", cfg.Storage.DBName)
	cfg.Storage.ConnectTries = getEnvAsInt("DB_CONNECT_TRIES", cfg.Storage.ConnectTries)
	cfg.Storage.RetryBackoffS = getEnvAsInt("DB_RETRY_BACKOFF_SECONDS", cfg.Storage.RetryBackoffS)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET_KEY", cfg.Auth.JWTSecret)
	cfg.Auth.Algorithm = getEnv("ALGORITHM", cfg.Auth.Algorithm)
	cfg.Auth.JWTExpireMinutes = getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", cfg.Auth.JWTExpireMinutes)
	cfg.Auth.BcryptCost = getEnvAsInt("BCRYPT_COST", cfg.Auth.BcryptCost)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.ItemTTLS = getEnvAsInt("REDIS_ITEM_CACHE_TTL_SECONDS", cfg.Redis.ItemTTLS)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.AuthEventQueue = getEnv("RABBITMQ_AUTH_EVENT_QUEUE", cfg.RabbitMQ.AuthEventQueue)

	cfg.RateLimit.AuthPerMinute = getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", cfg.RateLimit.AuthPerMinute)
	cfg.RateLimit.ChatPerMinute = getEnvAsInt("RATE_LIMIT_CHAT_PER_MINUTE", cfg.RateLimit.ChatPerMinute)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
