package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bot         BotConfig         `mapstructure:"bot"`
	AI          AIConfig          `mapstructure:"ai"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Dialogs     DialogsConfig     `mapstructure:"dialogs"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	I18n        I18nConfig        `mapstructure:"i18n"`
}

type BotConfig struct {
	Token         string `mapstructure:"token"`
	UpdateTimeout int    `mapstructure:"update_timeout"`
}

type AIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	// Type selects the backend: "sqlite", "mysql" or "redis".
	Type  string      `mapstructure:"type"`
	DSN   string      `mapstructure:"dsn"`
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DialogsConfig struct {
	// HistoryPairs is the number of user/assistant message pairs of
	// stored history included in each completion request.
	HistoryPairs int `mapstructure:"history_pairs"`
}

type CredentialsConfig struct {
	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`
	SiteURL     string `mapstructure:"site_url"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viper.BindEnv("bot.token", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("ai.api_key", "OPEN_ROUTER_API_KEY")
	viper.BindEnv("ai.base_url", "OPEN_ROUTER_BASE_URL")
	viper.BindEnv("storage.dsn", "DATABASE_URL")
	viper.BindEnv("storage.redis.addr", "REDIS_ADDR")
	viper.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("credentials.supabase_url", "SUPABASE_URL")
	viper.BindEnv("credentials.supabase_key", "SUPABASE_KEY")
	viper.BindEnv("credentials.site_url", "SITE_URL")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_HOST/REDIS_PORT pairs are what most hosting platforms inject
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisPort := os.Getenv("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		config.Storage.Redis.Addr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.UpdateTimeout == 0 {
		cfg.Bot.UpdateTimeout = 30
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "openai/gpt-4o-mini"
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 15000
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.Dialogs.HistoryPairs == 0 {
		cfg.Dialogs.HistoryPairs = 3
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "sqlite"
	}
	if cfg.Storage.Type == "sqlite" && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "gptbot.db"
	}
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = "ru"
	}
	if len(cfg.I18n.Languages) == 0 {
		cfg.I18n.Languages = []string{"ru", "en"}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token is required")
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required")
	}
	if cfg.Storage.Type == "redis" && cfg.Storage.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for redis storage")
	}
	if cfg.Storage.Type == "mysql" && cfg.Storage.DSN == "" {
		return fmt.Errorf("dsn is required for mysql storage")
	}
	return nil
}
