package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	ModelProvider     string `mapstructure:"model_provider"`
	AnthropicAPIKey   string `mapstructure:"anthropic_api_key"`
	DefaultModel      string `mapstructure:"default_model"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	OpenAIModel       string `mapstructure:"openai_model"`
	MaxTokensTeaching int64  `mapstructure:"max_tokens_teaching"`
	MaxTokensQuiz     int64  `mapstructure:"max_tokens_quiz"`
	MaxTokensInsights int64  `mapstructure:"max_tokens_insights"`

	DBDriver    string `mapstructure:"db_driver"`
	DatabaseURL string `mapstructure:"database_url"`

	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	LiveTTL            time.Duration `mapstructure:"live_ttl"`
	CORSOrigins        []string      `mapstructure:"cors_origins"`

	PineconeAPIKey    string `mapstructure:"pinecone_api_key"`
	PineconeIndexName string `mapstructure:"pinecone_index"`
}

// RelatedSessionsEnabled reports whether the vector index for related sessions can be used.
func (c *Config) RelatedSessionsEnabled() bool {
	return c.PineconeAPIKey != "" && c.OpenAIAPIKey != ""
}

// Load reads .env (if present) into the environment and builds the config from it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("env", "local")
	v.SetDefault("port", "5001")
	v.SetDefault("log_level", "info")
	v.SetDefault("model_provider", ProviderAnthropic)
	v.SetDefault("default_model", "claude-sonnet-4-20250514")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("max_tokens_teaching", 4096)
	v.SetDefault("max_tokens_quiz", 2048)
	v.SetDefault("max_tokens_insights", 1024)
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("database_url", "")
	v.SetDefault("rate_limit_per_minute", 30)
	v.SetDefault("live_ttl", "2h")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("pinecone_index", "learnify-sessions")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("pinecone_api_key", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Comma separated lists arrive from the environment as a single string.
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = splitCSV(cfg.CORSOrigins[0])
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == DriverSQLite {
		cfg.DatabaseURL = "file:learnify.db"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.ModelProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY", ErrMissingEnvironmentVariables)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingEnvironmentVariables)
		}
	default:
		return fmt.Errorf("unsupported model provider: %q", c.ModelProvider)
	}

	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.DBDriver)
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate limit per minute must be greater than 0")
	}

	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
