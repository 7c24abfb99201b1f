package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger       `mapstructure:"logger"`
	Alert        Alert        `mapstructure:"alert"`
	API          API          `mapstructure:"api"`
	Cache        Cache        `mapstructure:"cache"`
	Analyzer     Analyzer     `mapstructure:"analyzer"`
	YahooFinance YahooFinance `mapstructure:"yahoo_finance"`
	AlphaVantage AlphaVantage `mapstructure:"alpha_vantage"`
	Gemini       Gemini       `mapstructure:"gemini"`
	Breaker      Breaker      `mapstructure:"breaker"`
	Backtest     Backtest     `mapstructure:"backtest"`
	Tax          Tax          `mapstructure:"tax"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Alert struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type API struct {
	Port         int           `mapstructure:"port"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	Burst        int           `mapstructure:"burst"`
	LimiterIdle  time.Duration `mapstructure:"limiter_idle"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type Cache struct {
	Driver          string        `mapstructure:"driver"`
	RecordTTL       time.Duration `mapstructure:"record_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Redis           Redis         `mapstructure:"redis"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Analyzer struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Mode           string        `mapstructure:"mode"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	SummaryBaseURL      string        `mapstructure:"summary_base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type AlphaVantage struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type Gemini struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

type Breaker struct {
	MinRequests         uint32        `mapstructure:"min_requests"`
	FailureRatio        float64       `mapstructure:"failure_ratio"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
	HalfOpenMaxRequests uint32        `mapstructure:"half_open_max_requests"`
	CountInterval       time.Duration `mapstructure:"count_interval"`
}

type Backtest struct {
	Commission     float64 `mapstructure:"commission"`
	InitialCapital float64 `mapstructure:"initial_capital"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate"`
}

type Tax struct {
	ShortTermRate float64 `mapstructure:"short_term_rate"`
	LongTermRate  float64 `mapstructure:"long_term_rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("alert.timeout", 5*time.Second)

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.burst", 30)
	v.SetDefault("api.limiter_idle", 3*time.Minute)
	v.SetDefault("api.write_timeout", 5*time.Minute)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.record_ttl", time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")

	v.SetDefault("analyzer.max_concurrency", 4)
	v.SetDefault("analyzer.mode", "rules")
	v.SetDefault("analyzer.timeout", 2*time.Minute)

	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo_finance.summary_base_url", "https://query2.finance.yahoo.com/v10/finance/quoteSummary")
	v.SetDefault("yahoo_finance.timeout", 15*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 60)

	v.SetDefault("alpha_vantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("alpha_vantage.timeout", 30*time.Second)
	v.SetDefault("alpha_vantage.max_request_per_minute", 5)

	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("gemini.base_model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("gemini.max_request_per_minute", 15)
	v.SetDefault("gemini.max_token_per_minute", 1000000)

	v.SetDefault("breaker.min_requests", 3)
	v.SetDefault("breaker.failure_ratio", 0.6)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
	v.SetDefault("breaker.half_open_max_requests", 1)
	v.SetDefault("breaker.count_interval", 60*time.Second)

	v.SetDefault("backtest.commission", 0.001)
	v.SetDefault("backtest.initial_capital", 100000.0)
	v.SetDefault("backtest.risk_free_rate", 0.04)

	v.SetDefault("tax.short_term_rate", 0.35)
	v.SetDefault("tax.long_term_rate", 0.20)
}

// Load reads .env, config.yaml (if present) and the environment, in that order of precedence.
func Load(configFile string) (*Config, error) {
	// .env is optional; the environment still wins over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"alpha_vantage.api_key", "gemini.api_key", "alert.webhook_url", "cache.redis.password"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
