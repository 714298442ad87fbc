package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"5"`

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	} `envconfig:""`

	// CacheBackend выбирает хранилище кэша рекомендаций: redis или postgres.
	CacheBackend string `envconfig:"CACHE_BACKEND" default:"redis"`

	Model struct {
		Provider  string        `envconfig:"MODEL_PROVIDER" default:"openai"`
		Timeout   time.Duration `envconfig:"MODEL_TIMEOUT" default:"30s"`
		MaxTokens int           `envconfig:"MODEL_MAX_TOKENS" default:"1024"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string `envconfig:"OPENAI_API_KEY"`
		BaseURL string `envconfig:"OPENAI_BASE_URL"`
		Model   string `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
	} `envconfig:""`

	Anthropic struct {
		APIKey  string `envconfig:"ANTHROPIC_API_KEY"`
		BaseURL string `envconfig:"ANTHROPIC_BASE_URL"`
		Model   string `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-haiku-latest"`
	} `envconfig:""`

	Agent struct {
		HistoryLimit       int           `envconfig:"AGENT_HISTORY_LIMIT" default:"10"`
		CacheTTL           time.Duration `envconfig:"AGENT_CACHE_TTL" default:"6h"`
		SingleFlight       bool          `envconfig:"AGENT_SINGLEFLIGHT" default:"false"`
		BreakerEnabled     bool          `envconfig:"AGENT_BREAKER_ENABLED" default:"true"`
		BreakerFailures    uint32        `envconfig:"AGENT_BREAKER_FAILURES" default:"5"`
		BreakerOpenTimeout time.Duration `envconfig:"AGENT_BREAKER_OPEN_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Sweep struct {
		Interval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"10m"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает конфиг из окружения и возвращает ошибку вместо остановки процесса.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
