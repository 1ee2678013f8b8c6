package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	CacheBackendRedis = "redis"
	CacheBackendREST  = "rest"
	CacheBackendNone  = "none"
)

type Config struct {
	Port        int
	DatabaseURL string
	FrontendURL string

	CacheBackend     string
	RedisURL         string
	UpstashRESTURL   string
	UpstashRESTToken string
	QuoteTTLSecs     int
	HistoryTTLSecs   int

	CoinGeckoAPIURL string
	IEXCloudAPIURL  string
	IEXCloudAPIKey  string
	HTTPTimeoutSecs int

	DailyValuationHourUTC int
	HourlyCron            string
	HistoricalCron        string
	NotificationCron      string
	WorkerCount           int
	QueueSize             int
	ValuationConcurrency  int

	AlertLossPct float64
	AlertGainPct float64

	TelegramBotToken string

	TracingEnabled   bool
	OTLPEndpoint     string
	OTLPInsecure     bool
	TraceSampleRatio float64
	ServiceVersion   string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		UpstashRESTURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTASH_REDIS_REST_URL")), "/"),
		UpstashRESTToken: strings.TrimSpace(os.Getenv("UPSTASH_REDIS_REST_TOKEN")),
		IEXCloudAPIKey:   strings.TrimSpace(os.Getenv("IEX_CLOUD_API_KEY")),
	}

	cfg.Port = intEnv("PORT", 8080, func(n int) bool { return n > 0 && n < 65536 })

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set")
	}

	cfg.FrontendURL = strings.TrimSpace(os.Getenv("FRONTEND_URL"))
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = CacheBackendRedis
	}
	switch cfg.CacheBackend {
	case CacheBackendRedis, CacheBackendREST, CacheBackendNone:
	default:
		log.Warn().Str("value", cfg.CacheBackend).Msg("unsupported CACHE_BACKEND, defaulting to redis")
		cfg.CacheBackend = CacheBackendRedis
	}
	if cfg.CacheBackend == CacheBackendREST && (cfg.UpstashRESTURL == "" || cfg.UpstashRESTToken == "") {
		log.Warn().Msg("CACHE_BACKEND=rest but UPSTASH_REDIS_REST_URL/TOKEN not set, cache disabled")
		cfg.CacheBackend = CacheBackendNone
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "localhost:6379"
	}

	cfg.QuoteTTLSecs = intEnv("CACHE_TTL", 300, positive)
	cfg.HistoryTTLSecs = intEnv("HISTORICAL_CACHE_TTL", 3600, positive)

	cfg.CoinGeckoAPIURL = strings.TrimRight(strings.TrimSpace(os.Getenv("COINGECKO_API_URL")), "/")
	if cfg.CoinGeckoAPIURL == "" {
		cfg.CoinGeckoAPIURL = "https://api.coingecko.com/api/v3"
	}
	cfg.IEXCloudAPIURL = strings.TrimRight(strings.TrimSpace(os.Getenv("IEX_CLOUD_API_URL")), "/")
	if cfg.IEXCloudAPIURL == "" {
		cfg.IEXCloudAPIURL = "https://cloud.iexapis.com/stable"
	}
	if cfg.IEXCloudAPIKey == "" {
		log.Warn().Msg("IEX_CLOUD_API_KEY not set, stock prices will be unavailable")
	}
	cfg.HTTPTimeoutSecs = intEnv("HTTP_TIMEOUT_SECS", 15, positive)

	cfg.DailyValuationHourUTC = intEnv("DAILY_VALUATION_HOUR_UTC", 9, func(n int) bool { return n >= 0 && n <= 23 })
	cfg.HourlyCron = stringEnv("HOURLY_CRON", "0 * * * *")
	cfg.HistoricalCron = stringEnv("HISTORICAL_CRON", "0 */6 * * *")
	cfg.NotificationCron = stringEnv("NOTIFICATION_CRON", "30 "+strconv.Itoa(cfg.DailyValuationHourUTC)+" * * *")

	cfg.WorkerCount = intEnv("WORKER_COUNT", 2, positive)
	cfg.QueueSize = intEnv("QUEUE_SIZE", 100, positive)
	cfg.ValuationConcurrency = intEnv("VALUATION_CONCURRENCY", 4, positive)

	cfg.AlertLossPct = floatEnv("ALERT_LOSS_PCT", -5, func(f float64) bool { return f < 0 })
	cfg.AlertGainPct = floatEnv("ALERT_GAIN_PCT", 10, func(f float64) bool { return f > 0 })

	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	cfg.TracingEnabled = boolEnv("TRACING_ENABLED", true)
	cfg.OTLPEndpoint = stringEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	cfg.OTLPInsecure = boolEnv("OTEL_EXPORTER_OTLP_INSECURE", true)
	cfg.TraceSampleRatio = floatEnv("TRACE_SAMPLE_RATIO", 1, func(f float64) bool { return f > 0 && f <= 1 })
	cfg.ServiceVersion = stringEnv("SERVICE_VERSION", "1.0.0")

	cfg.LogLevel = stringEnv("LOG_LEVEL", "info")
	cfg.LogFormat = stringEnv("LOG_FORMAT", "json")

	return cfg
}

func positive(n int) bool { return n > 0 }

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolEnv(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid value, using default")
	}
	return def
}

func intEnv(key string, def int, valid func(int) bool) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && valid(n) {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid value, using default")
	}
	return def
}

func floatEnv(key string, def float64, valid func(float64) bool) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && valid(f) {
			return f
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid value, using default")
	}
	return def
}
