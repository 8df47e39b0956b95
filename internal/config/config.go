package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Стратегии поиска ближайших отчетов
const (
	ProximityStrategyScan = "scan"
	ProximityStrategyS2   = "s2"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Stats Config
	StatsTimeWindowMinutes int `env:"STATS_TIME_WINDOW_MINUTES" envDefault:"60"`

	// HTTP Config
	APIKeys          []string      `env:"API_KEYS"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envDefault:"*"`
	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	IncidentCacheTTL time.Duration `env:"INCIDENT_CACHE_TTL" envDefault:"5m"`

	// Weather Config
	WeatherBaseURL  string        `env:"WEATHER_BASE_URL" envDefault:"https://api.open-meteo.com/v1/forecast"`
	WeatherTimeout  time.Duration `env:"WEATHER_TIMEOUT" envDefault:"10s"`
	WeatherCacheTTL time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"10m"`

	// Clustering Config
	ClusterOnIngest           bool    `env:"CLUSTER_ON_INGEST" envDefault:"true"`
	ClusterRadiusMeters       float64 `env:"CLUSTER_RADIUS_METERS" envDefault:"1000"`
	ClusterMinReports         int     `env:"CLUSTER_MIN_REPORTS" envDefault:"3"`
	NearbyDefaultRadiusMeters float64 `env:"NEARBY_DEFAULT_RADIUS_METERS" envDefault:"100"`

	// Proximity Config
	ProximityStrategy   string `env:"PROXIMITY_STRATEGY" envDefault:"s2"`
	ProximityCellLevel  int    `env:"PROXIMITY_CELL_LEVEL" envDefault:"13"`
	IndexResyncSchedule string `env:"INDEX_RESYNC_SCHEDULE" envDefault:"@every 10m"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		HTTPPort:                  getEnv("HTTP_PORT", "8080"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		RedisAddr:                 getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:                 os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   getEnvAsInt("REDIS_DB", 0),
		WebhookURL:                os.Getenv("WEBHOOK_URL"),
		WebhookSecret:             os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:            getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:         getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:          getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		StatsTimeWindowMinutes:    getEnvAsInt("STATS_TIME_WINDOW_MINUTES", 60),
		APIKeys:                   getEnvAsSlice("API_KEYS", nil),
		AllowedOrigins:            getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:              getEnvAsFloat("RATE_LIMIT_RPS", 5),
		IncidentCacheTTL:          getEnvAsDuration("INCIDENT_CACHE_TTL", 5*time.Minute),
		WeatherBaseURL:            getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:            getEnvAsDuration("WEATHER_TIMEOUT", 10*time.Second),
		WeatherCacheTTL:           getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		ClusterOnIngest:           getEnvAsBool("CLUSTER_ON_INGEST", true),
		ClusterRadiusMeters:       getEnvAsFloat("CLUSTER_RADIUS_METERS", 1000),
		ClusterMinReports:         getEnvAsInt("CLUSTER_MIN_REPORTS", 3),
		NearbyDefaultRadiusMeters: getEnvAsFloat("NEARBY_DEFAULT_RADIUS_METERS", 100),
		ProximityStrategy:         strings.ToLower(getEnv("PROXIMITY_STRATEGY", ProximityStrategyS2)),
		ProximityCellLevel:        getEnvAsInt("PROXIMITY_CELL_LEVEL", 13),
		IndexResyncSchedule:       getEnv("INDEX_RESYNC_SCHEDULE", "@every 10m"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, от которых зависит поиск и кластеризация
func (c *Config) Validate() error {
	switch c.ProximityStrategy {
	case ProximityStrategyScan, ProximityStrategyS2:
	default:
		return fmt.Errorf("unknown PROXIMITY_STRATEGY %q: expected %q or %q", c.ProximityStrategy, ProximityStrategyScan, ProximityStrategyS2)
	}
	if c.ProximityCellLevel < 1 || c.ProximityCellLevel > 30 {
		return fmt.Errorf("PROXIMITY_CELL_LEVEL must be in [1, 30], got %d", c.ProximityCellLevel)
	}
	if c.ClusterMinReports < 1 {
		return fmt.Errorf("CLUSTER_MIN_REPORTS must be positive, got %d", c.ClusterMinReports)
	}
	if c.ClusterRadiusMeters <= 0 {
		return fmt.Errorf("CLUSTER_RADIUS_METERS must be positive, got %v", c.ClusterRadiusMeters)
	}
	if c.NearbyDefaultRadiusMeters <= 0 {
		return fmt.Errorf("NEARBY_DEFAULT_RADIUS_METERS must be positive, got %v", c.NearbyDefaultRadiusMeters)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimitRPS)
	}
	if c.WebhookMaxRetries < 1 {
		return fmt.Errorf("WEBHOOK_MAX_RETRIES must be positive, got %d", c.WebhookMaxRetries)
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsSlice разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsSlice(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
