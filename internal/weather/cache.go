package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/bantaybayan/internal/observability"
	"github.com/sirupsen/logrus"
)

// CachedProvider кеширует ответы другого Provider в Redis.
// Ошибки Redis не ломают запрос: данные берутся напрямую из источника.
type CachedProvider struct {
	next        Provider
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
	metrics     *observability.Metrics
}

func NewCachedProvider(next Provider, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
		metrics:     metrics,
	}
}

// ключи округляются до ~11 м, чтобы соседние запросы попадали в один кеш
func currentKey(lat, lon float64) string {
	return fmt.Sprintf("weather:current:%.4f:%.4f", lat, lon)
}

func forecastKey(lat, lon float64, days int) string {
	return fmt.Sprintf("weather:forecast:%.4f:%.4f:%d", lat, lon, days)
}

func (p *CachedProvider) Current(ctx context.Context, lat, lon float64) (*Current, error) {
	key := currentKey(lat, lon)
	var cached Current
	if p.load(ctx, key, &cached) {
		return &cached, nil
	}

	current, err := p.next.Current(ctx, lat, lon)
	if err != nil {
		p.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	p.store(ctx, key, current)
	return current, nil
}

func (p *CachedProvider) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	if days < MinForecastDays || days > MaxForecastDays {
		return nil, ErrInvalidDays
	}
	key := forecastKey(lat, lon, days)
	var cached Forecast
	if p.load(ctx, key, &cached) {
		return &cached, nil
	}

	forecast, err := p.next.Forecast(ctx, lat, lon, days)
	if err != nil {
		p.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	p.store(ctx, key, forecast)
	return forecast, nil
}

func (p *CachedProvider) load(ctx context.Context, key string, dst any) bool {
	val, err := p.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.WithError(err).WithField("key", key).Warn("Failed to read weather cache")
		}
		p.metrics.WeatherRequests.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Failed to unmarshal cached weather")
		p.metrics.WeatherRequests.WithLabelValues("miss").Inc()
		return false
	}
	p.metrics.WeatherRequests.WithLabelValues("hit").Inc()
	return true
}

func (p *CachedProvider) store(ctx context.Context, key string, value any) {
	val, err := json.Marshal(value)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to marshal weather for cache")
		return
	}
	if err := p.redisClient.Set(ctx, key, val, p.ttl).Err(); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Failed to write weather cache")
	}
}
