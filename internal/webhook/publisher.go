package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/bantaybayan/internal/models"
)

const (
	webhookQueueKey = "webhook_events"
)

// ErrQueueEmpty - за время ожидания в очереди не появилось событий
var ErrQueueEmpty = errors.New("webhook queue is empty")

// EventType - тип события вебхука
type EventType string

const (
	// EventLocationDanger - пользователь проверил точку внутри зоны активного инцидента
	EventLocationDanger EventType = "location.danger"
	// EventIncidentClustered - из близких отчетов создан новый инцидент
	EventIncidentClustered EventType = "incident.clustered"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	Type        EventType          `json:"type"`
	UserID      string             `json:"user_id,omitempty"`
	IncidentID  *uuid.UUID         `json:"incident_id,omitempty"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	IsDangerous bool               `json:"is_dangerous"`
	Timestamp   time.Time          `json:"timestamp"`
	Incidents   []*models.Incident `json:"incidents,omitempty"` // Инциденты, из-за которых точка опасна, или созданный инцидент
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// EventSource - источник сырых событий для воркера
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// RedisQueue - очередь событий на списке Redis: LPUSH при публикации, BRPOP в воркере
type RedisQueue struct {
	redisClient *redis.Client
}

// NewRedisQueue создает новую очередь вебхуков
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (q *RedisQueue) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH добавляет событие в левую часть списка, BRPOP забирает из правой
	if err := q.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}

// Pop блокируется до появления события или истечения timeout
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.redisClient.BRPop(ctx, timeout, webhookQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrQueueEmpty
		}
		return "", fmt.Errorf("failed to pop webhook event from Redis: %w", err)
	}
	// result[0] - ключ, result[1] - значение
	return result[1], nil
}
