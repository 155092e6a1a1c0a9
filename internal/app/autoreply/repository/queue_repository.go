package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Ключи Redis для очереди отзывов и маркеров идемпотентности
const (
	queueKey            = "autoreply:review_queue"
	processingKeyPrefix = "autoreply:processing:"

	// processingMarkerTTL ограничивает время жизни маркера, чтобы
	// упавшая обработка не блокировала отзыв навсегда
	processingMarkerTTL = 5 * time.Minute
)

// queueRepository реализует QueueRepository поверх Redis
// Очередь хранится одним JSON-блобом с TTL, как транзиентное состояние
type queueRepository struct {
	client *redis.Client
	ttl    time.Duration // TTL очереди
}

// NewQueueRepository создает новый репозиторий очереди отзывов
func NewQueueRepository(client *redis.Client, ttl time.Duration) QueueRepository {
	return &queueRepository{
		client: client,
		ttl:    ttl,
	}
}

// GetQueue получает текущую очередь отзывов
// Отсутствующий или истёкший ключ означает пустую очередь
func (r *queueRepository) GetQueue(ctx context.Context) ([]entity.QueueItem, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := r.client.Get(ctx, queueKey).Result()
	timer.ObserveDuration()

	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get queue from redis: %w", err)
	}

	var items []entity.QueueItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue: %w", err)
	}

	return items, nil
}

// SaveQueue сохраняет очередь целиком с обновлением TTL
// Пустой список эквивалентен удалению очереди
func (r *queueRepository) SaveQueue(ctx context.Context, items []entity.QueueItem) error {
	if len(items) == 0 {
		return r.DeleteQueue(ctx)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err = r.client.Set(ctx, queueKey, data, r.ttl).Err()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set queue in redis: %w", err)
	}

	return nil
}

// DeleteQueue удаляет очередь
func (r *queueRepository) DeleteQueue(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := r.client.Del(ctx, queueKey).Err()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete queue: %w", err)
	}
	return nil
}

// SetProcessingMarker атомарно ставит маркер обработки отзыва
// Возвращает false, если маркер уже стоит (отзыв обрабатывается)
func (r *queueRepository) SetProcessingMarker(ctx context.Context, reviewID string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	acquired, err := r.client.SetNX(ctx, processingKeyPrefix+reviewID, "1", processingMarkerTTL).Result()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return false, fmt.Errorf("failed to set processing marker: %w", err)
	}
	return acquired, nil
}

// HasProcessingMarker проверяет наличие маркера обработки
func (r *queueRepository) HasProcessingMarker(ctx context.Context, reviewID string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpExists)
	exists, err := r.client.Exists(ctx, processingKeyPrefix+reviewID).Result()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpExists)
		return false, fmt.Errorf("failed to check processing marker: %w", err)
	}
	return exists > 0, nil
}

// ClearProcessingMarker снимает маркер обработки досрочно
func (r *queueRepository) ClearProcessingMarker(ctx context.Context, reviewID string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := r.client.Del(ctx, processingKeyPrefix+reviewID).Err()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to clear processing marker: %w", err)
	}
	return nil
}
