package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	summaryKeyPrefix = "autoreply:product_summary:"
	summaryTTL       = time.Hour

	// summaryMetricPrefix - метка key_prefix в метриках кэша
	summaryMetricPrefix = "product_summary"
)

// productRepository читает товары из PostgreSQL и кэширует
// готовые текстовые сводки в Redis
type productRepository struct {
	db    *gorm.DB
	cache *redis.Client
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB, cache *redis.Client) ProductRepository {
	return &productRepository{db: db, cache: cache}
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// GetCachedSummary получает сводку товара из кэша
func (r *productRepository) GetCachedSummary(ctx context.Context, productID string) (string, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := r.cache.Get(ctx, summaryKeyPrefix+productID).Result()
	timer.ObserveDuration()

	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(serviceName, summaryMetricPrefix)
			return "", false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return "", false, fmt.Errorf("failed to get product summary from cache: %w", err)
	}

	metrics.RecordCacheHit(serviceName, summaryMetricPrefix)
	return data, true, nil
}

// CacheSummary кладёт сводку товара в кэш на час
func (r *productRepository) CacheSummary(ctx context.Context, productID string, summary string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err := r.cache.Set(ctx, summaryKeyPrefix+productID, summary, summaryTTL).Err()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to cache product summary: %w", err)
	}
	return nil
}
