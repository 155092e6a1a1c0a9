package repository

import (
	"context"
	"errors"
	"time"

	"autoreply/internal/app/autoreply/entity"

	"github.com/google/uuid"
)

// serviceName - метка service во всех метриках слоя хранения
const serviceName = "autoreply-service"

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrReviewNotFound   = errors.New("review not found")
	ErrReplyNotFound    = errors.New("reply not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrResponseNotFound = errors.New("response not found")
)

// ResponseRepository - хранилище сгенерированных ответов (PostgreSQL)
type ResponseRepository interface {
	Save(ctx context.Context, response *entity.GeneratedResponse) error
	GetByID(ctx context.Context, id uint) (*entity.GeneratedResponse, error)
	GetLatestByReview(ctx context.Context, reviewID string) (*entity.GeneratedResponse, error)
	GetByStatus(ctx context.Context, status string, limit, offset int) ([]entity.GeneratedResponse, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string, userID string, reason string) error
	HasResponse(ctx context.Context, reviewID string) (bool, error)
	Stats(ctx context.Context) (*entity.ResponseStats, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// AuditLogRepository - журнал действий пайплайна (PostgreSQL, append-only)
type AuditLogRepository interface {
	Log(ctx context.Context, entry *entity.AuditLogEntry) error
	List(ctx context.Context, action string, limit, offset int) ([]entity.AuditLogEntry, int64, error)
	CountErrorsSince(ctx context.Context, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// FeedbackRepository - оценки качества ответов (PostgreSQL)
type FeedbackRepository interface {
	Upsert(ctx context.Context, feedback *entity.FeedbackEntry) error
	Stats(ctx context.Context) (*entity.FeedbackStats, error)
}

// QueueRepository - очередь отзывов и маркеры идемпотентности (Redis)
type QueueRepository interface {
	GetQueue(ctx context.Context) ([]entity.QueueItem, error)
	SaveQueue(ctx context.Context, items []entity.QueueItem) error
	DeleteQueue(ctx context.Context) error
	SetProcessingMarker(ctx context.Context, reviewID string) (bool, error)
	HasProcessingMarker(ctx context.Context, reviewID string) (bool, error)
	ClearProcessingMarker(ctx context.Context, reviewID string) error
}

// ReviewRepository - отзывы и ответы на них (MongoDB)
type ReviewRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	GetRecentByProduct(ctx context.Context, productID string, limit int) ([]entity.Review, error)
	CreateReply(ctx context.Context, reply *entity.Reply) error
	SetReplyApproved(ctx context.Context, replyID string, approved bool) error
	FindReplyByResponseID(ctx context.Context, responseID uint) (*entity.Reply, error)
}

// ProductRepository - товары каталога (PostgreSQL) с кэшем сводок (Redis)
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetCachedSummary(ctx context.Context, productID string) (string, bool, error)
	CacheSummary(ctx context.Context, productID string, summary string) error
}

// SettingsRepository - персистентное хранилище настроек (PostgreSQL)
type SettingsRepository interface {
	LoadOptions(ctx context.Context) ([]byte, error)
	SaveOptions(ctx context.Context, data []byte) error
}
