package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Статусы сгенерированного ответа
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPublished = "published"
)

// Режимы workflow для публикации ответов
const (
	WorkflowAuto     = "auto"      // публиковать сразу
	WorkflowSemiAuto = "semi_auto" // создавать ответ на модерации
	WorkflowDraft    = "draft"     // только сохранять черновик
)

// ProviderFallback - псевдо-провайдер для шаблонных ответов
const ProviderFallback = "fallback"

// Review представляет отзыв покупателя (read-only для пайплайна)
// Хранится в MongoDB, как в Reviews Service
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID string             `json:"product_id" bson:"product_id"` // UUID товара из каталога
	Author    string             `json:"author" bson:"author"`
	Text      string             `json:"text" bson:"text"`
	Rating    int                `json:"rating" bson:"rating"` // 0 = без оценки
	Approved  bool               `json:"approved" bson:"approved"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Reply представляет опубликованный ответ магазина на отзыв
// Создаётся пайплайном, привязан к отзыву как threaded-ответ
type Reply struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID      string             `json:"product_id" bson:"product_id"`
	ParentReviewID string             `json:"parent_review_id" bson:"parent_review_id"`
	Author         string             `json:"author" bson:"author"`
	Text           string             `json:"text" bson:"text"`
	Approved       bool               `json:"approved" bson:"approved"` // false = на модерации
	AIGenerated    bool               `json:"ai_generated" bson:"ai_generated"`
	AIProvider     string             `json:"ai_provider" bson:"ai_provider"`
	AIModel        string             `json:"ai_model" bson:"ai_model"`
	ResponseID     uint               `json:"response_id" bson:"response_id"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// Product представляет товар каталога (read-only для пайплайна)
type Product struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Attributes       string    `json:"attributes"` // "цвет: синий, размер: M"
	SKU              string    `json:"sku"`
	Price            float64   `json:"price"`
	Categories       string    `json:"categories"`
	Tags             string    `json:"tags"`
	CreatedAt        time.Time `json:"created_at"`
}

// GeneratedResponse - сгенерированный AI ответ на отзыв
type GeneratedResponse struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	ReviewID        string     `json:"review_id" gorm:"index;size:64"`
	ProductID       string     `json:"product_id" gorm:"index;size:64"`
	ResponseText    string     `json:"response_text" gorm:"type:text"`
	Status          string     `json:"status" gorm:"index;size:20;default:pending"`
	AIProvider      string     `json:"ai_provider" gorm:"column:ai_provider;size:50"`
	ModelUsed       string     `json:"model_used" gorm:"size:100"`
	GenerationTime  *float64   `json:"generation_time"` // секунды, NULL для fallback
	CreatedAt       time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedBy      *string    `json:"approved_by" gorm:"size:64"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason *string    `json:"rejection_reason" gorm:"type:text"`
}

// Действия для журнала аудита
const (
	ActionResponseGenerated       = "response_generated"
	ActionResponseApproved        = "response_approved"
	ActionResponseRejected        = "response_rejected"
	ActionResponsePublished       = "response_published"
	ActionProviderError           = "provider_error"
	ActionReviewProcessingError   = "review_processing_error"
	ActionReviewProcessingFailed  = "review_processing_failed"
	ActionBatchProcessingComplete = "batch_processing_completed"
	ActionDataCleanup             = "data_cleanup"
	ActionFeedbackRecorded        = "feedback_recorded"
	ActionHighVolumeNotification  = "high_volume_notification"
	ActionErrorNotification       = "error_notification"
	ActionReplyCreated            = "ai_comment_created"
)

// AuditLogEntry - запись журнала действий пайплайна (append-only)
type AuditLogEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Action     string    `json:"action" gorm:"index;size:50"`
	ReviewID   *string   `json:"review_id" gorm:"index;size:64"`
	ResponseID *uint     `json:"response_id" gorm:"index"`
	UserID     *string   `json:"user_id" gorm:"size:64"`
	Details    string    `json:"details" gorm:"type:text"` // JSON, обрезается при превышении лимита
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// Типы обратной связи на сгенерированный ответ
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// FeedbackEntry - оценка качества ответа администратором
// Уникальна по паре (response_id, user_id): повторная отправка заменяет первую
type FeedbackEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ResponseID   uint      `json:"response_id" gorm:"uniqueIndex:idx_feedback_response_user"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_feedback_response_user;size:64"`
	FeedbackType string    `json:"feedback_type" gorm:"size:10"`
	FeedbackText string    `json:"feedback_text" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (FeedbackEntry) TableName() string {
	return "response_feedback"
}

// QueueItem - элемент очереди отзывов на обработку
// Хранится в Redis с TTL, долговременно не персистится
type QueueItem struct {
	ReviewID  string    `json:"review_id"`
	QueuedAt  time.Time `json:"queued_at"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
}

// События Kafka
const (
	EventReviewCreated  = "REVIEW_CREATED"
	EventReviewApproved = "REVIEW_APPROVED"
)

// ReviewEvent - событие отзыва из топика review_events
// Дубликаты возможны, пайплайн обязан их переживать
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ReviewID  string    `json:"review_id"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// Типы уведомлений администратору
const (
	NotificationHighVolume = "high_volume"
	NotificationErrors     = "errors"
)

// NotificationEvent - событие-уведомление для топика admin_notifications
// Заменяет email-рассылку: доставку делает отдельный notification-сервис
type NotificationEvent struct {
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Email     string    `json:"email,omitempty"`
	Count     int64     `json:"count"`
	Threshold int       `json:"threshold,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResponseStats - агрегированная статистика по ответам
type ResponseStats struct {
	TotalResponses    int64            `json:"total_responses"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByProvider        map[string]int64 `json:"by_provider"`
	AvgGenerationTime float64          `json:"avg_generation_time"`
	RecentActivity    int64            `json:"recent_activity"` // за последние 30 дней
}

// FeedbackStats - агрегированная статистика обратной связи
type FeedbackStats struct {
	TotalFeedback    int64   `json:"total_feedback"`
	PositiveFeedback int64   `json:"positive_feedback"`
	NegativeFeedback int64   `json:"negative_feedback"`
	PositiveRate     float64 `json:"positive_rate"` // процент, 0..100
}

// GenerationResult - результат успешной генерации через ProviderManager
type GenerationResult struct {
	Response       string  `json:"response"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	GenerationTime float64 `json:"generation_time"` // секунды
	FallbackUsed   bool    `json:"fallback_used"`
}

// ProviderStatus - диагностический статус одного провайдера
type ProviderStatus struct {
	Available bool   `json:"available"`
	Model     string `json:"model"`
	HasAPIKey bool   `json:"has_api_key"`
}
