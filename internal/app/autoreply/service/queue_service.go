package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/settings"
	"autoreply/pkg/metrics"
)

// maxQueueAttempts - после этого числа неудач отзыв выбывает из очереди
// с записью review_processing_failed в журнале
const maxQueueAttempts = 3

// QueueService ведёт очередь отзывов на обработку и фоновую очистку данных
type QueueService struct {
	queue     repository.QueueRepository
	auditLog  repository.AuditLogRepository
	settings  *settings.Store
	generator ResponseServiceInterface
}

// NewQueueService создает новый сервис очереди
func NewQueueService(
	queue repository.QueueRepository,
	auditLog repository.AuditLogRepository,
	store *settings.Store,
	generator ResponseServiceInterface,
) *QueueService {
	return &QueueService{
		queue:     queue,
		auditLog:  auditLog,
		settings:  store,
		generator: generator,
	}
}

// Enqueue ставит отзыв в очередь обработки
// Отзыв, уже ожидающий в очереди, повторно не добавляется
func (s *QueueService) Enqueue(ctx context.Context, reviewID string) error {
	items, err := s.queue.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}

	for _, item := range items {
		if item.ReviewID == reviewID {
			log.Printf("Review %s already in queue, skipping", reviewID)
			return nil
		}
	}

	items = append(items, entity.QueueItem{
		ReviewID: reviewID,
		QueuedAt: time.Now(),
		Attempts: 0,
	})

	if err := s.queue.SaveQueue(ctx, items); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}

	metrics.QueueDepth.Set(float64(len(items)))
	log.Printf("Review %s added to queue (depth: %d)", reviewID, len(items))

	return nil
}

// Drain обрабатывает все отзывы в очереди
// Неудачная попытка инкрементирует счётчик, после maxQueueAttempts
// отзыв выбывает навсегда с записью в журнале
func (s *QueueService) Drain(ctx context.Context) error {
	if !s.settings.IsAutomationEnabled(ctx) {
		return nil
	}

	items, err := s.queue.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	var processed []string
	var failed []entity.QueueItem

	for _, item := range items {
		if _, err := s.generator.Generate(ctx, item.ReviewID); err != nil {
			item.Attempts++
			item.LastError = err.Error()

			if item.Attempts < maxQueueAttempts {
				failed = append(failed, item)
				metrics.QueueRetries.Inc()
			} else {
				s.logPermanentFailure(ctx, item)
				metrics.QueueDropped.Inc()
			}
			continue
		}

		processed = append(processed, item.ReviewID)
	}

	if err := s.queue.SaveQueue(ctx, failed); err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}

	metrics.QueueDepth.Set(float64(len(failed)))

	if len(processed) > 0 {
		details, _ := json.Marshal(map[string]interface{}{
			"processed_count":   len(processed),
			"failed_count":      len(failed),
			"processed_reviews": processed,
		})
		if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
			Action:  entity.ActionBatchProcessingComplete,
			Details: string(details),
		}); err != nil {
			log.Printf("Failed to log batch completion: %v", err)
		}
	}

	log.Printf("Queue drained: %d processed, %d kept for retry", len(processed), len(failed))
	return nil
}

// CleanupOldData удаляет записи журнала старше периода хранения
// Сгенерированные ответы не трогаются: история генераций сохраняется
func (s *QueueService) CleanupOldData(ctx context.Context) error {
	retentionDays, _ := s.settings.Get(ctx, "privacy_settings.data_retention_days", 365).(int)
	if retentionDays <= 0 {
		retentionDays = 365
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	cleanedLogs, err := s.auditLog.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up audit logs: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"retention_days": retentionDays,
		"cleaned_logs":   cleanedLogs,
	})
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:  entity.ActionDataCleanup,
		Details: string(details),
	}); err != nil {
		log.Printf("Failed to log cleanup: %v", err)
	}

	log.Printf("Cleanup done: %d log entries removed", cleanedLogs)
	return nil
}

func (s *QueueService) logPermanentFailure(ctx context.Context, item entity.QueueItem) {
	details, _ := json.Marshal(map[string]interface{}{
		"error":    item.LastError,
		"attempts": item.Attempts,
	})

	reviewID := item.ReviewID
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:   entity.ActionReviewProcessingFailed,
		ReviewID: &reviewID,
		Details:  string(details),
	}); err != nil {
		log.Printf("Failed to log permanent failure: %v", err)
	}
}
