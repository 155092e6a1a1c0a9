package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/pkg/metrics"

	"gorm.io/gorm"
)

// Лимиты колонок, значения длиннее обрезаются с маркером "..."
const (
	maxProviderLen = 50
	maxModelLen    = 100
	maxReasonLen   = 2000
)

type responseRepository struct {
	db       *gorm.DB // GORM DB для работы с PostgreSQL
	auditLog AuditLogRepository
}

// NewResponseRepository создает новый репозиторий сгенерированных ответов
// Каждое изменение статуса фиксируется в журнале аудита
func NewResponseRepository(db *gorm.DB, auditLog AuditLogRepository) ResponseRepository {
	return &responseRepository{db: db, auditLog: auditLog}
}

// Save сохраняет новый сгенерированный ответ в PostgreSQL
// Слишком длинные значения провайдера и модели обрезаются, а не отклоняются
func (r *responseRepository) Save(ctx context.Context, response *entity.GeneratedResponse) error {
	response.AIProvider = truncateWithMarker(response.AIProvider, maxProviderLen)
	response.ModelUsed = truncateWithMarker(response.ModelUsed, maxModelLen)

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "generated_responses")
	result := r.db.WithContext(ctx).Create(response)
	timer.ObserveDuration()

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to save response: %w", result.Error)
	}

	r.logAction(ctx, &entity.AuditLogEntry{
		Action:     entity.ActionResponseGenerated,
		ReviewID:   &response.ReviewID,
		ResponseID: &response.ID,
		Details: fmt.Sprintf(`{"provider":"%s","model":"%s","status":"%s"}`,
			response.AIProvider, response.ModelUsed, response.Status),
	})

	return nil
}

// GetByID получает ответ по ID
func (r *responseRepository) GetByID(ctx context.Context, id uint) (*entity.GeneratedResponse, error) {
	var response entity.GeneratedResponse
	result := r.db.WithContext(ctx).First(&response, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, result.Error
	}

	return &response, nil
}

// GetLatestByReview получает самый свежий ответ для отзыва
func (r *responseRepository) GetLatestByReview(ctx context.Context, reviewID string) (*entity.GeneratedResponse, error) {
	var response entity.GeneratedResponse
	result := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Order("created_at DESC").
		First(&response)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, result.Error
	}

	return &response, nil
}

// GetByStatus получает ответы с указанным статусом, новые первыми
func (r *responseRepository) GetByStatus(ctx context.Context, status string, limit, offset int) ([]entity.GeneratedResponse, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.GeneratedResponse{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	var responses []entity.GeneratedResponse
	result := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&responses)

	if result.Error != nil {
		return nil, 0, result.Error
	}

	return responses, total, nil
}

// UpdateStatus переводит ответ в новый статус жизненного цикла
// Для approved проставляется кто и когда одобрил, для rejected - причина
func (r *responseRepository) UpdateStatus(ctx context.Context, id uint, status string, userID string, reason string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	switch status {
	case entity.StatusApproved, entity.StatusPublished:
		if userID != "" {
			updates["approved_by"] = userID
			updates["approved_at"] = time.Now()
		}
	case entity.StatusRejected:
		if reason != "" {
			updates["rejection_reason"] = truncateWithMarker(reason, maxReasonLen)
		}
	}

	result := r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update response status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrResponseNotFound
	}

	var userIDPtr *string
	if userID != "" {
		userIDPtr = &userID
	}

	r.logAction(ctx, &entity.AuditLogEntry{
		Action:     "response_" + status,
		ResponseID: &id,
		UserID:     userIDPtr,
	})

	return nil
}

// HasResponse проверяет, существует ли уже ответ для отзыва
func (r *responseRepository) HasResponse(ctx context.Context, reviewID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Where("review_id = ?", reviewID).
		Count(&count)

	if result.Error != nil {
		return false, fmt.Errorf("failed to check response existence: %w", result.Error)
	}

	return count > 0, nil
}

// Stats собирает агрегированную статистику по ответам
func (r *responseRepository) Stats(ctx context.Context) (*entity.ResponseStats, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "generated_responses")
	defer timer.ObserveDuration()

	stats := &entity.ResponseStats{
		ByStatus:   make(map[string]int64),
		ByProvider: make(map[string]int64),
	}

	db := r.db.WithContext(ctx).Model(&entity.GeneratedResponse{})

	if err := db.Count(&stats.TotalResponses).Error; err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	type groupCount struct {
		Key   string
		Count int64
	}

	var byStatus []groupCount
	err := r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by status: %w", err)
	}
	for _, g := range byStatus {
		stats.ByStatus[g.Key] = g.Count
	}

	var byProvider []groupCount
	err = r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Select("ai_provider AS key, COUNT(*) AS count").
		Group("ai_provider").
		Scan(&byProvider).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by provider: %w", err)
	}
	for _, g := range byProvider {
		stats.ByProvider[g.Key] = g.Count
	}

	// Среднее время генерации только по реальным вызовам провайдеров,
	// fallback-ответы хранят NULL
	var avg *float64
	err = r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Select("AVG(generation_time)").
		Where("generation_time IS NOT NULL").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute avg generation time: %w", err)
	}
	if avg != nil {
		stats.AvgGenerationTime = *avg
	}

	err = r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Where("created_at > ?", time.Now().AddDate(0, 0, -30)).
		Count(&stats.RecentActivity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recent activity: %w", err)
	}

	return stats, nil
}

// CountSince считает количество ответов, созданных после указанного момента
func (r *responseRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.GeneratedResponse{}).
		Where("created_at > ?", since).
		Count(&count)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to count responses: %w", result.Error)
	}

	return count, nil
}

// logAction пишет запись аудита, ошибка записи не прерывает основную операцию
func (r *responseRepository) logAction(ctx context.Context, entry *entity.AuditLogEntry) {
	if r.auditLog == nil {
		return
	}
	_ = r.auditLog.Log(ctx, entry)
}

// truncateWithMarker обрезает строку до лимита, помечая обрезку троеточием
func truncateWithMarker(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
