package repository

import (
	"context"
	"fmt"
	"time"

	"autoreply/internal/app/autoreply/entity"

	"gorm.io/gorm"
)

// maxDetailsBytes - лимит размера поля details в журнале аудита
const maxDetailsBytes = 64 * 1024

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository создает новый репозиторий журнала аудита
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Log пишет запись в журнал аудита
// Слишком большие details заменяются маркером, сама запись сохраняется всегда
func (r *auditLogRepository) Log(ctx context.Context, entry *entity.AuditLogEntry) error {
	if len(entry.Details) > maxDetailsBytes {
		entry.Details = fmt.Sprintf(`{"error":"Details too large, truncated","original_size":%d}`, len(entry.Details))
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	result := r.db.WithContext(ctx).Create(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to write audit log: %w", result.Error)
	}

	return nil
}

// List получает записи журнала, новые первыми, с опциональным фильтром по действию
func (r *auditLogRepository) List(ctx context.Context, action string, limit, offset int) ([]entity.AuditLogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.AuditLogEntry{})
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var entries []entity.AuditLogEntry
	result := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries)

	if result.Error != nil {
		return nil, 0, result.Error
	}

	return entries, total, nil
}

// CountErrorsSince считает ошибки пайплайна после указанного момента
func (r *auditLogRepository) CountErrorsSince(ctx context.Context, since time.Time) (int64, error) {
	errorActions := []string{
		entity.ActionProviderError,
		entity.ActionReviewProcessingError,
		entity.ActionReviewProcessingFailed,
	}

	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.AuditLogEntry{}).
		Where("action IN ?", errorActions).
		Where("created_at > ?", since).
		Count(&count)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to count errors: %w", result.Error)
	}

	return count, nil
}

// DeleteOlderThan удаляет записи журнала старше указанной даты
func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&entity.AuditLogEntry{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}
