package repository

import (
	"context"
	"fmt"
	"time"

	"autoreply/internal/app/autoreply/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository создает новый репозиторий обратной связи
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Upsert сохраняет оценку ответа
// Повторная оценка той же пары (response_id, user_id) заменяет предыдущую
func (r *feedbackRepository) Upsert(ctx context.Context, feedback *entity.FeedbackEntry) error {
	feedback.CreatedAt = time.Now()

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "response_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"feedback_type", "feedback_text", "created_at",
		}),
	}).Create(feedback)

	if result.Error != nil {
		return fmt.Errorf("failed to save feedback: %w", result.Error)
	}

	return nil
}

// Stats собирает агрегированную статистику обратной связи
func (r *feedbackRepository) Stats(ctx context.Context) (*entity.FeedbackStats, error) {
	stats := &entity.FeedbackStats{}

	db := r.db.WithContext(ctx).Model(&entity.FeedbackEntry{})

	if err := db.Count(&stats.TotalFeedback).Error; err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	err := r.db.WithContext(ctx).
		Model(&entity.FeedbackEntry{}).
		Where("feedback_type = ?", entity.FeedbackPositive).
		Count(&stats.PositiveFeedback).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count positive feedback: %w", err)
	}

	stats.NegativeFeedback = stats.TotalFeedback - stats.PositiveFeedback

	if stats.TotalFeedback > 0 {
		stats.PositiveRate = float64(stats.PositiveFeedback) / float64(stats.TotalFeedback) * 100
	}

	return stats, nil
}
