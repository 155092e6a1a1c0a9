package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/infrastructure"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/settings"
	"autoreply/pkg/metrics"
)

// NotificationService проверяет пороги активности и ошибок и публикует
// уведомления в Kafka, доставку писем делает отдельный сервис
type NotificationService struct {
	responses repository.ResponseRepository
	auditLog  repository.AuditLogRepository
	settings  *settings.Store
	publisher infrastructure.MessagePublisher
}

// NewNotificationService создает новый сервис уведомлений
func NewNotificationService(
	responses repository.ResponseRepository,
	auditLog repository.AuditLogRepository,
	store *settings.Store,
	publisher infrastructure.MessagePublisher,
) *NotificationService {
	return &NotificationService{
		responses: responses,
		auditLog:  auditLog,
		settings:  store,
		publisher: publisher,
	}
}

// CheckAndNotify проверяет условия уведомлений и рассылает сработавшие
func (s *NotificationService) CheckAndNotify(ctx context.Context) error {
	opts, err := s.settings.Options(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	notifications := opts.NotificationSettings
	if !notifications.EmailNotifications {
		return nil
	}

	if notifications.NotificationEmail == "" {
		log.Printf("Notification email is not configured, skipping notifications")
		return nil
	}

	if notifications.NotifyOnHighVolume {
		if err := s.checkHighVolume(ctx, notifications.NotificationEmail, notifications.HighVolumeThreshold); err != nil {
			log.Printf("High volume check failed: %v", err)
		}
	}

	if notifications.NotifyOnErrors {
		if err := s.checkErrors(ctx, notifications.NotificationEmail); err != nil {
			log.Printf("Error check failed: %v", err)
		}
	}

	return nil
}

// checkHighVolume уведомляет, если за сутки сгенерировано ответов
// не меньше порога
func (s *NotificationService) checkHighVolume(ctx context.Context, email string, threshold int) error {
	count, err := s.responses.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to count responses: %w", err)
	}

	if count < int64(threshold) {
		return nil
	}

	event := &entity.NotificationEvent{
		Type:    entity.NotificationHighVolume,
		Subject: fmt.Sprintf("High Volume Alert - %d AI Responses Generated", count),
		Message: fmt.Sprintf(
			"The review auto-responder has generated %d responses in the last 24 hours, which exceeds your threshold of %d responses. "+
				"You may want to review your automation settings or consider upgrading your plan if you're using paid AI services.",
			count, threshold),
		Email:     email,
		Count:     count,
		Threshold: threshold,
		Timestamp: time.Now(),
	}

	if err := s.publish(ctx, event); err != nil {
		return err
	}

	details, _ := json.Marshal(map[string]interface{}{
		"count":     count,
		"threshold": threshold,
		"email":     email,
	})
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:  entity.ActionHighVolumeNotification,
		Details: string(details),
	}); err != nil {
		log.Printf("Failed to log high volume notification: %v", err)
	}

	return nil
}

// checkErrors уведомляет о любых ошибках пайплайна за последний час
func (s *NotificationService) checkErrors(ctx context.Context, email string) error {
	errorCount, err := s.auditLog.CountErrorsSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		return fmt.Errorf("failed to count errors: %w", err)
	}

	if errorCount == 0 {
		return nil
	}

	event := &entity.NotificationEvent{
		Type:    entity.NotificationErrors,
		Subject: fmt.Sprintf("Error Alert - %d Errors in Last Hour", errorCount),
		Message: fmt.Sprintf(
			"The review auto-responder has encountered %d errors in the last hour. "+
				"Please check the service settings and API keys. Detailed error logs are available in the audit log.",
			errorCount),
		Email:     email,
		Count:     errorCount,
		Timestamp: time.Now(),
	}

	if err := s.publish(ctx, event); err != nil {
		return err
	}

	details, _ := json.Marshal(map[string]interface{}{
		"error_count": errorCount,
		"email":       email,
	})
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:  entity.ActionErrorNotification,
		Details: string(details),
	}); err != nil {
		log.Printf("Failed to log error notification: %v", err)
	}

	return nil
}

func (s *NotificationService) publish(ctx context.Context, event *entity.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := s.publisher.PublishMessage(ctx, event.Type, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues(event.Type).Inc()
	return nil
}
