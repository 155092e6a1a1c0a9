package service

import (
	"context"

	"autoreply/internal/app/autoreply/entity"
)

// AIManager определяет интерфейс менеджера AI провайдеров
type AIManager interface {
	// GenerateResponse генерирует ответ цепочкой primary + fallback провайдеров
	GenerateResponse(ctx context.Context, prompt string) (*entity.GenerationResult, error)
	// ProviderStatus возвращает диагностический статус всех провайдеров
	ProviderStatus(ctx context.Context) map[string]entity.ProviderStatus
	// TestProvider проверяет соединение с провайдером тестовой генерацией
	TestProvider(ctx context.Context, name string) *entity.TestProviderResult
	// IsProviderAvailable проверяет доступность одного провайдера
	IsProviderAvailable(ctx context.Context, name string) bool
}

// ResponseServiceInterface определяет интерфейс генерации и жизненного цикла ответов
type ResponseServiceInterface interface {
	// Generate генерирует ответ на отзыв и применяет workflow-режим
	Generate(ctx context.Context, reviewID string) (*entity.GeneratedResponse, error)
	// Approve одобряет и публикует последний ответ отзыва
	Approve(ctx context.Context, reviewID, text, userID string) error
	// ApproveByID одобряет и публикует конкретный ответ
	ApproveByID(ctx context.Context, responseID uint, text, userID string) error
	// Reject отклоняет последний ответ отзыва
	Reject(ctx context.Context, reviewID, reason, userID string) error
	// RecordFeedback сохраняет оценку качества ответа
	RecordFeedback(ctx context.Context, responseID uint, userID, feedbackType, feedbackText string) error
	// HasResponse проверяет, есть ли уже ответ для отзыва
	HasResponse(ctx context.Context, reviewID string) (bool, error)
	// Status возвращает сводный статус сервиса
	Status(ctx context.Context) (*entity.StatusResponse, error)
	// Responses возвращает список ответов по статусу
	Responses(ctx context.Context, status string, limit, offset int) (*entity.ResponseListResponse, error)
	// Logs возвращает записи журнала аудита
	Logs(ctx context.Context, action string, limit, offset int) (*entity.LogListResponse, error)
	// TestProvider проверяет соединение с провайдером
	TestProvider(ctx context.Context, name string) *entity.TestProviderResult
}

// QueueServiceInterface определяет интерфейс очереди обработки отзывов
type QueueServiceInterface interface {
	// Enqueue ставит отзыв в очередь, дубликаты игнорируются
	Enqueue(ctx context.Context, reviewID string) error
	// Drain обрабатывает очередь, неудачные элементы остаются с инкрементом попыток
	Drain(ctx context.Context) error
	// CleanupOldData удаляет данные старше периода хранения
	CleanupOldData(ctx context.Context) error
}

// NotificationServiceInterface определяет интерфейс уведомлений администратора
type NotificationServiceInterface interface {
	// CheckAndNotify проверяет пороги и публикует уведомления в Kafka
	CheckAndNotify(ctx context.Context) error
}
