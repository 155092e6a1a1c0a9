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

// aiAttribution добавляется к публикуемому тексту, если включено в настройках
const aiAttribution = "[Response generated with AI assistance]"

// ResponseService - ядро пайплайна: генерация ответов, workflow-режимы
// и жизненный цикл pending -> approved/rejected -> published
type ResponseService struct {
	responses repository.ResponseRepository
	reviews   repository.ReviewRepository
	feedback  repository.FeedbackRepository
	auditLog  repository.AuditLogRepository
	settings  *settings.Store
	aiManager AIManager
	filter    *ReviewFilter
	prompts   *PromptBuilder

	// Имя магазина, от которого публикуются ответы
	storeName string
}

// NewResponseService создает новый сервис генерации ответов
func NewResponseService(
	responses repository.ResponseRepository,
	reviews repository.ReviewRepository,
	feedback repository.FeedbackRepository,
	auditLog repository.AuditLogRepository,
	store *settings.Store,
	aiManager AIManager,
	filter *ReviewFilter,
	prompts *PromptBuilder,
	storeName string,
) *ResponseService {
	return &ResponseService{
		responses: responses,
		reviews:   reviews,
		feedback:  feedback,
		auditLog:  auditLog,
		settings:  store,
		aiManager: aiManager,
		filter:    filter,
		prompts:   prompts,
		storeName: storeName,
	}
}

// Generate генерирует ответ на отзыв
// Отфильтрованный отзыв получает шаблонный ответ с provider="fallback":
// каждый отзыв оставляет артефакт, молчаливых потерь нет
func (s *ResponseService) Generate(ctx context.Context, reviewID string) (*entity.GeneratedResponse, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		s.logProcessingError(ctx, reviewID, err)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if ok, _ := s.filter.ShouldProcess(ctx, review); !ok {
		log.Printf("Review %s filtered out, using fallback response", reviewID)
		return s.generateFallback(ctx, review)
	}

	prompt := s.prompts.BuildPrompt(ctx, review)

	result, err := s.aiManager.GenerateResponse(ctx, prompt)
	if err != nil {
		s.logProcessingError(ctx, reviewID, err)
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	cleaned := s.prompts.PostProcess(ctx, result.Response)
	generationTime := result.GenerationTime

	response := &entity.GeneratedResponse{
		ReviewID:       reviewID,
		ProductID:      review.ProductID,
		ResponseText:   cleaned,
		Status:         entity.StatusPending,
		AIProvider:     result.Provider,
		ModelUsed:      result.Model,
		GenerationTime: &generationTime,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.responses.Save(ctx, response); err != nil {
		s.logProcessingError(ctx, reviewID, err)
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	metrics.ResponsesGenerated.WithLabelValues(result.Provider).Inc()

	s.applyWorkflow(ctx, response, review)

	return response, nil
}

// generateFallback сохраняет шаблонный ответ для отфильтрованного отзыва
// Шаблон проходит те же workflow-ветки, что и AI ответ
func (s *ResponseService) generateFallback(ctx context.Context, review *entity.Review) (*entity.GeneratedResponse, error) {
	response := &entity.GeneratedResponse{
		ReviewID:     review.ID.Hex(),
		ProductID:    review.ProductID,
		ResponseText: s.prompts.FallbackResponse(),
		Status:       entity.StatusPending,
		AIProvider:   entity.ProviderFallback,
		ModelUsed:    entity.ProviderFallback,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.responses.Save(ctx, response); err != nil {
		s.logProcessingError(ctx, review.ID.Hex(), err)
		return nil, fmt.Errorf("failed to save fallback response: %w", err)
	}

	metrics.ResponsesGenerated.WithLabelValues(entity.ProviderFallback).Inc()

	s.applyWorkflow(ctx, response, review)

	return response, nil
}

// applyWorkflow применяет режим публикации к свежесохранённому ответу
// Ошибки публикации не срывают генерацию: ответ уже сохранён
func (s *ResponseService) applyWorkflow(ctx context.Context, response *entity.GeneratedResponse, review *entity.Review) {
	switch s.settings.WorkflowMode(ctx) {
	case entity.WorkflowAuto:
		if err := s.publish(ctx, response, "", "", "auto"); err != nil {
			log.Printf("Failed to auto-publish response %d: %v", response.ID, err)
		}
	case entity.WorkflowSemiAuto:
		if err := s.createPendingReply(ctx, response, review); err != nil {
			log.Printf("Failed to create pending reply for response %d: %v", response.ID, err)
		}
	case entity.WorkflowDraft:
		// Черновик: ответ остаётся pending без видимого ответа на отзыв
	}
}

// Approve одобряет и публикует последний ответ отзыва
// Текст может быть отредактирован администратором перед публикацией
func (s *ResponseService) Approve(ctx context.Context, reviewID, text, userID string) error {
	response, err := s.responses.GetLatestByReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to find response for review: %w", err)
	}

	return s.approveResponse(ctx, response, text, userID)
}

// ApproveByID одобряет и публикует конкретный ответ
func (s *ResponseService) ApproveByID(ctx context.Context, responseID uint, text, userID string) error {
	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return fmt.Errorf("failed to find response: %w", err)
	}

	return s.approveResponse(ctx, response, text, userID)
}

func (s *ResponseService) approveResponse(ctx context.Context, response *entity.GeneratedResponse, text, userID string) error {
	if err := s.responses.UpdateStatus(ctx, response.ID, entity.StatusApproved, userID, ""); err != nil {
		return fmt.Errorf("failed to approve response: %w", err)
	}

	if err := s.publish(ctx, response, text, userID, "manual"); err != nil {
		return fmt.Errorf("failed to publish response: %w", err)
	}

	return nil
}

// Reject отклоняет последний ответ отзыва с опциональной причиной
func (s *ResponseService) Reject(ctx context.Context, reviewID, reason, userID string) error {
	response, err := s.responses.GetLatestByReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to find response for review: %w", err)
	}

	if err := s.responses.UpdateStatus(ctx, response.ID, entity.StatusRejected, userID, reason); err != nil {
		return fmt.Errorf("failed to reject response: %w", err)
	}

	return nil
}

// publish делает ответ видимым ответом магазина на отзыв
// Если для ответа уже создан скрытый reply (semi_auto), он
// одобряется вместо создания дубликата
func (s *ResponseService) publish(ctx context.Context, response *entity.GeneratedResponse, customText, userID, mode string) error {
	review, err := s.reviews.GetByID(ctx, response.ReviewID)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}

	text := response.ResponseText
	if customText != "" {
		text = customText
	}

	if s.includeAttribution(ctx) {
		text += "\n\n" + aiAttribution
	}

	existing, err := s.reviews.FindReplyByResponseID(ctx, response.ID)
	switch {
	case err == nil:
		if err := s.reviews.SetReplyApproved(ctx, existing.ID.Hex(), true); err != nil {
			return fmt.Errorf("failed to approve existing reply: %w", err)
		}
	case err == repository.ErrReplyNotFound:
		reply := &entity.Reply{
			ProductID:      review.ProductID,
			ParentReviewID: response.ReviewID,
			Author:         s.storeName,
			Text:           text,
			Approved:       true,
			AIGenerated:    true,
			AIProvider:     response.AIProvider,
			AIModel:        response.ModelUsed,
			ResponseID:     response.ID,
		}
		if err := s.reviews.CreateReply(ctx, reply); err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up existing reply: %w", err)
	}

	if err := s.responses.UpdateStatus(ctx, response.ID, entity.StatusPublished, userID, ""); err != nil {
		return fmt.Errorf("failed to mark response as published: %w", err)
	}

	metrics.ResponsesPublished.WithLabelValues(mode).Inc()

	return nil
}

// createPendingReply создает скрытый reply для режима semi_auto
// Повторный вызов для того же ответа дубликат не создает
func (s *ResponseService) createPendingReply(ctx context.Context, response *entity.GeneratedResponse, review *entity.Review) error {
	_, err := s.reviews.FindReplyByResponseID(ctx, response.ID)
	if err == nil {
		log.Printf("Reply already exists for response %d", response.ID)
		return nil
	}
	if err != repository.ErrReplyNotFound {
		return fmt.Errorf("failed to look up existing reply: %w", err)
	}

	text := response.ResponseText
	if s.includeAttribution(ctx) {
		text += "\n\n" + aiAttribution
	}

	reply := &entity.Reply{
		ProductID:      review.ProductID,
		ParentReviewID: response.ReviewID,
		Author:         s.storeName,
		Text:           text,
		Approved:       false,
		AIGenerated:    true,
		AIProvider:     response.AIProvider,
		AIModel:        response.ModelUsed,
		ResponseID:     response.ID,
	}

	if err := s.reviews.CreateReply(ctx, reply); err != nil {
		return fmt.Errorf("failed to create pending reply: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"reply_id": reply.ID.Hex(),
		"status":   "pending",
	})

	reviewID := response.ReviewID
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:     entity.ActionReplyCreated,
		ReviewID:   &reviewID,
		ResponseID: &response.ID,
		Details:    string(details),
	}); err != nil {
		log.Printf("Failed to log reply creation: %v", err)
	}

	return nil
}

// RecordFeedback сохраняет оценку ответа администратором
func (s *ResponseService) RecordFeedback(ctx context.Context, responseID uint, userID, feedbackType, feedbackText string) error {
	if _, err := s.responses.GetByID(ctx, responseID); err != nil {
		return fmt.Errorf("failed to find response: %w", err)
	}

	entry := &entity.FeedbackEntry{
		ResponseID:   responseID,
		UserID:       userID,
		FeedbackType: feedbackType,
		FeedbackText: feedbackText,
	}

	if err := s.feedback.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	details, _ := json.Marshal(map[string]string{"feedback_type": feedbackType})
	userIDCopy := userID
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:     entity.ActionFeedbackRecorded,
		ResponseID: &responseID,
		UserID:     &userIDCopy,
		Details:    string(details),
	}); err != nil {
		log.Printf("Failed to log feedback: %v", err)
	}

	return nil
}

// HasResponse проверяет, есть ли уже ответ для отзыва
func (s *ResponseService) HasResponse(ctx context.Context, reviewID string) (bool, error) {
	return s.responses.HasResponse(ctx, reviewID)
}

// Status собирает сводный статус: провайдеры, статистика, обратная связь
func (s *ResponseService) Status(ctx context.Context) (*entity.StatusResponse, error) {
	stats, err := s.responses.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get response stats: %w", err)
	}

	feedbackStats, err := s.feedback.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback stats: %w", err)
	}

	return &entity.StatusResponse{
		Providers: s.aiManager.ProviderStatus(ctx),
		Stats:     *stats,
		Feedback:  *feedbackStats,
	}, nil
}

// Responses возвращает список ответов по статусу с пагинацией
func (s *ResponseService) Responses(ctx context.Context, status string, limit, offset int) (*entity.ResponseListResponse, error) {
	responses, total, err := s.responses.GetByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	return &entity.ResponseListResponse{
		Responses: responses,
		Total:     int(total),
	}, nil
}

// Logs возвращает записи журнала аудита
func (s *ResponseService) Logs(ctx context.Context, action string, limit, offset int) (*entity.LogListResponse, error) {
	logs, total, err := s.auditLog.List(ctx, action, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return &entity.LogListResponse{
		Logs:  logs,
		Total: int(total),
	}, nil
}

// TestProvider проверяет соединение с провайдером
func (s *ResponseService) TestProvider(ctx context.Context, name string) *entity.TestProviderResult {
	return s.aiManager.TestProvider(ctx, name)
}

func (s *ResponseService) includeAttribution(ctx context.Context) bool {
	v, _ := s.settings.Get(ctx, "advanced_settings.include_ai_attribution", false).(bool)
	return v
}

// logProcessingError пишет ошибку обработки отзыва в журнал аудита
func (s *ResponseService) logProcessingError(ctx context.Context, reviewID string, procErr error) {
	details, _ := json.Marshal(map[string]string{"error": procErr.Error()})

	reviewIDCopy := reviewID
	if err := s.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:   entity.ActionReviewProcessingError,
		ReviewID: &reviewIDCopy,
		Details:  string(details),
	}); err != nil {
		log.Printf("Failed to log processing error: %v", err)
	}
}
