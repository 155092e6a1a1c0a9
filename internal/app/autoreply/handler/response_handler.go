package handler

import (
	"errors"
	"net/http"
	"strconv"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/service"
	"autoreply/internal/app/autoreply/settings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ResponseHandler обрабатывает HTTP запросы админки автоответчика
type ResponseHandler struct {
	responseService service.ResponseServiceInterface
	queueService    service.QueueServiceInterface
	settings        *settings.Store
	validator       *validator.Validate
}

// NewResponseHandler создает новый обработчик
func NewResponseHandler(
	responseService service.ResponseServiceInterface,
	queueService service.QueueServiceInterface,
	store *settings.Store,
) *ResponseHandler {
	return &ResponseHandler{
		responseService: responseService,
		queueService:    queueService,
		settings:        store,
		validator:       validator.New(),
	}
}

// Generate генерирует ответ для отзыва вручную
func (h *ResponseHandler) Generate(c *gin.Context) {
	var req entity.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	response, err := h.responseService.Generate(c.Request.Context(), req.ReviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate response"})
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Approve одобряет и публикует ответ
// По response_id одобряется конкретный ответ, по review_id - последний
func (h *ResponseHandler) Approve(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID"})
		return
	}

	var req entity.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	if req.ResponseID == 0 && req.ReviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either response_id or review_id is required"})
		return
	}

	var err error
	if req.ResponseID != 0 {
		err = h.responseService.ApproveByID(c.Request.Context(), req.ResponseID, req.Text, userIDStr)
	} else {
		err = h.responseService.Approve(c.Request.Context(), req.ReviewID, req.Text, userIDStr)
	}

	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Response not found"})
			return
		}
		if errors.Is(err, repository.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve response"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Response approved and published"})
}

// Reject отклоняет последний ответ отзыва
func (h *ResponseHandler) Reject(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID"})
		return
	}

	var req entity.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	if err := h.responseService.Reject(c.Request.Context(), req.ReviewID, req.Reason, userIDStr); err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Response not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject response"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Response rejected"})
}

// Feedback сохраняет оценку качества сгенерированного ответа
func (h *ResponseHandler) Feedback(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID"})
		return
	}

	var req entity.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	if err := h.responseService.RecordFeedback(c.Request.Context(), req.ResponseID, userIDStr, req.FeedbackType, req.FeedbackText); err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Response not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Feedback recorded"})
}

// Status возвращает сводный статус сервиса: провайдеры и статистика
func (h *ResponseHandler) Status(c *gin.Context) {
	status, err := h.responseService.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// ListResponses возвращает список ответов с фильтром по статусу
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	status := c.Query("status")
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	responses, err := h.responseService.Responses(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get responses"})
		return
	}

	c.JSON(http.StatusOK, responses)
}

// ListLogs возвращает записи журнала аудита
func (h *ResponseHandler) ListLogs(c *gin.Context) {
	action := c.Query("action")
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	logs, err := h.responseService.Logs(c.Request.Context(), action, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// DrainQueue принудительно запускает обработку очереди
func (h *ResponseHandler) DrainQueue(c *gin.Context) {
	if err := h.queueService.Drain(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to drain queue"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Queue drained"})
}

// GetSettings возвращает текущие настройки сервиса
func (h *ResponseHandler) GetSettings(c *gin.Context) {
	opts, err := h.settings.Options(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, opts)
}

// UpdateSettings обновляет настройки по набору ключей вида "section.key"
func (h *ResponseHandler) UpdateSettings(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings provided"})
		return
	}

	for key, value := range req {
		if err := h.settings.Set(c.Request.Context(), key, value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid setting: " + key})
			return
		}
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Settings updated"})
}

// TestProvider проверяет соединение с AI провайдером тестовой генерацией
func (h *ResponseHandler) TestProvider(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider name is required"})
		return
	}

	result := h.responseService.TestProvider(c.Request.Context(), name)
	c.JSON(http.StatusOK, result)
}

// parseIntQuery извлекает целочисленный query-параметр с значением по умолчанию
func parseIntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return defaultValue
	}

	return value
}

// formatValidationError форматирует ошибки валидации в читаемый вид
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
