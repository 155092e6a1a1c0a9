package entity

// GenerateRequest - запрос на генерацию ответа для отзыва
type GenerateRequest struct {
	ReviewID string `json:"review_id" validate:"required"`
}

// ApproveRequest - запрос на одобрение ответа
// Указывается либо response_id, либо review_id (берётся последний ответ)
type ApproveRequest struct {
	ResponseID uint   `json:"response_id" validate:"omitempty,min=1"`
	ReviewID   string `json:"review_id" validate:"omitempty"`
	Text       string `json:"text" validate:"omitempty,max=2000"`
}

// RejectRequest - запрос на отклонение ответа
type RejectRequest struct {
	ReviewID string `json:"review_id" validate:"required"`
	Reason   string `json:"reason" validate:"omitempty,max=2000"`
}

// FeedbackRequest - оценка качества сгенерированного ответа
type FeedbackRequest struct {
	ResponseID   uint   `json:"response_id" validate:"required,min=1"`
	FeedbackType string `json:"feedback_type" validate:"required,oneof=positive negative"`
	FeedbackText string `json:"feedback_text" validate:"omitempty,max=2000"`
}

// TestProviderResult - результат проверки соединения с провайдером
type TestProviderResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response string `json:"response,omitempty"`
}

// StatusResponse - сводный статус сервиса для админки
type StatusResponse struct {
	Providers map[string]ProviderStatus `json:"providers"`
	Stats     ResponseStats             `json:"stats"`
	Feedback  FeedbackStats             `json:"feedback"`
}

// ResponseListResponse - список ответов с пагинацией
type ResponseListResponse struct {
	Responses []GeneratedResponse `json:"responses"`
	Total     int                 `json:"total"`
}

// LogListResponse - список записей журнала
type LogListResponse struct {
	Logs  []AuditLogEntry `json:"logs"`
	Total int             `json:"total"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
