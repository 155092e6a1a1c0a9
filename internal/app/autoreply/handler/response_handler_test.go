package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/repository/mocks"
	"autoreply/internal/app/autoreply/settings"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResponseService struct {
	mock.Mock
}

func (m *MockResponseService) Generate(ctx context.Context, reviewID string) (*entity.GeneratedResponse, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GeneratedResponse), args.Error(1)
}

func (m *MockResponseService) Approve(ctx context.Context, reviewID, text, userID string) error {
	args := m.Called(ctx, reviewID, text, userID)
	return args.Error(0)
}

func (m *MockResponseService) ApproveByID(ctx context.Context, responseID uint, text, userID string) error {
	args := m.Called(ctx, responseID, text, userID)
	return args.Error(0)
}

func (m *MockResponseService) Reject(ctx context.Context, reviewID, reason, userID string) error {
	args := m.Called(ctx, reviewID, reason, userID)
	return args.Error(0)
}

func (m *MockResponseService) RecordFeedback(ctx context.Context, responseID uint, userID, feedbackType, feedbackText string) error {
	args := m.Called(ctx, responseID, userID, feedbackType, feedbackText)
	return args.Error(0)
}

func (m *MockResponseService) HasResponse(ctx context.Context, reviewID string) (bool, error) {
	args := m.Called(ctx, reviewID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResponseService) Status(ctx context.Context) (*entity.StatusResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.StatusResponse), args.Error(1)
}

func (m *MockResponseService) Responses(ctx context.Context, status string, limit, offset int) (*entity.ResponseListResponse, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ResponseListResponse), args.Error(1)
}

func (m *MockResponseService) Logs(ctx context.Context, action string, limit, offset int) (*entity.LogListResponse, error) {
	args := m.Called(ctx, action, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LogListResponse), args.Error(1)
}

func (m *MockResponseService) TestProvider(ctx context.Context, name string) *entity.TestProviderResult {
	args := m.Called(ctx, name)
	return args.Get(0).(*entity.TestProviderResult)
}

type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) Enqueue(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

func (m *MockQueueService) Drain(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockQueueService) CleanupOldData(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type handlerMocks struct {
	responses    *MockResponseService
	queue        *MockQueueService
	settingsRepo *mocks.MockSettingsRepository
}

// Хелпер для создания обработчика с моками сервисов
func newTestHandler(t *testing.T) (*ResponseHandler, *handlerMocks) {
	t.Helper()

	data, err := json.Marshal(settings.DefaultOptions())
	require.NoError(t, err)

	settingsRepo := new(mocks.MockSettingsRepository)
	settingsRepo.On("LoadOptions", mock.Anything).Return(data, nil)
	settingsRepo.On("SaveOptions", mock.Anything, mock.Anything).Return(nil)

	m := &handlerMocks{
		responses:    new(MockResponseService),
		queue:        new(MockQueueService),
		settingsRepo: settingsRepo,
	}

	h := NewResponseHandler(m.responses, m.queue, settings.NewStore(settingsRepo))
	return h, m
}

// setupHandlerRouter монтирует маршруты с подстановкой user_id вместо JWT
func setupHandlerRouter(h *ResponseHandler, userID string) *gin.Engine {
	router := gin.New()

	group := router.Group("/autoreply")
	if userID != "" {
		group.Use(func(c *gin.Context) {
			c.Set("user_id", userID)
		})
	}

	group.POST("/generate", h.Generate)
	group.POST("/approve", h.Approve)
	group.POST("/reject", h.Reject)
	group.POST("/feedback", h.Feedback)
	group.GET("/status", h.Status)
	group.GET("/responses", h.ListResponses)
	group.GET("/logs", h.ListLogs)
	group.POST("/queue/drain", h.DrainQueue)
	group.GET("/settings", h.GetSettings)
	group.PUT("/settings", h.UpdateSettings)
	group.POST("/providers/:name/test", h.TestProvider)

	return router
}

func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response["error"]
}

// ==================== Generate Tests ====================

func TestGenerateHandler_Success(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	generated := &entity.GeneratedResponse{
		ID:           7,
		ReviewID:     "review-1",
		ResponseText: "Thank you for your review!",
		Status:       entity.StatusPending,
		AIProvider:   "openai",
	}
	m.responses.On("Generate", mock.Anything, "review-1").Return(generated, nil)

	rec := doJSON(router, http.MethodPost, "/autoreply/generate", entity.GenerateRequest{ReviewID: "review-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response entity.GeneratedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, uint(7), response.ID)
	assert.Equal(t, "review-1", response.ReviewID)
	assert.Equal(t, entity.StatusPending, response.Status)
}

func TestGenerateHandler_MissingReviewID(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPost, "/autoreply/generate", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ReviewID is required", errorMessage(t, rec))
	m.responses.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateHandler_InvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	req := httptest.NewRequest(http.MethodPost, "/autoreply/generate", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", errorMessage(t, rec))
}

func TestGenerateHandler_ReviewNotFound(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Generate", mock.Anything, "missing").Return(nil, repository.ErrReviewNotFound)

	rec := doJSON(router, http.MethodPost, "/autoreply/generate", entity.GenerateRequest{ReviewID: "missing"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Review not found", errorMessage(t, rec))
}

// ==================== Approve Tests ====================

func TestApproveHandler_ByResponseID(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("ApproveByID", mock.Anything, uint(5), "Edited text", "admin-1").Return(nil)

	rec := doJSON(router, http.MethodPost, "/autoreply/approve", entity.ApproveRequest{ResponseID: 5, Text: "Edited text"})

	assert.Equal(t, http.StatusOK, rec.Code)
	m.responses.AssertExpectations(t)
	m.responses.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveHandler_ByReviewID(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Approve", mock.Anything, "review-1", "", "admin-1").Return(nil)

	rec := doJSON(router, http.MethodPost, "/autoreply/approve", entity.ApproveRequest{ReviewID: "review-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	m.responses.AssertExpectations(t)
}

func TestApproveHandler_NeitherIDProvided(t *testing.T) {
	h, _ := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPost, "/autoreply/approve", entity.ApproveRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Either response_id or review_id is required", errorMessage(t, rec))
}

func TestApproveHandler_ResponseNotFound(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("ApproveByID", mock.Anything, uint(99), "", "admin-1").Return(repository.ErrResponseNotFound)

	rec := doJSON(router, http.MethodPost, "/autoreply/approve", entity.ApproveRequest{ResponseID: 99})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Response not found", errorMessage(t, rec))
}

func TestApproveHandler_Unauthorized(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "")

	rec := doJSON(router, http.MethodPost, "/autoreply/approve", entity.ApproveRequest{ResponseID: 5})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	m.responses.AssertNotCalled(t, "ApproveByID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ==================== Reject Tests ====================

func TestRejectHandler_Success(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Reject", mock.Anything, "review-1", "Too generic", "admin-1").Return(nil)

	rec := doJSON(router, http.MethodPost, "/autoreply/reject", entity.RejectRequest{ReviewID: "review-1", Reason: "Too generic"})

	assert.Equal(t, http.StatusOK, rec.Code)
	m.responses.AssertExpectations(t)
}

func TestRejectHandler_MissingReviewID(t *testing.T) {
	h, _ := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPost, "/autoreply/reject", entity.RejectRequest{Reason: "Too generic"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ReviewID is required", errorMessage(t, rec))
}

// ==================== Feedback Tests ====================

func TestFeedbackHandler_Success(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("RecordFeedback", mock.Anything, uint(3), "admin-1", "positive", "Good tone").Return(nil)

	rec := doJSON(router, http.MethodPost, "/autoreply/feedback", entity.FeedbackRequest{
		ResponseID:   3,
		FeedbackType: "positive",
		FeedbackText: "Good tone",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	m.responses.AssertExpectations(t)
}

func TestFeedbackHandler_InvalidType(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPost, "/autoreply/feedback", entity.FeedbackRequest{
		ResponseID:   3,
		FeedbackType: "meh",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FeedbackType is oneof", errorMessage(t, rec))
	m.responses.AssertNotCalled(t, "RecordFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedbackHandler_ResponseNotFound(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("RecordFeedback", mock.Anything, uint(99), "admin-1", "negative", "").Return(repository.ErrResponseNotFound)

	rec := doJSON(router, http.MethodPost, "/autoreply/feedback", entity.FeedbackRequest{
		ResponseID:   99,
		FeedbackType: "negative",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==================== Status Tests ====================

func TestStatusHandler_Success(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Status", mock.Anything).Return(&entity.StatusResponse{
		Providers: map[string]entity.ProviderStatus{
			"openai": {Available: true, Model: "gpt-3.5-turbo", HasAPIKey: true},
		},
		Stats: entity.ResponseStats{TotalResponses: 12},
	}, nil)

	rec := doJSON(router, http.MethodGet, "/autoreply/status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Providers["openai"].Available)
	assert.Equal(t, int64(12), response.Stats.TotalResponses)
}

// ==================== ListResponses Tests ====================

func TestListResponsesHandler_Defaults(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Responses", mock.Anything, "", 20, 0).Return(&entity.ResponseListResponse{
		Responses: []entity.GeneratedResponse{{ID: 1}, {ID: 2}},
		Total:     2,
	}, nil)

	rec := doJSON(router, http.MethodGet, "/autoreply/responses", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.ResponseListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	m.responses.AssertExpectations(t)
}

func TestListResponsesHandler_QueryParams(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Responses", mock.Anything, "pending", 5, 10).Return(&entity.ResponseListResponse{}, nil)

	rec := doJSON(router, http.MethodGet, "/autoreply/responses?status=pending&limit=5&offset=10", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.responses.AssertExpectations(t)
}

func TestListResponsesHandler_InvalidLimitFallsBack(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Responses", mock.Anything, "", 20, 0).Return(&entity.ResponseListResponse{}, nil)

	rec := doJSON(router, http.MethodGet, "/autoreply/responses?limit=-3&offset=abc", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.responses.AssertExpectations(t)
}

// ==================== ListLogs Tests ====================

func TestListLogsHandler_ActionFilter(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("Logs", mock.Anything, "provider_error", 50, 0).Return(&entity.LogListResponse{
		Logs:  []entity.AuditLogEntry{{ID: 1, Action: "provider_error"}},
		Total: 1,
	}, nil)

	rec := doJSON(router, http.MethodGet, "/autoreply/logs?action=provider_error", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.LogListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Total)
	m.responses.AssertExpectations(t)
}

// ==================== DrainQueue Tests ====================

func TestDrainQueueHandler_Success(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.queue.On("Drain", mock.Anything).Return(nil)

	rec := doJSON(router, http.MethodPost, "/autoreply/queue/drain", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.queue.AssertExpectations(t)
}

func TestDrainQueueHandler_Failure(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.queue.On("Drain", mock.Anything).Return(assert.AnError)

	rec := doJSON(router, http.MethodPost, "/autoreply/queue/drain", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ==================== Settings Tests ====================

func TestGetSettingsHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodGet, "/autoreply/settings", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var opts settings.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, "semi_auto", opts.WorkflowMode)
	assert.Equal(t, "openai", opts.AIProvider)
}

func TestUpdateSettingsHandler_Success(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPut, "/autoreply/settings", map[string]interface{}{
		"workflow_mode": "draft",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	m.settingsRepo.AssertCalled(t, "SaveOptions", mock.Anything, mock.Anything)
}

func TestUpdateSettingsHandler_UnknownKey(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPut, "/autoreply/settings", map[string]interface{}{
		"bogus_key": true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid setting: bogus_key", errorMessage(t, rec))
	m.settingsRepo.AssertNotCalled(t, "SaveOptions", mock.Anything, mock.Anything)
}

func TestUpdateSettingsHandler_EmptyBody(t *testing.T) {
	h, _ := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	rec := doJSON(router, http.MethodPut, "/autoreply/settings", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No settings provided", errorMessage(t, rec))
}

// ==================== TestProvider Tests ====================

func TestTestProviderHandler(t *testing.T) {
	h, m := newTestHandler(t)
	router := setupHandlerRouter(h, "admin-1")

	m.responses.On("TestProvider", mock.Anything, "openai").Return(&entity.TestProviderResult{
		Success:  true,
		Message:  "Connection test successful!",
		Response: "Test successful",
	})

	rec := doJSON(router, http.MethodPost, "/autoreply/providers/openai/test", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result entity.TestProviderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
}
