package service

import (
	"context"
	"testing"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/repository/mocks"
	"autoreply/internal/app/autoreply/settings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockAIManager мок для AIManager
type MockAIManager struct {
	mock.Mock
}

func (m *MockAIManager) GenerateResponse(ctx context.Context, prompt string) (*entity.GenerationResult, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GenerationResult), args.Error(1)
}

func (m *MockAIManager) ProviderStatus(ctx context.Context) map[string]entity.ProviderStatus {
	args := m.Called(ctx)
	return args.Get(0).(map[string]entity.ProviderStatus)
}

func (m *MockAIManager) TestProvider(ctx context.Context, name string) *entity.TestProviderResult {
	args := m.Called(ctx, name)
	return args.Get(0).(*entity.TestProviderResult)
}

func (m *MockAIManager) IsProviderAvailable(ctx context.Context, name string) bool {
	args := m.Called(ctx, name)
	return args.Bool(0)
}

type responseServiceMocks struct {
	responses *mocks.MockResponseRepository
	reviews   *mocks.MockReviewRepository
	feedback  *mocks.MockFeedbackRepository
	auditLog  *mocks.MockAuditLogRepository
	products  *mocks.MockProductRepository
	aiManager *MockAIManager
}

func newResponseService(t *testing.T, mutate func(*settings.Options)) (*ResponseService, *responseServiceMocks) {
	t.Helper()

	m := &responseServiceMocks{
		responses: new(mocks.MockResponseRepository),
		reviews:   new(mocks.MockReviewRepository),
		feedback:  new(mocks.MockFeedbackRepository),
		auditLog:  new(mocks.MockAuditLogRepository),
		products:  new(mocks.MockProductRepository),
		aiManager: new(MockAIManager),
	}

	store := newSettingsStore(t, mutate)
	svc := NewResponseService(
		m.responses,
		m.reviews,
		m.feedback,
		m.auditLog,
		store,
		m.aiManager,
		NewReviewFilter(store),
		NewPromptBuilder(store, m.products, m.reviews),
		"August Berries",
	)

	return svc, m
}

func newStoredReview(rating int) *entity.Review {
	return &entity.Review{
		ID:        primitive.NewObjectID(),
		ProductID: uuid.New().String(),
		Author:    "Anna",
		Text:      "Very tasty berries, fast delivery",
		Rating:    rating,
		Approved:  true,
	}
}

// stubPromptContext глушит контекст товара и истории отзывов
func stubPromptContext(m *responseServiceMocks, productID string) {
	m.products.On("GetCachedSummary", mock.Anything, productID).Return("", true, nil)
	m.reviews.On("GetRecentByProduct", mock.Anything, productID, 5).Return([]entity.Review{}, nil)
}

// ===================== Generate Tests =====================

func TestGenerate_SemiAutoCreatesPendingReply(t *testing.T) {
	svc, m := newResponseService(t, nil) // workflow_mode по умолчанию semi_auto
	review := newStoredReview(5)
	reviewID := review.ID.Hex()

	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	stubPromptContext(m, review.ProductID)

	m.aiManager.On("GenerateResponse", mock.Anything, mock.AnythingOfType("string")).Return(&entity.GenerationResult{
		Response:       "Thank you for the kind words",
		Provider:       "openai",
		Model:          "gpt-3.5-turbo",
		GenerationTime: 1.2,
	}, nil)

	m.responses.On("Save", mock.Anything, mock.AnythingOfType("*entity.GeneratedResponse")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.GeneratedResponse).ID = 42
		}).Return(nil)

	m.reviews.On("FindReplyByResponseID", mock.Anything, uint(42)).Return(nil, repository.ErrReplyNotFound)
	m.reviews.On("CreateReply", mock.Anything, mock.MatchedBy(func(reply *entity.Reply) bool {
		return !reply.Approved && reply.AIGenerated && reply.ResponseID == 42 && reply.Author == "August Berries"
	})).Return(nil)
	m.auditLog.On("Log", mock.Anything, mock.Anything).Return(nil)

	response, err := svc.Generate(context.Background(), reviewID)

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusPending, response.Status)
	assert.Equal(t, "openai", response.AIProvider)
	assert.Equal(t, "Thank you for the kind words.", response.ResponseText)
	assert.NotNil(t, response.GenerationTime)
	assert.Equal(t, 1.2, *response.GenerationTime)

	m.reviews.AssertExpectations(t)
	m.responses.AssertExpectations(t)
}

func TestGenerate_AutoPublishesImmediately(t *testing.T) {
	svc, m := newResponseService(t, func(o *settings.Options) {
		o.WorkflowMode = entity.WorkflowAuto
	})
	review := newStoredReview(5)
	reviewID := review.ID.Hex()

	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	stubPromptContext(m, review.ProductID)

	m.aiManager.On("GenerateResponse", mock.Anything, mock.AnythingOfType("string")).Return(&entity.GenerationResult{
		Response: "Thanks!", Provider: "openai", Model: "gpt-3.5-turbo", GenerationTime: 0.8,
	}, nil)

	m.responses.On("Save", mock.Anything, mock.AnythingOfType("*entity.GeneratedResponse")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.GeneratedResponse).ID = 7
		}).Return(nil)

	m.reviews.On("FindReplyByResponseID", mock.Anything, uint(7)).Return(nil, repository.ErrReplyNotFound)
	m.reviews.On("CreateReply", mock.Anything, mock.MatchedBy(func(reply *entity.Reply) bool {
		return reply.Approved && reply.AIGenerated
	})).Return(nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(7), entity.StatusPublished, "", "").Return(nil)

	_, err := svc.Generate(context.Background(), reviewID)

	assert.NoError(t, err)
	m.reviews.AssertExpectations(t)
	m.responses.AssertExpectations(t)
}

func TestGenerate_FilteredReviewGetsFallback(t *testing.T) {
	// Отфильтрованный отзыв получает шаблонный ответ, а не теряется
	svc, m := newResponseService(t, func(o *settings.Options) {
		o.WorkflowMode = entity.WorkflowDraft
		o.ReviewFilters.MinRating = 4
	})
	review := newStoredReview(1)
	reviewID := review.ID.Hex()

	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	m.responses.On("Save", mock.Anything, mock.AnythingOfType("*entity.GeneratedResponse")).Return(nil)

	response, err := svc.Generate(context.Background(), reviewID)

	assert.NoError(t, err)
	assert.Equal(t, entity.ProviderFallback, response.AIProvider)
	assert.Equal(t, entity.StatusPending, response.Status)
	assert.Contains(t, fallbackTemplates, response.ResponseText)
	assert.Nil(t, response.GenerationTime)

	m.aiManager.AssertNotCalled(t, "GenerateResponse", mock.Anything, mock.Anything)
}

func TestGenerate_ReviewNotFound(t *testing.T) {
	svc, m := newResponseService(t, nil)

	m.reviews.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrReviewNotFound)
	m.auditLog.On("Log", mock.Anything, mock.MatchedBy(func(entry *entity.AuditLogEntry) bool {
		return entry.Action == entity.ActionReviewProcessingError
	})).Return(nil)

	_, err := svc.Generate(context.Background(), "missing")

	assert.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrReviewNotFound)
	m.auditLog.AssertExpectations(t)
}

func TestGenerate_AllProvidersFailed(t *testing.T) {
	svc, m := newResponseService(t, nil)
	review := newStoredReview(4)
	reviewID := review.ID.Hex()

	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	stubPromptContext(m, review.ProductID)
	m.aiManager.On("GenerateResponse", mock.Anything, mock.AnythingOfType("string")).Return(nil, assert.AnError)
	m.auditLog.On("Log", mock.Anything, mock.MatchedBy(func(entry *entity.AuditLogEntry) bool {
		return entry.Action == entity.ActionReviewProcessingError
	})).Return(nil)

	_, err := svc.Generate(context.Background(), reviewID)

	assert.Error(t, err)
	m.responses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// ===================== Approve Tests =====================

func TestApprove_ReusesExistingPendingReply(t *testing.T) {
	// Ответ из semi_auto уже имеет скрытый reply: одобряем его,
	// дубликат не создаем
	svc, m := newResponseService(t, nil)
	review := newStoredReview(5)
	reviewID := review.ID.Hex()

	response := &entity.GeneratedResponse{
		ID:           42,
		ReviewID:     reviewID,
		ResponseText: "Thank you.",
		Status:       entity.StatusPending,
	}
	existingReply := &entity.Reply{
		ID:         primitive.NewObjectID(),
		ResponseID: 42,
		Approved:   false,
	}

	m.responses.On("GetLatestByReview", mock.Anything, reviewID).Return(response, nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(42), entity.StatusApproved, "admin-1", "").Return(nil)
	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	m.reviews.On("FindReplyByResponseID", mock.Anything, uint(42)).Return(existingReply, nil)
	m.reviews.On("SetReplyApproved", mock.Anything, existingReply.ID.Hex(), true).Return(nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(42), entity.StatusPublished, "admin-1", "").Return(nil)

	err := svc.Approve(context.Background(), reviewID, "", "admin-1")

	assert.NoError(t, err)
	m.reviews.AssertNotCalled(t, "CreateReply", mock.Anything, mock.Anything)
	m.reviews.AssertExpectations(t)
	m.responses.AssertExpectations(t)
}

func TestApproveByID_CreatesReplyWhenMissing(t *testing.T) {
	svc, m := newResponseService(t, nil)
	review := newStoredReview(5)
	reviewID := review.ID.Hex()

	response := &entity.GeneratedResponse{
		ID:           7,
		ReviewID:     reviewID,
		ResponseText: "Original text.",
		Status:       entity.StatusPending,
	}

	m.responses.On("GetByID", mock.Anything, uint(7)).Return(response, nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(7), entity.StatusApproved, "admin-1", "").Return(nil)
	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	m.reviews.On("FindReplyByResponseID", mock.Anything, uint(7)).Return(nil, repository.ErrReplyNotFound)
	m.reviews.On("CreateReply", mock.Anything, mock.MatchedBy(func(reply *entity.Reply) bool {
		// Отредактированный текст вытесняет сгенерированный
		return reply.Text == "Edited by admin." && reply.Approved
	})).Return(nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(7), entity.StatusPublished, "admin-1", "").Return(nil)

	err := svc.ApproveByID(context.Background(), 7, "Edited by admin.", "admin-1")

	assert.NoError(t, err)
	m.reviews.AssertExpectations(t)
}

func TestApprove_ResponseNotFound(t *testing.T) {
	svc, m := newResponseService(t, nil)

	m.responses.On("GetLatestByReview", mock.Anything, "missing").Return(nil, repository.ErrResponseNotFound)

	err := svc.Approve(context.Background(), "missing", "", "admin-1")

	assert.ErrorIs(t, err, repository.ErrResponseNotFound)
}

func TestApprove_AttributionAppended(t *testing.T) {
	svc, m := newResponseService(t, func(o *settings.Options) {
		o.AdvancedSettings.IncludeAIAttribution = true
	})
	review := newStoredReview(5)
	reviewID := review.ID.Hex()

	response := &entity.GeneratedResponse{ID: 9, ReviewID: reviewID, ResponseText: "Thanks."}

	m.responses.On("GetLatestByReview", mock.Anything, reviewID).Return(response, nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(9), entity.StatusApproved, "admin-1", "").Return(nil)
	m.reviews.On("GetByID", mock.Anything, reviewID).Return(review, nil)
	m.reviews.On("FindReplyByResponseID", mock.Anything, uint(9)).Return(nil, repository.ErrReplyNotFound)
	m.reviews.On("CreateReply", mock.Anything, mock.MatchedBy(func(reply *entity.Reply) bool {
		return reply.Text == "Thanks.\n\n"+aiAttribution
	})).Return(nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(9), entity.StatusPublished, "admin-1", "").Return(nil)

	err := svc.Approve(context.Background(), reviewID, "", "admin-1")

	assert.NoError(t, err)
	m.reviews.AssertExpectations(t)
}

// ===================== Reject Tests =====================

func TestReject_Success(t *testing.T) {
	svc, m := newResponseService(t, nil)

	response := &entity.GeneratedResponse{ID: 42, ReviewID: "review-1"}

	m.responses.On("GetLatestByReview", mock.Anything, "review-1").Return(response, nil)
	m.responses.On("UpdateStatus", mock.Anything, uint(42), entity.StatusRejected, "admin-1", "too generic").Return(nil)

	err := svc.Reject(context.Background(), "review-1", "too generic", "admin-1")

	assert.NoError(t, err)
	m.responses.AssertExpectations(t)
}

// ===================== RecordFeedback Tests =====================

func TestRecordFeedback_Success(t *testing.T) {
	svc, m := newResponseService(t, nil)

	m.responses.On("GetByID", mock.Anything, uint(42)).Return(&entity.GeneratedResponse{ID: 42}, nil)
	m.feedback.On("Upsert", mock.Anything, mock.MatchedBy(func(entry *entity.FeedbackEntry) bool {
		return entry.ResponseID == 42 && entry.UserID == "admin-1" && entry.FeedbackType == entity.FeedbackPositive
	})).Return(nil)
	m.auditLog.On("Log", mock.Anything, mock.MatchedBy(func(entry *entity.AuditLogEntry) bool {
		return entry.Action == entity.ActionFeedbackRecorded
	})).Return(nil)

	err := svc.RecordFeedback(context.Background(), 42, "admin-1", entity.FeedbackPositive, "good tone")

	assert.NoError(t, err)
	m.feedback.AssertExpectations(t)
}

func TestRecordFeedback_ResponseNotFound(t *testing.T) {
	svc, m := newResponseService(t, nil)

	m.responses.On("GetByID", mock.Anything, uint(99)).Return(nil, repository.ErrResponseNotFound)

	err := svc.RecordFeedback(context.Background(), 99, "admin-1", entity.FeedbackNegative, "")

	assert.ErrorIs(t, err, repository.ErrResponseNotFound)
	m.feedback.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// ===================== Status Tests =====================

func TestStatus_AggregatesSources(t *testing.T) {
	svc, m := newResponseService(t, nil)

	m.responses.On("Stats", mock.Anything).Return(&entity.ResponseStats{TotalResponses: 10}, nil)
	m.feedback.On("Stats", mock.Anything).Return(&entity.FeedbackStats{TotalFeedback: 4, PositiveRate: 75}, nil)
	m.aiManager.On("ProviderStatus", mock.Anything).Return(map[string]entity.ProviderStatus{
		"openai": {Available: true, Model: "gpt-3.5-turbo", HasAPIKey: true},
	})

	status, err := svc.Status(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(10), status.Stats.TotalResponses)
	assert.Equal(t, 75.0, status.Feedback.PositiveRate)
	assert.True(t, status.Providers["openai"].Available)
}
