package mocks

import (
	"context"
	"time"

	"autoreply/internal/app/autoreply/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockResponseRepository мок для ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Save(ctx context.Context, response *entity.GeneratedResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetByID(ctx context.Context, id uint) (*entity.GeneratedResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GeneratedResponse), args.Error(1)
}

func (m *MockResponseRepository) GetLatestByReview(ctx context.Context, reviewID string) (*entity.GeneratedResponse, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GeneratedResponse), args.Error(1)
}

func (m *MockResponseRepository) GetByStatus(ctx context.Context, status string, limit, offset int) ([]entity.GeneratedResponse, int64, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.GeneratedResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockResponseRepository) UpdateStatus(ctx context.Context, id uint, status string, userID string, reason string) error {
	args := m.Called(ctx, id, status, userID, reason)
	return args.Error(0)
}

func (m *MockResponseRepository) HasResponse(ctx context.Context, reviewID string) (bool, error) {
	args := m.Called(ctx, reviewID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResponseRepository) Stats(ctx context.Context) (*entity.ResponseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ResponseStats), args.Error(1)
}

func (m *MockResponseRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogRepository мок для AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Log(ctx context.Context, entry *entity.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) List(ctx context.Context, action string, limit, offset int) ([]entity.AuditLogEntry, int64, error) {
	args := m.Called(ctx, action, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.AuditLogEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditLogRepository) CountErrorsSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockFeedbackRepository мок для FeedbackRepository
type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Upsert(ctx context.Context, feedback *entity.FeedbackEntry) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

func (m *MockFeedbackRepository) Stats(ctx context.Context) (*entity.FeedbackStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FeedbackStats), args.Error(1)
}

// MockQueueRepository мок для QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) GetQueue(ctx context.Context) ([]entity.QueueItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QueueItem), args.Error(1)
}

func (m *MockQueueRepository) SaveQueue(ctx context.Context, items []entity.QueueItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockQueueRepository) DeleteQueue(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockQueueRepository) SetProcessingMarker(ctx context.Context, reviewID string) (bool, error) {
	args := m.Called(ctx, reviewID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueRepository) HasProcessingMarker(ctx context.Context, reviewID string) (bool, error) {
	args := m.Called(ctx, reviewID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueRepository) ClearProcessingMarker(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetRecentByProduct(ctx context.Context, productID string, limit int) ([]entity.Review, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) CreateReply(ctx context.Context, reply *entity.Reply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

func (m *MockReviewRepository) SetReplyApproved(ctx context.Context, replyID string, approved bool) error {
	args := m.Called(ctx, replyID, approved)
	return args.Error(0)
}

func (m *MockReviewRepository) FindReplyByResponseID(ctx context.Context, responseID uint) (*entity.Reply, error) {
	args := m.Called(ctx, responseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reply), args.Error(1)
}

// MockProductRepository мок для ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetCachedSummary(ctx context.Context, productID string) (string, bool, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockProductRepository) CacheSummary(ctx context.Context, productID string, summary string) error {
	args := m.Called(ctx, productID, summary)
	return args.Error(0)
}

// MockSettingsRepository мок для SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) LoadOptions(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSettingsRepository) SaveOptions(ctx context.Context, data []byte) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

// MockMessagePublisher мок для MessagePublisher (Kafka)
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
