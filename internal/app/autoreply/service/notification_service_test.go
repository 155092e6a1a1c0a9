package service

import (
	"context"
	"encoding/json"
	"testing"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository/mocks"
	"autoreply/internal/app/autoreply/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type notificationServiceMocks struct {
	responses *mocks.MockResponseRepository
	auditLog  *mocks.MockAuditLogRepository
	publisher *mocks.MockMessagePublisher
}

func newNotificationService(t *testing.T, mutate func(*settings.Options)) (*NotificationService, *notificationServiceMocks) {
	t.Helper()

	m := &notificationServiceMocks{
		responses: new(mocks.MockResponseRepository),
		auditLog:  new(mocks.MockAuditLogRepository),
		publisher: &mocks.MockMessagePublisher{Messages: make([][]byte, 0)},
	}

	svc := NewNotificationService(m.responses, m.auditLog, newSettingsStore(t, mutate), m.publisher)
	return svc, m
}

func withNotificationEmail(o *settings.Options) {
	o.NotificationSettings.NotificationEmail = "admin@augustberries.ru"
}

// ===================== CheckAndNotify Tests =====================

func TestCheckAndNotify_HighVolumeTriggered(t *testing.T) {
	svc, m := newNotificationService(t, func(o *settings.Options) {
		withNotificationEmail(o)
		o.NotificationSettings.NotifyOnErrors = false
	})

	// Порог по умолчанию 50, сгенерировано 75
	m.responses.On("CountSince", mock.Anything, mock.Anything).Return(int64(75), nil)
	m.publisher.On("PublishMessage", mock.Anything, entity.NotificationHighVolume, mock.Anything).Return(nil)
	m.auditLog.On("Log", mock.Anything, mock.MatchedBy(func(entry *entity.AuditLogEntry) bool {
		return entry.Action == entity.ActionHighVolumeNotification
	})).Return(nil)

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	require.Len(t, m.publisher.Messages, 1)

	var event entity.NotificationEvent
	require.NoError(t, json.Unmarshal(m.publisher.Messages[0], &event))
	assert.Equal(t, entity.NotificationHighVolume, event.Type)
	assert.Equal(t, "High Volume Alert - 75 AI Responses Generated", event.Subject)
	assert.Equal(t, int64(75), event.Count)
	assert.Equal(t, 50, event.Threshold)
	assert.Equal(t, "admin@augustberries.ru", event.Email)
}

func TestCheckAndNotify_BelowThresholdSilent(t *testing.T) {
	svc, m := newNotificationService(t, func(o *settings.Options) {
		withNotificationEmail(o)
		o.NotificationSettings.NotifyOnErrors = false
	})

	m.responses.On("CountSince", mock.Anything, mock.Anything).Return(int64(10), nil)

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, m.publisher.Messages)
}

func TestCheckAndNotify_ErrorsTriggered(t *testing.T) {
	svc, m := newNotificationService(t, func(o *settings.Options) {
		withNotificationEmail(o)
		o.NotificationSettings.NotifyOnHighVolume = false
	})

	m.auditLog.On("CountErrorsSince", mock.Anything, mock.Anything).Return(int64(3), nil)
	m.publisher.On("PublishMessage", mock.Anything, entity.NotificationErrors, mock.Anything).Return(nil)
	m.auditLog.On("Log", mock.Anything, mock.MatchedBy(func(entry *entity.AuditLogEntry) bool {
		return entry.Action == entity.ActionErrorNotification
	})).Return(nil)

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	require.Len(t, m.publisher.Messages, 1)

	var event entity.NotificationEvent
	require.NoError(t, json.Unmarshal(m.publisher.Messages[0], &event))
	assert.Equal(t, entity.NotificationErrors, event.Type)
	assert.Equal(t, "Error Alert - 3 Errors in Last Hour", event.Subject)
}

func TestCheckAndNotify_NoErrorsSilent(t *testing.T) {
	svc, m := newNotificationService(t, func(o *settings.Options) {
		withNotificationEmail(o)
		o.NotificationSettings.NotifyOnHighVolume = false
	})

	m.auditLog.On("CountErrorsSince", mock.Anything, mock.Anything).Return(int64(0), nil)

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, m.publisher.Messages)
}

func TestCheckAndNotify_NotificationsDisabled(t *testing.T) {
	svc, m := newNotificationService(t, func(o *settings.Options) {
		withNotificationEmail(o)
		o.NotificationSettings.EmailNotifications = false
	})

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	m.responses.AssertNotCalled(t, "CountSince", mock.Anything, mock.Anything)
	m.auditLog.AssertNotCalled(t, "CountErrorsSince", mock.Anything, mock.Anything)
}

func TestCheckAndNotify_EmailNotConfigured(t *testing.T) {
	// Email по умолчанию пуст: проверки пропускаются без ошибки
	svc, m := newNotificationService(t, nil)

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, m.publisher.Messages)
}

func TestCheckAndNotify_PublishFailureLogged(t *testing.T) {
	// Ошибка публикации не срывает остальные проверки
	svc, m := newNotificationService(t, func(o *settings.Options) {
		withNotificationEmail(o)
		o.NotificationSettings.NotifyOnErrors = false
	})

	m.responses.On("CountSince", mock.Anything, mock.Anything).Return(int64(100), nil)
	m.publisher.On("PublishMessage", mock.Anything, entity.NotificationHighVolume, mock.Anything).Return(assert.AnError)

	err := svc.CheckAndNotify(context.Background())

	assert.NoError(t, err)
	m.auditLog.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}
