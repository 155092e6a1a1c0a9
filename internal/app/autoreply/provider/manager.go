package provider

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/settings"
	"autoreply/pkg/metrics"
)

// Manager ведёт цепочку провайдеров: сначала primary из настроек,
// затем fallback провайдеры по порядку. Ошибка каждого кандидата
// фиксируется в журнале аудита, генерация продолжается со следующего
type Manager struct {
	providers map[string]Provider
	settings  *settings.Store
	auditLog  repository.AuditLogRepository
}

// NewManager создает новый менеджер AI провайдеров
func NewManager(store *settings.Store, auditLog repository.AuditLogRepository, providers ...Provider) *Manager {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Manager{
		providers: byName,
		settings:  store,
		auditLog:  auditLog,
	}
}

// GenerateResponse пытается сгенерировать ответ цепочкой провайдеров
// Возвращает ErrAllProvidersUnavailable, если все кандидаты отпали
func (m *Manager) GenerateResponse(ctx context.Context, prompt string) (*entity.GenerationResult, error) {
	chain := m.providerChain(ctx)

	for i, name := range chain {
		p, ok := m.providers[name]
		if !ok {
			log.Printf("Unknown provider in settings: %s", name)
			continue
		}

		if !p.IsAvailable(ctx) {
			log.Printf("Provider %s is not available, skipping", name)
			continue
		}

		start := time.Now()
		response, err := p.GenerateResponse(ctx, prompt)
		elapsed := time.Since(start)

		if err != nil {
			log.Printf("Provider %s failed: %v", name, err)
			metrics.ProviderErrors.WithLabelValues(name).Inc()
			m.logProviderError(ctx, name, err)
			continue
		}

		metrics.ProviderGenerationDuration.WithLabelValues(name).Observe(elapsed.Seconds())

		return &entity.GenerationResult{
			Response:       response,
			Provider:       name,
			Model:          p.ModelName(ctx),
			GenerationTime: elapsed.Seconds(),
			FallbackUsed:   i > 0,
		}, nil
	}

	return nil, ErrAllProvidersUnavailable
}

// IsProviderAvailable проверяет доступность одного провайдера
func (m *Manager) IsProviderAvailable(ctx context.Context, name string) bool {
	p, ok := m.providers[name]
	if !ok {
		return false
	}
	return p.IsAvailable(ctx)
}

// ProviderStatus возвращает диагностический статус всех провайдеров
func (m *Manager) ProviderStatus(ctx context.Context) map[string]entity.ProviderStatus {
	status := make(map[string]entity.ProviderStatus, len(m.providers))

	for name, p := range m.providers {
		status[name] = entity.ProviderStatus{
			Available: p.IsAvailable(ctx),
			Model:     p.ModelName(ctx),
			HasAPIKey: m.settings.APIKey(ctx, name) != "",
		}
	}

	return status
}

// TestProvider проверяет соединение с провайдером тестовой генерацией
func (m *Manager) TestProvider(ctx context.Context, name string) *entity.TestProviderResult {
	p, ok := m.providers[name]
	if !ok {
		return &entity.TestProviderResult{
			Success: false,
			Message: "Provider not found.",
		}
	}

	testPrompt := `This is a test message. Please respond with "Test successful" to confirm the connection is working.`

	response, err := p.GenerateResponse(ctx, testPrompt)
	if err != nil {
		return &entity.TestProviderResult{
			Success: false,
			Message: err.Error(),
		}
	}

	return &entity.TestProviderResult{
		Success:  true,
		Message:  "Connection test successful!",
		Response: response,
	}
}

// providerChain строит порядок обхода: primary, затем fallback список
func (m *Manager) providerChain(ctx context.Context) []string {
	chain := []string{m.settings.PrimaryProvider(ctx)}
	for _, name := range m.settings.FallbackProviders(ctx) {
		if name != chain[0] {
			chain = append(chain, name)
		}
	}
	return chain
}

// logProviderError пишет ошибку провайдера в журнал аудита
func (m *Manager) logProviderError(ctx context.Context, name string, genErr error) {
	details, _ := json.Marshal(map[string]string{
		"provider": name,
		"error":    genErr.Error(),
	})

	err := m.auditLog.Log(ctx, &entity.AuditLogEntry{
		Action:  entity.ActionProviderError,
		Details: string(details),
	})
	if err != nil {
		log.Printf("Failed to log provider error: %v", err)
	}
}
