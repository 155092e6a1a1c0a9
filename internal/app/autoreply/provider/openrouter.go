package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"autoreply/internal/app/autoreply/settings"
)

const openRouterDefaultURL = "https://openrouter.ai/api/v1/chat/completions"

// openRouterProvider - провайдер OpenRouter (OpenAI-совместимый API)
type openRouterProvider struct {
	settings *settings.Store
	client   *apiClient
	apiURL   string

	// Атрибуция магазина, OpenRouter требует их для рейтинга приложений
	referer string
	title   string
}

// NewOpenRouterProvider создает новый провайдер OpenRouter
func NewOpenRouterProvider(store *settings.Store, referer, title string) Provider {
	return &openRouterProvider{
		settings: store,
		client:   newAPIClient(),
		apiURL:   openRouterDefaultURL,
		referer:  referer,
		title:    title,
	}
}

func (p *openRouterProvider) Name() string {
	return "openrouter"
}

func (p *openRouterProvider) ModelName(ctx context.Context) string {
	if model := p.settings.Model(ctx, "openrouter"); model != "" {
		return model
	}
	return "openai/gpt-3.5-turbo"
}

func (p *openRouterProvider) headers(ctx context.Context) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.settings.APIKey(ctx, "openrouter"),
		"HTTP-Referer":  p.referer,
		"X-Title":       p.title,
	}
}

// IsAvailable проверяет ключ, разрешение на внешние данные и живость API
func (p *openRouterProvider) IsAvailable(ctx context.Context) bool {
	if p.settings.APIKey(ctx, "openrouter") == "" || !p.settings.IsExternalDataAllowed(ctx) {
		return false
	}
	return p.testConnection(ctx)
}

// GenerateResponse генерирует ответ через OpenRouter
func (p *openRouterProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if !p.IsAvailable(ctx) {
		return "", fmt.Errorf("openrouter: API key is not configured or external data sharing is disabled")
	}

	payload := chatCompletionRequest{
		Model: p.ModelName(ctx),
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        1,
	}

	body, err := p.client.postJSON(ctx, p.Name(), p.apiURL, p.headers(ctx), payload)
	if err != nil {
		return "", err
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("openrouter: failed to unmarshal response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openrouter: invalid response format")
	}

	return sanitizeResponse(response.Choices[0].Message.Content, p.settings.MaxResponseLength(ctx)), nil
}

// testConnection делает минимальный запрос на один токен
func (p *openRouterProvider) testConnection(ctx context.Context) bool {
	payload := chatCompletionRequest{
		Model: p.ModelName(ctx),
		Messages: []chatMessage{
			{Role: "user", Content: "Test"},
		},
		MaxTokens: 1,
	}

	body, err := p.client.postJSON(ctx, p.Name(), p.apiURL, p.headers(ctx), payload)
	if err != nil {
		return false
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return false
	}

	return len(response.Choices) > 0
}
