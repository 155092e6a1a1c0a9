package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"autoreply/internal/app/autoreply/settings"
)

const openAIDefaultURL = "https://api.openai.com/v1/chat/completions"

// openAIProvider - провайдер OpenAI Chat Completions API
type openAIProvider struct {
	settings *settings.Store
	client   *apiClient
	apiURL   string
}

// NewOpenAIProvider создает новый провайдер OpenAI
func NewOpenAIProvider(store *settings.Store) Provider {
	return &openAIProvider{
		settings: store,
		client:   newAPIClient(),
		apiURL:   openAIDefaultURL,
	}
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) ModelName(ctx context.Context) string {
	if model := p.settings.Model(ctx, "openai"); model != "" {
		return model
	}
	return "gpt-3.5-turbo"
}

// IsAvailable проверяет ключ и разрешение на отправку данных наружу
// Живой запрос не делается, доступность подтверждается только конфигурацией
func (p *openAIProvider) IsAvailable(ctx context.Context) bool {
	return p.settings.APIKey(ctx, "openai") != "" && p.settings.IsExternalDataAllowed(ctx)
}

// GenerateResponse генерирует ответ через OpenAI
func (p *openAIProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if !p.IsAvailable(ctx) {
		return "", fmt.Errorf("openai: API key is not configured or external data sharing is disabled")
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

	headers := map[string]string{
		"Authorization": "Bearer " + p.settings.APIKey(ctx, "openai"),
	}

	body, err := p.client.postJSON(ctx, p.Name(), p.apiURL, headers, payload)
	if err != nil {
		return "", err
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("openai: failed to unmarshal response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai: invalid response format")
	}

	return sanitizeResponse(response.Choices[0].Message.Content, p.settings.MaxResponseLength(ctx)), nil
}
