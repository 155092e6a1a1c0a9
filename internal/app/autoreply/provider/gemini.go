package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"autoreply/internal/app/autoreply/settings"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/"

// geminiProvider - провайдер Google Gemini generateContent API
type geminiProvider struct {
	settings *settings.Store
	client   *apiClient
	baseURL  string
}

// NewGeminiProvider создает новый провайдер Gemini
func NewGeminiProvider(store *settings.Store) Provider {
	return &geminiProvider{
		settings: store,
		client:   newAPIClient(),
		baseURL:  geminiDefaultBaseURL,
	}
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) ModelName(ctx context.Context) string {
	if model := p.settings.Model(ctx, "gemini"); model != "" {
		return model
	}
	return "gemini-pro"
}

func (p *geminiProvider) apiURL(ctx context.Context) string {
	// API ключ передаётся query-параметром, а не заголовком
	return p.baseURL + p.ModelName(ctx) + ":generateContent?key=" + p.settings.APIKey(ctx, "gemini")
}

// IsAvailable проверяет ключ, разрешение на внешние данные и живость API
// минимальным запросом на один токен
func (p *geminiProvider) IsAvailable(ctx context.Context) bool {
	if p.settings.APIKey(ctx, "gemini") == "" || !p.settings.IsExternalDataAllowed(ctx) {
		return false
	}
	return p.testConnection(ctx)
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateResponse генерирует ответ через Gemini
func (p *geminiProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if !p.IsAvailable(ctx) {
		return "", fmt.Errorf("gemini: API key is not configured or external data sharing is disabled")
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temperature,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: maxTokens,
		},
	}

	body, err := p.client.postJSON(ctx, p.Name(), p.apiURL(ctx), nil, payload)
	if err != nil {
		return "", err
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: invalid response format")
	}

	return sanitizeResponse(response.Candidates[0].Content.Parts[0].Text, p.settings.MaxResponseLength(ctx)), nil
}

// testConnection делает минимальный запрос на один токен
// Любая ошибка означает недоступность, наружу не пробрасывается
func (p *geminiProvider) testConnection(ctx context.Context) bool {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: "Test"}}},
		},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: 1,
		},
	}

	body, err := p.client.postJSON(ctx, p.Name(), p.apiURL(ctx), nil, payload)
	if err != nil {
		return false
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return false
	}

	return len(response.Candidates) > 0
}
