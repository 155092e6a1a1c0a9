package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Параметры запросов к AI провайдерам, единые для всех вендоров
const (
	requestTimeout = 30 * time.Second
	temperature    = 0.7
	maxTokens      = 500
)

// ErrAllProvidersUnavailable возвращается, когда ни один провайдер
// из цепочки primary + fallback не смог сгенерировать ответ
var ErrAllProvidersUnavailable = errors.New("all AI providers are unavailable")

// ErrProviderNotFound возвращается при обращении к неизвестному провайдеру
var ErrProviderNotFound = errors.New("provider not found")

// Provider - единый интерфейс AI провайдера
// Промпт приходит уже полностью собранным, провайдер отвечает только
// за вендорский формат запроса и извлечение текста из ответа
type Provider interface {
	Name() string
	ModelName(ctx context.Context) string
	IsAvailable(ctx context.Context) bool
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// ProviderError - ошибка вызова AI провайдера с HTTP статусом
// и сообщением, извлечённым из тела ответа вендора
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// apiClient - общий HTTP клиент для всех провайдеров
type apiClient struct {
	httpClient *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// postJSON выполняет POST запрос к API провайдера
// Любой не-2xx статус превращается в ProviderError с вендорским сообщением
func (c *apiClient) postJSON(ctx context.Context, providerName, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Provider:   providerName,
			StatusCode: 0,
			Message:    err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    extractAPIError(respBody),
		}
	}

	return respBody, nil
}

// extractAPIError достаёт сообщение об ошибке из тела ответа вендора
// Сначала error.message (OpenAI-совместимые API), затем message верхнего уровня
func extractAPIError(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Message != "" {
		return flat.Message
	}

	return "API request failed"
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// sanitizeResponse чистит сырой текст провайдера: убирает HTML теги,
// обрезает пробелы и ограничивает длину с маркером обрезки
// Лимит считается в рунах, чтобы не резать многобайтовые символы посередине
func sanitizeResponse(response string, maxLength int) string {
	response = htmlTagPattern.ReplaceAllString(response, "")
	response = strings.TrimSpace(response)

	if maxLength <= 0 {
		return response
	}

	runes := []rune(response)
	if len(runes) <= maxLength {
		return response
	}

	// В совсем короткий лимит маркер не помещается
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	return string(runes[:maxLength-3]) + "..."
}

// Формат chat completions, общий для OpenAI и OpenRouter
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature,omitempty"`
	TopP             float64       `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// systemMessage - роль ассистента при генерации ответов на отзывы
const systemMessage = "You are a helpful customer service representative for an e-commerce store. " +
	"You respond to product reviews with helpful, professional, and brand-appropriate messages."
