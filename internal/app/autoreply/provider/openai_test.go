package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"autoreply/internal/app/autoreply/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOpenAIKey(o *settings.Options) {
	o.APIKeys.OpenAI = "sk-test"
}

func newTestOpenAI(t *testing.T, serverURL string, mutate func(*settings.Options)) *openAIProvider {
	t.Helper()
	return &openAIProvider{
		settings: newProviderSettings(t, mutate),
		client:   newAPIClient(),
		apiURL:   serverURL,
	}
}

// ===================== GenerateResponse Tests =====================

func TestOpenAIGenerateResponse_Success(t *testing.T) {
	var captured chatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  Thank you for your review!  "}},
			},
		})
	}))
	defer server.Close()

	p := newTestOpenAI(t, server.URL, withOpenAIKey)

	result, err := p.GenerateResponse(context.Background(), "Review: great berries")

	require.NoError(t, err)
	assert.Equal(t, "Thank you for your review!", result)

	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, systemMessage, captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Review: great berries", captured.Messages[1].Content)
	assert.Equal(t, 500, captured.MaxTokens)
	assert.Equal(t, 0.7, captured.Temperature)
	assert.Equal(t, 1.0, captured.TopP)
}

func TestOpenAIGenerateResponse_CustomModel(t *testing.T) {
	var captured chatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	p := newTestOpenAI(t, server.URL, func(o *settings.Options) {
		withOpenAIKey(o)
		o.AIModels.OpenAI = "gpt-4"
	})

	_, err := p.GenerateResponse(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4", captured.Model)
}

func TestOpenAIGenerateResponse_NoAPIKey(t *testing.T) {
	p := newTestOpenAI(t, "http://unused", nil)

	_, err := p.GenerateResponse(context.Background(), "prompt")

	assert.Error(t, err)
}

func TestOpenAIGenerateResponse_ExternalDataDisallowed(t *testing.T) {
	p := newTestOpenAI(t, "http://unused", func(o *settings.Options) {
		withOpenAIKey(o)
		o.PrivacySettings.AllowExternalData = false
	})

	_, err := p.GenerateResponse(context.Background(), "prompt")

	assert.Error(t, err)
}

func TestOpenAIGenerateResponse_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit exceeded"}}`))
	}))
	defer server.Close()

	p := newTestOpenAI(t, server.URL, withOpenAIKey)

	_, err := p.GenerateResponse(context.Background(), "prompt")

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "openai", provErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Equal(t, "Rate limit exceeded", provErr.Message)
}

func TestOpenAIGenerateResponse_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := newTestOpenAI(t, server.URL, withOpenAIKey)

	_, err := p.GenerateResponse(context.Background(), "prompt")

	assert.Error(t, err)
}

func TestOpenAIGenerateResponse_TruncatesLongResponse(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(long)}},
			},
		})
	}))
	defer server.Close()

	p := newTestOpenAI(t, server.URL, withOpenAIKey)

	result, err := p.GenerateResponse(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Len(t, result, 300)
	assert.Equal(t, "...", result[297:])
}

// ===================== IsAvailable Tests =====================

func TestOpenAIIsAvailable_NoLiveProbe(t *testing.T) {
	// Доступность OpenAI подтверждается конфигурацией без живого запроса
	p := newTestOpenAI(t, "http://unreachable.invalid", withOpenAIKey)

	assert.True(t, p.IsAvailable(context.Background()))
}

func TestOpenAIIsAvailable_False(t *testing.T) {
	assert.False(t, newTestOpenAI(t, "http://unused", nil).IsAvailable(context.Background()))

	disallowed := newTestOpenAI(t, "http://unused", func(o *settings.Options) {
		withOpenAIKey(o)
		o.PrivacySettings.AllowExternalData = false
	})
	assert.False(t, disallowed.IsAvailable(context.Background()))
}
