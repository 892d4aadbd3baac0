package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"questengine/internal/config"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeneratorClient(serverURL string) *HTTPGeneratorClient {
	cfg := &config.Config{
		Generator: config.GeneratorConfig{
			URL:     serverURL,
			Model:   "test-model",
			Enabled: true,
			Timeout: 5 * time.Second,
		},
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewHTTPGeneratorClient(cfg, logger)
}

func TestHTTPGeneratorClient_GenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"hi\"}"}}]}`))
	}))
	defer server.Close()

	client := newTestGeneratorClient(server.URL)
	content, err := client.GenerateText(context.Background(), "make a quest")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"hi"}`, content)
}

func TestHTTPGeneratorClient_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client := newTestGeneratorClient(server.URL)
	client.cfg.Generator.APIKey = "secret"
	_, err := client.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
}

func TestHTTPGeneratorClient_Non200Fails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestGeneratorClient(server.URL)
	_, err := client.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrGenerationFailed))
}

func TestHTTPGeneratorClient_EmptyChoicesFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestGeneratorClient(server.URL)
	_, err := client.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrGenerationResponseInvalid))
}

func TestHTTPGeneratorClient_DisabledFails(t *testing.T) {
	client := newTestGeneratorClient("http://localhost:1")
	client.cfg.Generator.Enabled = false
	_, err := client.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrGenerationFailed))
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced bare", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanJSONResponse(tt.input))
		})
	}
}
