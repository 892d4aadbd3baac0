package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"questengine/internal/config"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GeneratorClient abstracts the content generator. Implementations may fail,
// time out, or return malformed text; callers must carry a fallback path.
type GeneratorClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// chatMessage is one message in an OpenAI-compatible chat completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPGeneratorClient talks to an OpenAI-compatible chat completions endpoint.
type HTTPGeneratorClient struct {
	httpClient *http.Client
	cfg        *config.Config
	logger     *observability.Logger
}

// NewHTTPGeneratorClient creates a generator client with an instrumented HTTP
// transport and the configured request timeout.
func NewHTTPGeneratorClient(cfg *config.Config, logger *observability.Logger) *HTTPGeneratorClient {
	httpClient := &http.Client{
		Timeout: cfg.GeneratorTimeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}
	return &HTTPGeneratorClient{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     logger,
	}
}

// GenerateText sends the prompt to the chat completions endpoint and returns
// the first choice's content.
func (c *HTTPGeneratorClient) GenerateText(ctx context.Context, prompt string) (result0 string, err error) {
	ctx, span := observability.TraceGeneratorFunction(ctx, "GenerateText",
		attribute.String("generator.model", c.cfg.Generator.Model),
		attribute.Int("prompt.length", len(prompt)),
	)
	defer observability.FinishSpan(span, &err)

	if !c.cfg.Generator.Enabled || c.cfg.Generator.URL == "" {
		return "", contextutils.WrapError(contextutils.ErrGenerationFailed, "generator is disabled")
	}

	apiURL := strings.TrimSuffix(c.cfg.Generator.URL, "/") + "/chat/completions"

	reqBody := chatRequest{
		Model:       c.cfg.Generator.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to marshal request body")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.GeneratorTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", contextutils.WrapError(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Generator.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Generator.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "request_failed"))
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "generator request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn(ctx, "Failed to close generator response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read response body")
	}

	span.SetAttributes(
		attribute.Int("response.status_code", resp.StatusCode),
		attribute.Int64("response.duration_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode != http.StatusOK {
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "generator request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid, "failed to parse generator response: %w", err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", contextutils.WrapError(contextutils.ErrGenerationResponseInvalid, "generator returned no content")
	}

	c.logger.Debug(ctx, "Generator request completed", map[string]interface{}{
		"duration_ms":    time.Since(start).Milliseconds(),
		"content_length": len(chatResp.Choices[0].Message.Content),
	})

	return chatResp.Choices[0].Message.Content, nil
}

// cleanJSONResponse strips markdown code fences that chat models like to wrap
// around JSON payloads.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx != -1 {
			cleaned = cleaned[idx+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}
