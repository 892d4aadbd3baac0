package observability

import (
	"context"
	"testing"

	"questengine/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Disabled(t *testing.T) {
	logger := NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	assert.NotNil(t, logger)

	// No-op logger must not panic on any level
	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message", map[string]interface{}{"key": "value"})
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message", assert.AnError)
}

func TestNewLogger_NilConfig(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)
	logger.Info(context.Background(), "should not panic")
}

func TestLogger_MergeFields(t *testing.T) {
	logger := NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	merged := logger.mergeFields(
		map[string]interface{}{"a": 1},
		nil,
		map[string]interface{}{"b": 2, "a": 3},
	)

	assert.Equal(t, 3, merged["a"])
	assert.Equal(t, 2, merged["b"])
}

func TestLogger_MergeFields_Empty(t *testing.T) {
	logger := NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	assert.Empty(t, logger.mergeFields())
	assert.Empty(t, logger.mergeFields(nil))
}

func TestTraceFunction(t *testing.T) {
	ctx, span := TraceCatalogFunction(context.Background(), "test_function", AttributeUserID(1))
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	span.End()
}

func TestTraceFunctionWithErrorHandling(t *testing.T) {
	err := TraceFunctionWithErrorHandling(context.Background(), "catalog", "failing", func() error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)

	err = TraceFunctionWithErrorHandling(context.Background(), "catalog", "ok", func() error {
		return nil
	})
	assert.NoError(t, err)
}
