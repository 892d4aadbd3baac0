package contextutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrorCodeRecordNotFound, SeverityInfo, "Record not found", "quest 42")
	assert.Equal(t, "RECORD_NOT_FOUND: Record not found - quest 42", err.Error())

	errNoDetails := NewAppError(ErrorCodeRecordNotFound, SeverityInfo, "Record not found", "")
	assert.Equal(t, "RECORD_NOT_FOUND: Record not found", errNoDetails.Error())
}

func TestWrapError_PreservesCode(t *testing.T) {
	wrapped := WrapError(ErrQuestLinkNotFound, "failed to apply event")

	assert.True(t, IsError(wrapped, ErrQuestLinkNotFound))
	assert.Equal(t, ErrorCodeQuestLinkNotFound, GetErrorCode(wrapped))
	assert.Contains(t, wrapped.Error(), "failed to apply event")
}

func TestWrapError_PlainError(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), "failed to query quests")

	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
	assert.Contains(t, wrapped.Error(), "failed to query quests")
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestWrapErrorf_WithWrapVerb(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := WrapErrorf(cause, "generator call failed: %w", cause)

	assert.ErrorIs(t, wrapped, cause)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConcurrentModification))
	assert.True(t, IsRetryable(WrapError(ErrConcurrentModification, "progress update")))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.False(t, IsRetryable(ErrRecordNotFound))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestIsUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23505"}
	assert.True(t, IsUniqueViolation(pqErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert failed: %w", pqErr)))
	assert.True(t, IsUniqueViolation(ErrRecordExists))

	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestGetErrorSeverity(t *testing.T) {
	assert.Equal(t, SeverityInfo, GetErrorSeverity(ErrRecordNotFound))
	assert.Equal(t, SeverityError, GetErrorSeverity(errors.New("plain")))
}
