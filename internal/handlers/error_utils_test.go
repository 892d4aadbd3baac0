package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	cases := []struct {
		code contextutils.ErrorCode
		want int
	}{
		{contextutils.ErrorCodeInvalidInput, http.StatusBadRequest},
		{contextutils.ErrorCodeMissingRequired, http.StatusBadRequest},
		{contextutils.ErrorCodeInvalidFormat, http.StatusBadRequest},
		{contextutils.ErrorCodeUserNotFound, http.StatusNotFound},
		{contextutils.ErrorCodeQuestNotFound, http.StatusNotFound},
		{contextutils.ErrorCodeQuestLinkNotFound, http.StatusNotFound},
		{contextutils.ErrorCodeRecordExists, http.StatusConflict},
		{contextutils.ErrorCodeQuestAlreadyCompleted, http.StatusConflict},
		{contextutils.ErrorCodeConcurrentModification, http.StatusConflict},
		{contextutils.ErrorCodeTimeout, http.StatusRequestTimeout},
		{contextutils.ErrorCodeServiceUnavailable, http.StatusServiceUnavailable},
		{contextutils.ErrorCodeDatabaseConnection, http.StatusServiceUnavailable},
		{contextutils.ErrorCodeGenerationFailed, http.StatusInternalServerError},
		{contextutils.ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, mapErrorCodeToHTTPStatus(tc.code), "code %s", tc.code)
	}
}

func TestHandleAppError_AppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleAppError(c, contextutils.ErrQuestNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(contextutils.ErrorCodeQuestNotFound), body["code"])
	assert.Equal(t, false, body["retryable"])
}

func TestHandleAppError_WrappedAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	HandleAppError(c, contextutils.WrapError(contextutils.ErrConcurrentModification, "streak update failed"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["retryable"])
}

func TestHandleAppError_PlainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	HandleAppError(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(contextutils.ErrorCodeInternalError), body["code"])
}
