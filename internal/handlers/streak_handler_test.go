package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"questengine/internal/models"
	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStreakTestRouter(t *testing.T) (*gin.Engine, *MockStreakService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	streak := &MockStreakService{}
	handler := NewStreakHandler(streak, newTestLogger(t))

	router := gin.New()
	router.GET("/v1/users/:userID/streak", handler.GetStreakStatus)
	router.POST("/v1/users/:userID/streak", handler.RecordActivity)
	return router, streak
}

func TestStreakHandler_RecordActivity_WithDate(t *testing.T) {
	router, streak := newStreakTestRouter(t)

	day := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)
	result := &models.StreakResult{
		CurrentStreak: 3,
		LearnedToday:  true,
		Reward:        &models.StreakReward{Type: "gems", Amount: 15, Milestone: 3},
	}
	streak.On("RecordActivity", mock.Anything, 7, day).Return(result, nil)

	payload := []byte(`{"date":"2025-06-16"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/users/7/streak", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body models.StreakResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.CurrentStreak)
	require.NotNil(t, body.Reward)
	assert.Equal(t, 15, body.Reward.Amount)
	streak.AssertExpectations(t)
}

func TestStreakHandler_RecordActivity_EmptyBodyMeansToday(t *testing.T) {
	router, streak := newStreakTestRouter(t)

	streak.On("RecordActivity", mock.Anything, 7, mock.MatchedBy(func(day time.Time) bool {
		return day.Equal(contextutils.NormalizeDate(day)) && !day.IsZero()
	})).Return(&models.StreakResult{CurrentStreak: 1, LearnedToday: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/7/streak", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	streak.AssertExpectations(t)
}

func TestStreakHandler_RecordActivity_ConflictAfterRetries(t *testing.T) {
	router, streak := newStreakTestRouter(t)

	streak.On("RecordActivity", mock.Anything, 7, mock.Anything).Return(nil, contextutils.ErrConcurrentModification)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/7/streak", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["retryable"])
	streak.AssertExpectations(t)
}

func TestStreakHandler_GetStreakStatus(t *testing.T) {
	router, streak := newStreakTestRouter(t)

	last := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	status := &models.StreakStatus{
		CurrentStreak:    5,
		MaxStreak:        9,
		LastActivityDate: &last,
		LearnedToday:     false,
		TotalGems:        120,
	}
	streak.On("GetStreakStatus", mock.Anything, 7).Return(status, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/7/streak", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body models.StreakStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5, body.CurrentStreak)
	assert.Equal(t, 9, body.MaxStreak)
	assert.False(t, body.LearnedToday)
	streak.AssertExpectations(t)
}

func TestStreakHandler_GetStreakStatus_UserNotFound(t *testing.T) {
	router, streak := newStreakTestRouter(t)

	streak.On("GetStreakStatus", mock.Anything, 404).Return(nil, contextutils.ErrUserNotFound)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/404/streak", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	streak.AssertExpectations(t)
}
