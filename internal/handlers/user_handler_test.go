package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"questengine/internal/models"
	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserTestRouter(t *testing.T) (*gin.Engine, *MockUserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userService := &MockUserService{}
	handler := NewUserHandler(userService, newTestLogger(t))

	router := gin.New()
	router.POST("/v1/users", handler.CreateUser)
	router.GET("/v1/users/:userID", handler.GetUser)
	router.PUT("/v1/users/:userID/language", handler.SetLanguage)
	router.GET("/v1/languages", handler.ListLanguages)
	return router, userService
}

func TestUserHandler_CreateUser(t *testing.T) {
	router, userService := newUserTestRouter(t)

	userService.On("CreateUser", mock.Anything, "alice", "alice@example.com").
		Return(&models.User{ID: 1, Username: "alice"}, nil)

	payload := []byte(`{"username":"alice","email":"alice@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	userService.AssertExpectations(t)
}

func TestUserHandler_CreateUser_MissingUsername(t *testing.T) {
	router, _ := newUserTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte(`{"email":"x@y.z"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_CreateUser_Duplicate(t *testing.T) {
	router, userService := newUserTestRouter(t)

	userService.On("CreateUser", mock.Anything, "alice", "").Return(nil, contextutils.ErrRecordExists)

	req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte(`{"username":"alice"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	userService.AssertExpectations(t)
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	router, userService := newUserTestRouter(t)

	userService.On("GetUserByID", mock.Anything, 42).Return(nil, contextutils.ErrUserNotFound)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	userService.AssertExpectations(t)
}

func TestUserHandler_SetLanguage(t *testing.T) {
	router, userService := newUserTestRouter(t)

	userService.On("SetUserLanguage", mock.Anything, 7, "it").Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/users/7/language", bytes.NewReader([]byte(`{"language_code":"it"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	userService.AssertExpectations(t)
}

func TestUserHandler_SetLanguage_UnknownCode(t *testing.T) {
	router, userService := newUserTestRouter(t)

	userService.On("SetUserLanguage", mock.Anything, 7, "xx").Return(contextutils.ErrRecordNotFound)

	req := httptest.NewRequest(http.MethodPut, "/v1/users/7/language", bytes.NewReader([]byte(`{"language_code":"xx"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	userService.AssertExpectations(t)
}

func TestUserHandler_ListLanguages(t *testing.T) {
	router, userService := newUserTestRouter(t)

	userService.On("ListLanguages", mock.Anything).Return([]*models.Language{
		{ID: 1, Code: "it", Name: "Italian"},
		{ID: 2, Code: "fr", Name: "French"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/languages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Languages []*models.Language `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Languages, 2)
	assert.Equal(t, "it", body.Languages[0].Code)
	userService.AssertExpectations(t)
}
