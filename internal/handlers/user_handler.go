package handlers

import (
	"net/http"

	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user and language HTTP requests
type UserHandler struct {
	userService services.UserServiceInterface
	logger      *observability.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserServiceInterface, logger *observability.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
}

type setLanguageRequest struct {
	LanguageCode string `json:"language_code" binding:"required"`
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_user")
	defer observability.FinishSpan(span, nil)

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.ErrInvalidInput)
		return
	}

	user, err := h.userService.CreateUser(ctx, req.Username, req.Email)
	if err != nil {
		h.logger.Error(ctx, "Failed to create user", err, map[string]interface{}{
			"username": req.Username,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /v1/users/:userID
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_user")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(observability.AttributeUserID(userID))

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SetLanguage handles PUT /v1/users/:userID/language
func (h *UserHandler) SetLanguage(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "set_language")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	var req setLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.ErrInvalidInput)
		return
	}
	span.SetAttributes(observability.AttributeUserID(userID))

	if err := h.userService.SetUserLanguage(ctx, userID, req.LanguageCode); err != nil {
		h.logger.Error(ctx, "Failed to set user language", err, map[string]interface{}{
			"user_id":       userID,
			"language_code": req.LanguageCode,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"language_code": req.LanguageCode})
}

// ListLanguages handles GET /v1/languages
func (h *UserHandler) ListLanguages(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_languages")
	defer observability.FinishSpan(span, nil)

	languages, err := h.userService.ListLanguages(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"languages": languages})
}
