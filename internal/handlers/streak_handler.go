package handlers

import (
	"net/http"
	"time"

	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
)

// StreakHandler handles streak-related HTTP requests
type StreakHandler struct {
	streakService services.StreakServiceInterface
	logger        *observability.Logger
}

// NewStreakHandler creates a new StreakHandler
func NewStreakHandler(streakService services.StreakServiceInterface, logger *observability.Logger) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
		logger:        logger,
	}
}

type recordActivityRequest struct {
	Date string `json:"date"`
}

// RecordActivity handles POST /v1/users/:userID/streak. It records a day of
// learning activity, extending or resetting the streak and crediting any
// streak reward.
func (h *StreakHandler) RecordActivity(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "record_activity")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(observability.AttributeUserID(userID))

	// Body is optional; an empty date means today.
	var req recordActivityRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleAppError(c, contextutils.ErrInvalidInput)
			return
		}
	}

	var activityDay time.Time
	activityDay, err = contextutils.ParseDate(req.Date)
	if err != nil {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	result, err := h.streakService.RecordActivity(ctx, userID, activityDay)
	if err != nil {
		h.logger.Error(ctx, "Failed to record streak activity", err, map[string]interface{}{
			"user_id":      userID,
			"activity_day": activityDay.Format("2006-01-02"),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStreakStatus handles GET /v1/users/:userID/streak
func (h *StreakHandler) GetStreakStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_streak_status")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(observability.AttributeUserID(userID))

	status, err := h.streakService.GetStreakStatus(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
