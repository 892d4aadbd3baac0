package handlers

import (
	"strconv"
	"time"

	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
)

// parseUserIDParam extracts the numeric user ID from the :userID path segment.
func parseUserIDParam(c *gin.Context) (int, error) {
	raw := c.Param("userID")
	if raw == "" {
		return 0, contextutils.ErrMissingRequired
	}
	userID, err := strconv.Atoi(raw)
	if err != nil || userID <= 0 {
		return 0, contextutils.ErrInvalidFormat
	}
	return userID, nil
}

// parseDayParam resolves the quest day from the "date" query parameter
// (YYYY-MM-DD). An absent parameter means today.
func parseDayParam(c *gin.Context) (time.Time, error) {
	day, err := contextutils.ParseDate(c.Query("date"))
	if err != nil {
		return time.Time{}, contextutils.ErrInvalidFormat
	}
	return day, nil
}
