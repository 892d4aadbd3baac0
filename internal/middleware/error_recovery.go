// Package middleware provides HTTP middleware for the quest engine API.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryMiddleware converts panics into structured AppError responses
// instead of letting gin's default recovery return an empty 500.
func ErrorRecoveryMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())
				logger.Error(c.Request.Context(), "Panic recovered", nil, map[string]interface{}{
					"panic":       fmt.Sprintf("%v", r),
					"stack_trace": stackTrace,
					"http.method": c.Request.Method,
					"http.path":   c.Request.URL.Path,
				})

				var panicErr error
				if e, ok := r.(error); ok {
					panicErr = e
				} else {
					panicErr = fmt.Errorf("panic: %v", r)
				}

				appErr := contextutils.NewAppErrorWithCause(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityError,
					"Internal server error",
					"A panic occurred while processing the request",
					panicErr,
				)

				// Include the stack trace in development mode only
				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stackTrace)
				}

				writeAppError(c, appErr)
				c.Abort()
			}
		}()

		c.Next()
	}
}

// writeAppError sends the same structured payload the handlers package uses,
// kept local so middleware does not depend on handlers.
func writeAppError(c *gin.Context, err *contextutils.AppError) {
	errorJSON := err.ToJSON()
	errorJSON["retryable"] = contextutils.IsRetryable(err)
	c.JSON(http.StatusInternalServerError, errorJSON)
}
