package middleware

import (
	"errors"
	"net/http"

	"subsonic-backend/internal/delivery/http/response"
	"subsonic-backend/pkg/apperror"
	"subsonic-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error pushed with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed",
					"path", c.FullPath(),
					"request_id", c.GetString("RequestID"),
					"error", appErr.Err,
				)
			}
			response.Error(c, appErr.Code, appErr.Message)
			return
		}

		// Details stay in the log; clients only get the generic message.
		logger.Log.Error("Internal server error",
			"path", c.FullPath(),
			"request_id", c.GetString("RequestID"),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, apperror.MsgInternal)
	}
}

// Recovery turns a panic into the generic 500 body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			"path", c.FullPath(),
			"request_id", c.GetString("RequestID"),
			"panic", recovered,
		)
		response.AbortWithError(c, http.StatusInternalServerError, apperror.MsgInternal)
	})
}
