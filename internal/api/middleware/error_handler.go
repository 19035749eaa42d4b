// Package middleware provides HTTP middleware for the ingestion API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "ingestq.io/ingestq/internal/pkg/errors"
	"ingestq.io/ingestq/internal/pkg/logger"
)

// ErrorHandler is a Gin middleware that provides centralized error handling.
// It captures errors added via c.Error() and returns a consistent JSON response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		requestID := GetRequestID(c.Request.Context())

		appErr, ok := apperrors.IsAppError(err)
		if !ok {
			logger.Error("Unhandled request error",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			appErr = apperrors.Internal(err)
		} else {
			logger.Warn("Request error",
				zap.String("request_id", requestID),
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
				zap.Error(appErr.Err),
			)
		}

		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.FieldErrors) > 0 {
			body["field_errors"] = appErr.FieldErrors
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}
