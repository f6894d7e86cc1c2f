package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// It is the only place errors are rendered. Internal causes are logged, not returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := toAppError(c.Errors.Last().Err)
		if appErr.Err != nil || appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		details := appErr.Details
		if appErr.Code == apperror.CodeInternal {
			details = map[string]any{"request_id": appctx.GetRequestID(c.Request.Context())}
		}

		c.JSON(appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": details,
		})
	}
}

func toAppError(err error) *apperror.AppError {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		return apperror.NewValidation("validation failed").WithDetail("fields", fields)
	}

	return apperror.NewInternal(err)
}
