// internal/api/errors.go
package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
)

func errorBody(message string) gin.H {
	return gin.H{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// respondError writes err as the standard error body. Unknown errors are
// logged, reported to Sentry and hidden behind a generic message.
func respondError(c *gin.Context, log logger.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{
			"path":       c.Request.URL.Path,
			"request_id": RequestID(c),
			"error":      err.Error(),
		})
		captureError(c, err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody(apperrors.PublicMessage(err)))
}

// bindingError converts a gin binding failure into a validation error.
func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("Invalid request body")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", jsonFieldName(fe.Field()), fieldMessage(fe)))
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "))
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "hexcolor", "len":
		return "must be a hex color like #4f46e5"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
