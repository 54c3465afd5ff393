package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/eventhub-api/internal/access"
	apierrors "github.com/yukikurage/eventhub-api/internal/errors"
	"github.com/yukikurage/eventhub-api/internal/services"
	"go.uber.org/zap"
)

// respondCommonError answers authentication, authorization and validation
// failures. It reports false when err is none of those.
func respondCommonError(c *gin.Context, err error) bool {
	var denial *access.Denial
	var validation *services.ValidationError

	switch {
	case errors.Is(err, access.ErrAuthenticationRequired):
		apierrors.Unauthorized(c, "")
	case errors.As(err, &denial):
		apierrors.Forbidden(c, denial.Reason)
	case errors.Is(err, access.ErrPermissionDenied):
		apierrors.Forbidden(c, "")
	case errors.As(err, &validation):
		apierrors.Validation(c, validation.Field, validation.Message)
	default:
		return false
	}
	return true
}

// respondInternalError logs an unexpected failure and answers 500.
func respondInternalError(c *gin.Context, logger *zap.Logger, err error) {
	if logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	apierrors.InternalError(c, "")
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondBindError answers a request body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	details := make(map[string][]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		details[fe.Field()] = append(details[fe.Field()], fieldMessage(fe))
	}
	apierrors.BadRequestWithDetails(c, "Invalid request body", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	default:
		return "Invalid value."
	}
}
