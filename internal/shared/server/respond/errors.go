package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps a domain error onto the HTTP envelope.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		Error(c, http.StatusBadRequest, "validation_error", apperr.Message(err, "invalid request"), apperr.Details(err))
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", apperr.Message(err, "not found"), nil)
	case errors.Is(err, apperr.ErrConflict):
		Error(c, http.StatusConflict, "conflict", apperr.Message(err, "conflict"), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, "unauthorized", apperr.Message(err, "missing or invalid token"), nil)
	case errors.Is(err, apperr.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", apperr.Message(err, "forbidden"), nil)
	case errors.Is(err, apperr.ErrExternal):
		telemetry.Error("http.external", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		})
		Error(c, http.StatusBadGateway, "external_error", apperr.Message(err, "upstream service failed"), nil)
	default:
		telemetry.Error("http.internal", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		})
		Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

// BindError reports a failed ShouldBind* call, listing validator failures
// per field.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]apperr.FieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, apperr.FieldIssue{Field: fieldName(fe), Issue: issueFor(fe)})
		}
		Error(c, http.StatusBadRequest, "validation_error", "invalid request", issues)
		return
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		Error(c, http.StatusBadRequest, "validation_error", "invalid request", []apperr.FieldIssue{{
			Field: typeErr.Field,
			Issue: "must be " + typeErr.Type.String(),
		}})
		return
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		FromError(c, err)
		return
	}
	Error(c, http.StatusBadRequest, "validation_error", "malformed request body", nil)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func issueFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "eqfield":
		return "must match " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
