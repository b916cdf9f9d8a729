package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if ownerID := c.GetString("ownerId"); ownerID != "" {
		fields["owner_id"] = ownerID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps a domain error to its HTTP status and error code.
func FromError(c *gin.Context, err error) {
	var (
		ve *apperr.ValidationError
		xe *apperr.ExtractionError
		re *apperr.ReconciliationError
		se *apperr.StorageError
	)
	switch {
	case errors.As(err, &ve):
		details := map[string]string{"field": ve.Field, "reason": ve.Reason}
		Error(c, http.StatusBadRequest, "validation_error", ve.Error(), details)
	case errors.As(err, &xe) && xe.Kind == apperr.Timeout:
		Error(c, http.StatusGatewayTimeout, "extraction_timeout", "text extraction timed out", nil)
	case errors.As(err, &xe):
		Error(c, http.StatusUnprocessableEntity, "extraction_error", "document text could not be extracted", map[string]string{"reason": xe.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, apperr.ErrOwnerMismatch):
		Error(c, http.StatusConflict, "conflict", "document belongs to another owner", nil)
	case errors.As(err, &re):
		Error(c, http.StatusInternalServerError, "reconciliation_required", "storage and index diverged; reindex required", map[string]string{"documentId": re.DocumentID})
	case errors.Is(err, context.DeadlineExceeded):
		Error(c, http.StatusServiceUnavailable, "storage_unavailable", "request timed out", nil)
	case errors.As(err, &se) && se.Transient:
		Error(c, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable", nil)
	case apperr.IsIntegrity(err):
		Error(c, http.StatusConflict, "conflict", "request conflicts with stored data", nil)
	default:
		fields := map[string]any{"error": err.Error(), "path": c.Request.URL.Path}
		telemetry.Error("http.internal_error", fields)
		Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
