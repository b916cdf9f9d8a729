package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jirafa27/DocumentSearcher/internal/shared/server/respond"
)

const (
	ownerIDKey    = "ownerId"
	ownerIDHeader = "X-Owner-Id"
	ownerIDParam  = "owner_id"
)

// Owner resolves the caller's owner id from the X-Owner-Id header or the
// owner_id query parameter and stores it in context. Requests without one
// pass through; a malformed id is rejected.
func Owner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader(ownerIDHeader))
		param := strings.TrimSpace(c.Query(ownerIDParam))
		ownerID := header
		if ownerID == "" {
			ownerID = param
		}
		if ownerID == "" {
			c.Next()
			return
		}

		parsed, err := uuid.Parse(ownerID)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "owner_id must be a UUID",
				map[string]string{"field": ownerIDParam, "reason": "must be a UUID"})
			return
		}
		if header != "" && param != "" && !strings.EqualFold(header, param) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "X-Owner-Id and owner_id disagree",
				map[string]string{"field": ownerIDParam, "reason": "conflicts with X-Owner-Id"})
			return
		}

		c.Set(ownerIDKey, parsed.String())
		c.Next()
	}
}

// OwnerIDFromContext fetches the owner id set by the Owner middleware.
func OwnerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(ownerIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
