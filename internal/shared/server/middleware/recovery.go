package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jirafa27/DocumentSearcher/internal/shared/server/respond"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 internal_error response. If the
// handler already started writing, the connection is left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if ownerID := OwnerIDFromContext(c); ownerID != "" {
				fields["owner_id"] = ownerID
			}
			if docID := c.GetString("documentId"); docID != "" {
				fields["document_id"] = docID
			}
			telemetry.Error("http.panic", fields)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.FromError(c, fmt.Errorf("panic: %v", rec))
		}()
		c.Next()
	}
}
