package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDPropagatesOrReplaces(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "propagated", incoming: "req-123", keep: true},
		{name: "missing", incoming: "", keep: false},
		{name: "too long", incoming: strings.Repeat("a", 129), keep: false},
		{name: "non printable", incoming: "bad\x01id", keep: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-Id", tt.incoming)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			got := resp.Header().Get("X-Request-Id")
			if got != resp.Body.String() {
				t.Fatalf("header %q and context %q differ", got, resp.Body.String())
			}
			if tt.keep {
				if got != tt.incoming {
					t.Fatalf("expected %q to be kept, got %q", tt.incoming, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q", got)
			}
		})
	}
}
