package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func ownerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Owner())
	router.GET("/api/v1/documents", func(c *gin.Context) {
		c.String(http.StatusOK, OwnerIDFromContext(c))
	})
	router.OPTIONS("/api/v1/documents", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestOwnerFromHeaderOrParam(t *testing.T) {
	router := ownerRouter()
	const owner = "0b1f3d4e-5a6b-4c7d-8e9f-a0b1c2d3e4f5"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-Owner-Id", owner)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != owner {
		t.Fatalf("header: got %d %q", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents?owner_id="+owner, nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Body.String() != owner {
		t.Fatalf("param: got %q", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != "" {
		t.Fatalf("anonymous: got %d %q", resp.Code, resp.Body.String())
	}
}

func TestOwnerRejectsMalformedOrConflictingIDs(t *testing.T) {
	router := ownerRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?owner_id=alice", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed owner, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents?owner_id=1c2d3e4f-6a7b-4d8e-9f0a-b1c2d3e4f5a6", nil)
	req.Header.Set("X-Owner-Id", "0b1f3d4e-5a6b-4c7d-8e9f-a0b1c2d3e4f5")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for conflicting owners, got %d", resp.Code)
	}
}

func TestOwnerAllowsOptionsWithoutIdentity(t *testing.T) {
	router := ownerRouter()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents?owner_id=bad", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}
