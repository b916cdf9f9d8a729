package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
)

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRateGroupFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got string
	capture := func(c *gin.Context) { got = rateGroupFor(c) }
	r.POST("/api/v1/documents/upload", capture)
	r.PUT("/api/v1/documents/:id", capture)
	r.GET("/api/v1/documents/:id", capture)
	r.GET("/api/v1/search", capture)

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodPost, "/api/v1/documents/upload", rateGroupUpload},
		{http.MethodPut, "/api/v1/documents/abc", rateGroupUpload},
		{http.MethodGet, "/api/v1/documents/abc", rateGroupDefault},
		{http.MethodGet, "/api/v1/search", rateGroupSearch},
	}
	for _, tt := range tests {
		got = ""
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))
		if got != tt.want {
			t.Fatalf("%s %s grouped as %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestHealthzWithoutChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{Config: config.Config{}})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
