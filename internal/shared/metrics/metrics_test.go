package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHandlerExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	IncIngest("upload", "ok")
	IncIngestState("indexed")
	IncReconciliation("delete")
	ObserveSearch("morph", "ok", 3*time.Millisecond, 7)
	ObserveHTTP("/api/v1/search", http.MethodGet, "200", time.Millisecond)

	router := gin.New()
	router.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`docsearch_ingest_total{op="upload",outcome="ok"}`,
		`docsearch_ingest_state_transitions_total{state="indexed"}`,
		`docsearch_reconciliation_errors_total{op="delete"}`,
		`docsearch_search_total{mode="morph",outcome="ok"}`,
		`http_requests_total{method="GET",route="/api/v1/search",status="200"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}
