package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMetricsAndLogging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	metrics := NewMetrics("userapi_test")

	r := gin.New()
	r.Use(LoggingMiddleware(logger), metrics.Middleware())
	r.GET("/api/users/:login", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", metrics.Handler())

	for _, login := range []string{"alice", "bob"} {
		req, _ := http.NewRequest(http.MethodGet, "/api/users/"+login, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}

	want := `userapi_test_http_requests_total{method="GET",route="/api/users/:login",status="204"} 2`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("metrics output missing %q", want)
	}
	if !strings.Contains(logs.String(), `"path":"/api/users/alice"`) {
		t.Errorf("request log missing path; got %s", logs.String())
	}
}
