package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTraceRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AttachTraceContext())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"trace_id":   c.GetString("trace_id"),
			"request_id": c.GetString("request_id"),
		})
	})
	return router
}

func TestAttachTraceContextGeneratesIDs(t *testing.T) {
	router := newTraceRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
	if w.Header().Get("X-Trace-Id") == "" {
		t.Fatalf("X-Trace-Id header not set")
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("X-Request-Id header not set")
	}
}

func TestAttachTraceContextKeepsCallerIDs(t *testing.T) {
	router := newTraceRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-42")
	req.Header.Set("X-Trace-Id", "trace-42")
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("request id: want=req-42 got=%q", got)
	}
	if got := w.Header().Get("X-Trace-Id"); got != "trace-42" {
		t.Fatalf("trace id: want=trace-42 got=%q", got)
	}
}
