package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) {
		if v, ok := c.Get(requestIDKey); !ok || v == "" {
			t.Fatalf("requestID not set in context")
		}
		c.String(http.StatusOK, "ok")
	})

	// No header -> generated
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated %s header", requestIDHeader)
	}

	// Lowercase header -> propagated
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req2.Header.Set(strings.ToLower(requestIDHeader), "abc-123")
	r.ServeHTTP(w2, req2)
	if got := w2.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}

	// Oversized header -> replaced
	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req3.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	r.ServeHTTP(w3, req3)
	if got := w3.Header().Get(requestIDHeader); len(got) > maxRequestIDLength || got == "" {
		t.Fatalf("oversized request id was kept: %q", got)
	}
}

func TestRecovery_PanicsToJSON500AndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(requestIDHeader, "rid-panic")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from Recovery, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-panic" {
		t.Fatalf("unexpected body: %v", body)
	}
	out := buf.String()
	if !strings.Contains(out, `"panic recovered"`) || !strings.Contains(out, `"route":"/panic"`) {
		t.Fatalf("expected scoped panic log, got:\n%s", out)
	}
}

func TestLoggerFrom_FallbackAndRequestScoped(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Without RequestID: global logger, no request fields.
	buf1 := captureLogger(t)
	r1 := gin.New()
	r1.GET("/use", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom")
		c.Status(http.StatusOK)
	})
	r1.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/use", nil))
	if !strings.Contains(buf1.String(), `"message":"custom"`) || strings.Contains(buf1.String(), `"request_id"`) {
		t.Fatalf("unexpected fallback log: %s", buf1.String())
	}

	// With RequestID: scoped logger carries request_id and route.
	buf2 := captureLogger(t)
	r2 := gin.New()
	r2.Use(RequestID())
	r2.GET("/tokens/:id", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom2")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/tokens/3", nil)
	req.Header.Set(requestIDHeader, "rid-scoped")
	r2.ServeHTTP(httptest.NewRecorder(), req)
	out := buf2.String()
	if !strings.Contains(out, `"request_id":"rid-scoped"`) || !strings.Contains(out, `"route":"/tokens/:id"`) {
		t.Fatalf("expected request-scoped fields, got: %s", out)
	}
}

func TestHelpers_asString(t *testing.T) {
	if asString("x") != "x" || asString(123) != "" || asString(nil) != "" {
		t.Fatalf("asString failed")
	}
}

func TestRecovery_PanicAfterWrite_NoJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Recovery())

	// Response already written: Recovery must not append the JSON envelope.
	r.GET("/panic-after-write", func(c *gin.Context) {
		c.String(http.StatusOK, "partial-body")
		panic("late kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-after-write", nil))

	if strings.Contains(w.Body.String(), "internal_error") || strings.Contains(strings.ToLower(w.Header().Get("Content-Type")), "application/json") {
		t.Fatalf("expected no JSON error body when panic after write; got CT=%q body=%q",
			w.Header().Get("Content-Type"), w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic log, got:\n%s", buf.String())
	}
}
