package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/ph-weather/internal/server/utils"
	"github.com/vzahanych/ph-weather/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	return engine
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := newEngine(t, RequestIDMiddleware(zaptest.NewLogger(t)))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetRequestIDFromGinContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Len(t, rec.Body.String(), 36)
}

func sessionEcho(t *testing.T) *gin.Engine {
	engine := newEngine(t, SessionMiddleware(zaptest.NewLogger(t)))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetSessionIDFromGinContext(c))
	})
	return engine
}

func TestSessionMiddleware_PrefersHeaderOverCookie(t *testing.T) {
	header := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionIDHeader, header)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: uuid.NewString()})
	rec := httptest.NewRecorder()
	sessionEcho(t).ServeHTTP(rec, req)

	assert.Equal(t, header, rec.Body.String())
}

func TestSessionMiddleware_ReplacesForeignIDs(t *testing.T) {
	for _, id := range []string{
		"s1",
		strings.Repeat("s", 65),
		"abc; Path=/; Domain=evil.example",
		"not-a-uuid-but-36-characters-long!!",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionIDHeader, id)
		rec := httptest.NewRecorder()
		sessionEcho(t).ServeHTTP(rec, req)

		issued := rec.Body.String()
		assert.NotEqual(t, id, issued)
		_, err := uuid.Parse(issued)
		assert.NoError(t, err, "issued %q for %q", issued, id)
		assert.NotContains(t, rec.Header().Get("Set-Cookie"), "evil.example")
	}
}

func TestSessionMiddleware_NormalizesUUID(t *testing.T) {
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: strings.ToUpper(id.String())})
	rec := httptest.NewRecorder()
	sessionEcho(t).ServeHTTP(rec, req)

	assert.Equal(t, id.String(), rec.Body.String())
	assert.Equal(t, id.String(), rec.Header().Get(SessionIDHeader))
}

func TestTelemetryMiddleware_TagsSession(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	logger := zaptest.NewLogger(t)
	engine := newEngine(t, RequestIDMiddleware(logger), TelemetryMiddleware(logger, telemetry.NewWithProvider(tp, "test")))
	api := engine.Group("/api", SessionMiddleware(logger))
	api.GET("/weather", func(c *gin.Context) { c.Status(http.StatusOK) })

	sessionID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	req.Header.Set(SessionIDHeader, sessionID)
	req.Header.Set(RequestIDHeader, "req-7")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/weather", spans[0].Name())

	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, sessionID, attrs["session.id"])
	assert.Equal(t, "req-7", attrs["request.id"])
	assert.Equal(t, "200", attrs["http.status_code"])
}

func TestMetricsMiddleware_Snapshot(t *testing.T) {
	metrics := NewMetricsMiddleware(zaptest.NewLogger(t), nil)
	engine := newEngine(t, metrics.Handler())
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	snap := metrics.Snapshot()
	assert.Equal(t, int64(3), snap.RequestsTotal["GET /ok_200"])
	assert.Equal(t, int64(1), snap.RequestsTotal["GET unmatched_404"])
	assert.Equal(t, int64(0), snap.ActiveRequests)
	assert.GreaterOrEqual(t, snap.AvgDuration, 0.0)
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := newEngine(t,
		RequestIDMiddleware(zaptest.NewLogger(t)),
		LoggingMiddleware(zaptest.NewLogger(t), time.RFC3339, true),
		RecoveryMiddleware(zaptest.NewLogger(t), false),
	)
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL")
}
