package handlers

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/ph-weather/internal/server/middlewares"
	"go.uber.org/zap"
)

// HTTPMetricsProvider exposes the request metrics collected by middleware
type HTTPMetricsProvider interface {
	Snapshot() middlewares.HTTPSnapshot
}

// SessionCounter reports how many UI sessions are held in memory
type SessionCounter interface {
	Len() int
}

// AppMetrics holds application-level metrics (lookups, upstream calls)
type AppMetrics struct {
	mutex          sync.RWMutex
	lookupOutcomes map[string]int64
	upstreamCalls  map[string]int64
	upstreamErrors map[string]int64
}

type MetricsHandler struct {
	logger     *zap.Logger
	http       HTTPMetricsProvider
	sessions   SessionCounter
	appMetrics *AppMetrics
}

func NewMetricsHandler(logger *zap.Logger, http HTTPMetricsProvider, sessions SessionCounter) *MetricsHandler {
	return &MetricsHandler{
		logger:   logger,
		http:     http,
		sessions: sessions,
		appMetrics: &AppMetrics{
			lookupOutcomes: make(map[string]int64),
			upstreamCalls:  make(map[string]int64),
			upstreamErrors: make(map[string]int64),
		},
	}
}

// RecordLookup records the outcome of one search interaction
func (h *MetricsHandler) RecordLookup(ctx context.Context, outcome string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.lookupOutcomes[outcome]++
	h.appMetrics.mutex.Unlock()
}

// RecordUpstreamCall records a Meteosource API call
func (h *MetricsHandler) RecordUpstreamCall(ctx context.Context, endpoint string, success bool) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.upstreamCalls[endpoint]++
	if !success {
		h.appMetrics.upstreamErrors[endpoint]++
	}
	h.appMetrics.mutex.Unlock()
}

// ServeMetrics exposes metrics in Prometheus text format
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if h.http != nil {
		snap := h.http.Snapshot()

		b.WriteString("# HELP http_requests_total Total number of HTTP requests\n")
		b.WriteString("# TYPE http_requests_total counter\n")
		writeCounters(&b, "http_requests_total", "route_status", snap.RequestsTotal)

		b.WriteString("\n# HELP http_request_duration_seconds_avg Average duration of HTTP requests\n")
		b.WriteString("# TYPE http_request_duration_seconds_avg gauge\n")
		b.WriteString("http_request_duration_seconds_avg " + strconv.FormatFloat(snap.AvgDuration, 'f', 6, 64) + "\n")

		b.WriteString("\n# HELP http_active_requests Number of active HTTP requests\n")
		b.WriteString("# TYPE http_active_requests gauge\n")
		b.WriteString("http_active_requests " + strconv.FormatInt(snap.ActiveRequests, 10) + "\n")
	}

	if h.sessions != nil {
		b.WriteString("\n# HELP weather_sessions Number of UI sessions held in memory\n")
		b.WriteString("# TYPE weather_sessions gauge\n")
		b.WriteString("weather_sessions " + strconv.Itoa(h.sessions.Len()) + "\n")
	}

	h.appMetrics.mutex.RLock()
	b.WriteString("\n# HELP weather_lookups_total Search interactions by outcome\n")
	b.WriteString("# TYPE weather_lookups_total counter\n")
	writeCounters(&b, "weather_lookups_total", "outcome", h.appMetrics.lookupOutcomes)

	b.WriteString("\n# HELP meteosource_calls_total Total Meteosource API calls\n")
	b.WriteString("# TYPE meteosource_calls_total counter\n")
	writeCounters(&b, "meteosource_calls_total", "endpoint", h.appMetrics.upstreamCalls)

	b.WriteString("\n# HELP meteosource_errors_total Total failed Meteosource API calls\n")
	b.WriteString("# TYPE meteosource_errors_total counter\n")
	writeCounters(&b, "meteosource_errors_total", "endpoint", h.appMetrics.upstreamErrors)
	h.appMetrics.mutex.RUnlock()

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(200, b.String())
}

func writeCounters(b *strings.Builder, name, label string, values map[string]int64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(name + "{" + label + "=\"" + k + "\"} " + strconv.FormatInt(values[k], 10) + "\n")
	}
}
