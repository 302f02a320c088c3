package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/ph-weather/internal/config"
	"github.com/vzahanych/ph-weather/internal/presentation"
	"github.com/vzahanych/ph-weather/internal/server/handlers"
	"github.com/vzahanych/ph-weather/internal/server/middlewares"
	"github.com/vzahanych/ph-weather/internal/service"
	"github.com/vzahanych/ph-weather/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

// fakeMeteosource serves find_places and point. Cities map to the country of
// their single candidate; summary is returned for every point request.
type fakeMeteosource struct {
	countries   map[string]string
	summary     string
	pointStatus atomic.Int32
}

func (f *fakeMeteosource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/find_places"):
		text := r.URL.Query().Get("text")
		country, ok := f.countries[text]
		if !ok {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode([]service.CandidatePlace{{PlaceID: strings.ToLower(text), Country: country}})
	case strings.HasSuffix(r.URL.Path, "/point"):
		if status := f.pointStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		_, _ = w.Write([]byte(`{"current":{"summary":"` + f.summary + `","temperature":30,"humidity":70,"wind":{"speed":3.5}}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestServer(t *testing.T, upstream *fakeMeteosource) *Server {
	t.Helper()
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	cfg := config.NewDefaultConfig()
	cfg.Meteosource.BaseURL = api.URL
	cfg.Meteosource.APIKey = "k"

	logger := zaptest.NewLogger(t)
	tele := &telemetry.Telemetry{}
	svc := service.NewMeteosourceServiceWithConfig(cfg.Meteosource, logger, tele)

	return NewServer(cfg, svc, svc, logger, tele)
}

const (
	sessionA = "7d9f4c2e-1b3a-4e5f-9a8b-0c1d2e3f4a5b"
	sessionB = "0f1e2d3c-4b5a-4968-8776-655443322110"
)

func search(t *testing.T, s *Server, sessionID, city string) handlers.SearchResponse {
	t.Helper()
	body := strings.NewReader(`{"city":` + jsonString(city) + `}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather", body)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middlewares.SessionIDHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSearch_SunnyManila(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{countries: map[string]string{"Manila": "Philippines"}, summary: "Sunny"})

	resp := search(t, s, sessionA, " Manila ")

	assert.Equal(t, "displayed", resp.Outcome)
	assert.Equal(t, sessionA, resp.SessionID)
	assert.Equal(t, presentation.IconSun, resp.View.Icon)
	assert.Equal(t, presentation.BackgroundSunny, resp.View.Background)
	require.NotNil(t, resp.View.Observation)
	assert.Equal(t, presentation.ObservationView{
		Name:        "Manila",
		Temperature: "30 °C",
		Condition:   "Sunny",
		Humidity:    "70 %",
		WindSpeed:   "3.50 m/s",
	}, *resp.View.Observation)
}

func TestSearch_RainyShowers(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{countries: map[string]string{"Manila": "Philippines"}, summary: "Light Rain Showers"})

	resp := search(t, s, sessionA, "Manila")

	assert.Equal(t, presentation.IconRain, resp.View.Icon)
	assert.Equal(t, presentation.BackgroundRainy, resp.View.Background)
}

func TestSearch_StaleObservationSurvivesFailures(t *testing.T) {
	upstream := &fakeMeteosource{
		countries: map[string]string{"Manila": "Philippines", "Tokyo": "Japan"},
		summary:   "Sunny",
	}
	s := newTestServer(t, upstream)

	search(t, s, sessionA, "Manila")

	resp := search(t, s, sessionA, "Tokyo")
	assert.Equal(t, "resolve_failed", resp.Outcome)
	assert.Equal(t, service.MsgPlaceNotFound, resp.View.Error)
	require.NotNil(t, resp.View.Observation)
	assert.Equal(t, "Manila", resp.View.Observation.Name)

	upstream.pointStatus.Store(http.StatusInternalServerError)
	resp = search(t, s, sessionA, "Manila")
	assert.Equal(t, "fetch_failed", resp.Outcome)
	assert.Equal(t, service.MsgFetchFailed, resp.View.Error)
	require.NotNil(t, resp.View.Observation)

	resp = search(t, s, sessionA, "   ")
	assert.Equal(t, "validation_failed", resp.Outcome)
	assert.Equal(t, service.MsgEmptyCity, resp.View.Error)
	assert.Nil(t, resp.View.Observation)
}

func TestSearch_SessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{countries: map[string]string{"Manila": "Philippines"}, summary: "Sunny"})

	search(t, s, sessionA, "Manila")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil)
	req.Header.Set(middlewares.SessionIDHeader, sessionB)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp handlers.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.View.Observation)
	assert.Equal(t, presentation.PlaceholderMessage, resp.View.Placeholder)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: sessionA})
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.View.Observation)
	assert.Equal(t, "Manila", resp.View.Observation.Name)
}

func TestSearch_IssuesSessionCookie(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := rec.Header().Get(middlewares.SessionIDHeader)
	assert.Len(t, sessionID, 36)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewares.SessionCookie, cookies[0].Name)
	assert.Equal(t, sessionID, cookies[0].Value)
}

func TestSearch_FormBody(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{countries: map[string]string{"Cebu": "Philippines"}, summary: "Clear"})

	form := url.Values{"city": {"Cebu"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, presentation.BackgroundSunny, resp.View.Background)
}

func TestSearch_RejectsOversizedCity(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{})

	body := `{"city":"` + strings.Repeat("a", 201) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMS")
}

func TestMetrics_ReportsLookupsAndUpstreamCalls(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{countries: map[string]string{"Manila": "Philippines"}, summary: "Sunny"})

	search(t, s, sessionA, "Manila")
	search(t, s, sessionA, "Nowhere")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `weather_lookups_total{outcome="displayed"} 1`)
	assert.Contains(t, body, `weather_lookups_total{outcome="resolve_failed"} 1`)
	assert.Contains(t, body, `meteosource_calls_total{endpoint="find_places"} 2`)
	assert.Contains(t, body, `meteosource_calls_total{endpoint="point"} 1`)
	assert.Contains(t, body, "weather_sessions 1")
	assert.Contains(t, body, `http_requests_total{route_status="POST /api/v1/weather_200"} 2`)
}

func TestHealth_ReadinessNeedsAPIKey(t *testing.T) {
	s := newTestServer(t, &fakeMeteosource{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cfg := config.NewDefaultConfig()
	logger := zaptest.NewLogger(t)
	svc := service.NewMeteosourceServiceWithConfig(cfg.Meteosource, logger, nil)
	noKey := NewServer(cfg, svc, svc, logger, nil)

	rec = httptest.NewRecorder()
	noKey.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	noKey.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
