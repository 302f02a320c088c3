package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/ph-weather/internal/config"
	"github.com/vzahanych/ph-weather/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// TargetCountry is compared against the lower-cased country of each
// place-search candidate.
const TargetCountry = "philippines"

// CallRecorder receives one event per upstream request.
type CallRecorder interface {
	RecordUpstreamCall(ctx context.Context, endpoint string, success bool)
}

// MeteosourceService implements both PlaceResolver and WeatherFetcher
// against the Meteosource point API.
type MeteosourceService struct {
	baseURL  string
	apiKey   string
	units    string
	language string
	client   *http.Client
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  CallRecorder
}

type pointResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature"`
		Summary     string  `json:"summary"`
		Humidity    float64 `json:"humidity"`
		Wind        *struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"current"`
}

func NewMeteosourceServiceWithConfig(cfg config.MeteosourceConfig, logger *zap.Logger, tele *telemetry.Telemetry) *MeteosourceService {
	return &MeteosourceService{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		units:    cfg.Units,
		language: cfg.Language,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger,
		tele:   tele,
	}
}

// WithHTTPClient replaces the underlying client, e.g. to inject a transport.
func (s *MeteosourceService) WithHTTPClient(c *http.Client) *MeteosourceService {
	s.client = c
	return s
}

func (s *MeteosourceService) SetCallRecorder(r CallRecorder) {
	s.metrics = r
}

// Name identifies the provider in span names and logs.
func (s *MeteosourceService) Name() string {
	return "meteosource"
}

func (s *MeteosourceService) Resolve(ctx context.Context, cityName string) (string, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, s.Name()+".Resolve")
	defer span.End()

	span.SetAttributes(attribute.String("city", cityName))

	q := url.Values{}
	q.Set("text", cityName)
	q.Set("key", s.apiKey)

	resp, err := s.get(ctx, "find_places", q)
	if err != nil {
		s.fail(ctx, "find_places", err)
		return "", newUnexpectedError(StageResolve, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := newRequestFailedError(StageResolve, MsgFindFailed, resp.StatusCode)
		s.fail(ctx, "find_places", rerr)
		return "", rerr
	}

	var places []CandidatePlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		s.fail(ctx, "find_places", err)
		return "", newUnexpectedError(StageResolve, fmt.Errorf("decoding places: %w", err))
	}
	s.record(ctx, "find_places", true)

	span.SetAttributes(attribute.Int("candidates", len(places)))

	for _, place := range places {
		if strings.ToLower(place.Country) == TargetCountry {
			s.logger.Debug("Resolved place",
				zap.String("city", cityName),
				zap.String("place_id", place.PlaceID),
				zap.Int("candidates", len(places)))
			span.SetAttributes(attribute.String("place_id", place.PlaceID))
			return place.PlaceID, nil
		}
	}

	s.logger.Info("No candidate in target country",
		zap.String("city", cityName),
		zap.Int("candidates", len(places)))
	span.SetAttributes(attribute.Bool("found", false))
	return "", newNotFoundError(StageResolve, MsgPlaceNotFound)
}

func (s *MeteosourceService) Fetch(ctx context.Context, placeID, displayName string) (*Observation, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, s.Name()+".Fetch")
	defer span.End()

	span.SetAttributes(attribute.String("place_id", placeID))

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("key", s.apiKey)
	q.Set("units", s.units)
	q.Set("language", s.language)

	resp, err := s.get(ctx, "point", q)
	if err != nil {
		s.fail(ctx, "point", err)
		return nil, newUnexpectedError(StageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := newRequestFailedError(StageFetch, "weather request failed", resp.StatusCode)
		s.fail(ctx, "point", rerr)
		return nil, rerr
	}

	var point pointResponse
	if err := json.NewDecoder(resp.Body).Decode(&point); err != nil {
		s.fail(ctx, "point", err)
		return nil, newUnexpectedError(StageFetch, fmt.Errorf("decoding point: %w", err))
	}
	if point.Current == nil || point.Current.Wind == nil {
		err := errors.New(MsgMalformed)
		s.fail(ctx, "point", err)
		return nil, newUnexpectedError(StageFetch, err)
	}
	s.record(ctx, "point", true)

	obs := &Observation{
		Name:      displayName,
		Temp:      point.Current.Temperature,
		Condition: point.Current.Summary,
		Humidity:  point.Current.Humidity,
		Wind:      point.Current.Wind.Speed,
	}

	span.SetAttributes(
		attribute.Float64("temperature", obs.Temp),
		attribute.String("summary", obs.Condition),
	)

	return obs, nil
}

func (s *MeteosourceService) get(ctx context.Context, endpoint string, q url.Values) (*http.Response, error) {
	u, err := url.Parse(fmt.Sprintf("%s/%s", s.baseURL, endpoint))
	if err != nil {
		return nil, err
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactKey(uerr.URL)
		}
		return nil, err
	}
	return resp, nil
}

// redactKey masks the key query parameter of raw.
func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (s *MeteosourceService) fail(ctx context.Context, endpoint string, err error) {
	s.record(ctx, endpoint, false)

	s.logger.Warn("Upstream request failed",
		zap.String("service", s.Name()),
		zap.String("endpoint", endpoint),
		zap.String("error", safeMessage(err)))
	s.tele.RecordError(ctx, err, map[string]interface{}{"endpoint": endpoint})
}

func (s *MeteosourceService) record(ctx context.Context, endpoint string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordUpstreamCall(ctx, endpoint, success)
	}
}

var (
	_ PlaceResolver  = (*MeteosourceService)(nil)
	_ WeatherFetcher = (*MeteosourceService)(nil)
)
