package lookup

import (
	"context"
	"strings"

	"github.com/vzahanych/ph-weather/internal/service"
	"github.com/vzahanych/ph-weather/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MetricsRecorder interface for recording interaction outcomes
type MetricsRecorder interface {
	RecordLookup(ctx context.Context, outcome string)
}

type Result struct {
	State   State
	Outcome Outcome
	// Err is the failure that ended the interaction, nil when displayed.
	Err error
}

// Controller runs the validate, resolve, fetch workflow against a Session.
type Controller struct {
	resolver service.PlaceResolver
	fetcher  service.WeatherFetcher
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder
}

func NewController(resolver service.PlaceResolver, fetcher service.WeatherFetcher, logger *zap.Logger, tele *telemetry.Telemetry) *Controller {
	return &Controller{
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logger,
		tele:     tele,
	}
}

// SetMetricsRecorder sets the metrics recorder for the controller
func (c *Controller) SetMetricsRecorder(metrics MetricsRecorder) {
	c.metrics = metrics
}

// Search runs one "Get Weather" interaction for input on sess.
func (c *Controller) Search(ctx context.Context, sess *Session, input string) Result {
	tracer := c.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "lookup.Search")
	defer span.End()

	reqLogger := c.logger.With(zap.String("session_id", sess.ID()))

	city := strings.TrimSpace(input)
	span.SetAttributes(attribute.String("city", city))

	if city == "" {
		state := sess.apply(State.validationFailed)
		reqLogger.Debug("Rejected empty city")
		return c.finish(ctx, span, Result{
			State:   state,
			Outcome: OutcomeValidationFailed,
			Err:     service.NewValidationError(service.MsgEmptyCity),
		})
	}

	// The previous observation stays visible while the search is in flight.
	sess.apply(State.searching)

	reqLogger.Info("Resolving place", zap.String("city", city))

	placeID, err := c.resolver.Resolve(ctx, city)
	if err != nil {
		msg := service.UserMessage(err)
		if msg == "" {
			msg = service.MsgGeneric
		}
		state := sess.apply(func(s State) State { return s.failed(msg) })
		reqLogger.Warn("Place resolution failed",
			zap.String("city", city),
			zap.Stringer("kind", service.KindOf(err)),
			zap.Error(err))
		return c.finish(ctx, span, Result{State: state, Outcome: OutcomeResolveFailed, Err: err})
	}

	obs, err := c.fetcher.Fetch(ctx, placeID, city)
	if err != nil {
		msg := service.MsgFetchFailed
		if service.KindOf(err) != service.KindRequestFailed {
			msg = service.UserMessage(err)
			if msg == "" {
				msg = service.MsgGeneric
			}
		}
		state := sess.apply(func(s State) State { return s.failed(msg) })
		reqLogger.Warn("Weather fetch failed",
			zap.String("city", city),
			zap.String("place_id", placeID),
			zap.Stringer("kind", service.KindOf(err)),
			zap.Error(err))
		return c.finish(ctx, span, Result{State: state, Outcome: OutcomeFetchFailed, Err: err})
	}

	state := sess.apply(func(s State) State { return s.displaying(obs) })
	reqLogger.Info("Weather displayed",
		zap.String("city", city),
		zap.String("place_id", placeID),
		zap.Float64("temperature", obs.Temp),
		zap.String("condition", obs.Condition))

	return c.finish(ctx, span, Result{State: state, Outcome: OutcomeDisplayed})
}

func (c *Controller) finish(ctx context.Context, span trace.Span, res Result) Result {
	span.SetAttributes(
		attribute.String("outcome", string(res.Outcome)),
		attribute.Bool("success", res.Outcome == OutcomeDisplayed),
	)
	if res.Err != nil {
		c.tele.RecordError(ctx, res.Err, map[string]interface{}{"outcome": res.Outcome})
	}
	if c.metrics != nil {
		c.metrics.RecordLookup(ctx, string(res.Outcome))
	}
	return res
}
