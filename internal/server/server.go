package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/ph-weather/internal/config"
	"github.com/vzahanych/ph-weather/internal/lookup"
	"github.com/vzahanych/ph-weather/internal/server/handlers"
	"github.com/vzahanych/ph-weather/internal/server/middlewares"
	"github.com/vzahanych/ph-weather/internal/service"
	"github.com/vzahanych/ph-weather/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	server  *http.Server
	ctrl    *lookup.Controller
	store   *lookup.Store
	metrics *middlewares.MetricsMiddleware
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

type callRecorderSetter interface {
	SetCallRecorder(r service.CallRecorder)
}

func NewServer(cfg *config.Config, resolver service.PlaceResolver, fetcher service.WeatherFetcher, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	ctrl := lookup.NewController(resolver, fetcher, logger, tele)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	metrics := middlewares.NewMetricsMiddleware(logger, tele)

	engine.Use(middlewares.RequestIDMiddleware(logger))
	engine.Use(middlewares.LoggingMiddleware(logger, time.RFC3339, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(metrics.Handler())

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		ctrl:    ctrl,
		store:   lookup.NewStore(cfg.Server.MaxSessions),
		metrics: metrics,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes(resolver, fetcher)

	return s
}

func (s *Server) setupRoutes(upstreams ...interface{}) {
	metricsHandler := handlers.NewMetricsHandler(s.logger, s.metrics, s.store)
	s.ctrl.SetMetricsRecorder(metricsHandler)
	for _, u := range upstreams {
		if setter, ok := u.(callRecorderSetter); ok {
			setter.SetCallRecorder(metricsHandler)
		}
	}

	weather := handlers.NewWeatherHandler(s.ctrl, s.store, s.logger)
	api := s.engine.Group("/api/v1", middlewares.SessionMiddleware(s.logger))
	api.GET("/weather", weather.GetWeather)
	api.POST("/weather", weather.SearchWeather)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.cfg.Meteosource.APIKey != "")
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", metricsHandler.ServeMetrics)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
