package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/ph-weather/internal/lookup"
	"github.com/vzahanych/ph-weather/internal/presentation"
	"github.com/vzahanych/ph-weather/internal/server/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type WeatherHandler struct {
	controller *lookup.Controller
	store      *lookup.Store
	logger     *zap.Logger
}

func NewWeatherHandler(ctrl *lookup.Controller, store *lookup.Store, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		controller: ctrl,
		store:      store,
		logger:     logger,
	}
}

// GetWeather returns the current view of the caller's session without
// starting a search.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	sessionID := utils.GetSessionIDFromGinContext(c)

	state := lookup.State{}
	if sess, ok := h.store.Peek(sessionID); ok {
		state = sess.State()
	}

	c.JSON(http.StatusOK, SearchResponse{
		SessionID: sessionID,
		View:      presentation.Derive(state),
	})
}

func (h *WeatherHandler) SearchWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	requestID := utils.GetRequestIDFromGinContext(c)
	sessionID := utils.GetSessionIDFromGinContext(c)

	// Create logger with request ID for this request
	reqLogger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("session_id", sessionID))

	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		reqLogger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}

	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		reqLogger.Warn("Request validation failed", zap.Int("violations", len(verrs)))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: verrs,
		})
		return
	}

	sess := h.store.Get(sessionID)

	// In-flight lookups are not cancelled when the client goes away.
	res := h.controller.Search(context.WithoutCancel(ctx), sess, req.City)

	utils.GetSpanFromGinContext(c).SetAttributes(
		attribute.String("lookup.outcome", string(res.Outcome)),
		attribute.String("lookup.city", req.City),
	)

	reqLogger.Info("Weather search completed",
		zap.String("outcome", string(res.Outcome)))

	c.JSON(http.StatusOK, SearchResponse{
		SessionID: sessionID,
		Outcome:   string(res.Outcome),
		View:      presentation.Derive(res.State),
	})
}
