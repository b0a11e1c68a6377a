package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/channel"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/schedule"
)

const (
	// Generation can span many batches; it gets a longer budget than plain queries
	generateTimeout = 2 * time.Minute

	defaultItemsWindow = 24 * time.Hour
)

// ScheduleRequest is the body of PUT /api/channels/:id/schedule
type ScheduleRequest struct {
	Type                models.ScheduleType    `json:"type" binding:"required,oneof=time infinite"`
	PadMs               int64                  `json:"pad_ms"`
	FlexPreference      models.FlexPreference  `json:"flex_preference"`
	TimeZoneOffset      int                    `json:"time_zone_offset"`
	PeriodMs            int64                  `json:"period_ms"`
	BufferDays          int                    `json:"buffer_days"`
	BufferThresholdDays int                    `json:"buffer_threshold_days"`
	TimeSlots           []*models.TimeSlot     `json:"time_slots"`
	InfiniteSlots       []*models.InfiniteSlot `json:"infinite_slots"`
}

func (r *ScheduleRequest) toModel() *models.ChannelSchedule {
	return &models.ChannelSchedule{
		Type:                r.Type,
		PadMs:               r.PadMs,
		FlexPreference:      r.FlexPreference,
		TimeZoneOffset:      r.TimeZoneOffset,
		PeriodMs:            r.PeriodMs,
		BufferDays:          r.BufferDays,
		BufferThresholdDays: r.BufferThresholdDays,
		TimeSlots:           r.TimeSlots,
		InfiniteSlots:       r.InfiniteSlots,
	}
}

// ItemsResponse lists generated items of a channel
type ItemsResponse struct {
	FromMs int64                           `json:"from_ms"`
	ToMs   int64                           `json:"to_ms"`
	Items  []*models.GeneratedScheduleItem `json:"items"`
}

// ScheduleHandler handles schedule definition, materialization and generation requests
type ScheduleHandler struct {
	scheduleService *channel.ScheduleService
	materializer    *schedule.Materializer
	generator       *generator.Generator
}

// NewScheduleHandler creates a new schedule handler instance
func NewScheduleHandler(scheduleService *channel.ScheduleService, materializer *schedule.Materializer, gen *generator.Generator) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		materializer:    materializer,
		generator:       gen,
	}
}

// writeScheduleError maps schedule and generation errors to responses
func writeScheduleError(c *gin.Context, err error, fallback string) {
	var integrity *schedule.DataIntegrityError
	switch {
	case errors.Is(err, channel.ErrChannelNotFound), errors.Is(err, catalog.ErrChannelNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
		})
	case errors.Is(err, channel.ErrScheduleNotFound), errors.Is(err, generator.ErrNoSchedule):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_schedule",
			Message: "Channel has no schedule",
		})
	case errors.Is(err, channel.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_schedule",
			Message: err.Error(),
		})
	case errors.Is(err, generator.ErrNotInfinite):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_infinite",
			Message: "Channel does not run an infinite schedule",
		})
	case errors.As(err, &integrity):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "schedule_broken",
			Message: integrity.Error(),
		})
	case catalog.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "catalog_unavailable",
			Message: "Content catalog is unavailable, try again later",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   fallback,
			Message: "Schedule operation failed",
		})
	}
}

// GetSchedule handles GET /api/channels/:id/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sched, err := h.scheduleService.GetSchedule(ctx, id)
	if err != nil {
		writeScheduleError(c, err, "query_failed")
		return
	}

	c.JSON(http.StatusOK, sched)
}

// PutSchedule handles PUT /api/channels/:id/schedule
func (h *ScheduleHandler) PutSchedule(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var (
		sched *models.ChannelSchedule
		err   error
	)
	if req.Type == models.ScheduleTypeInfinite {
		sched, err = h.scheduleService.SetInfiniteSchedule(ctx, id, req.toModel())
	} else {
		sched, err = h.scheduleService.SetTimeSchedule(ctx, id, req.toModel())
	}
	if err != nil {
		if !errors.Is(err, channel.ErrInvalidSchedule) && !errors.Is(err, channel.ErrChannelNotFound) {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Msg("Failed to save schedule")
		}
		writeScheduleError(c, err, "update_failed")
		return
	}

	c.JSON(http.StatusOK, sched)
}

// DeleteSchedule handles DELETE /api/channels/:id/schedule
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.scheduleService.DeleteSchedule(ctx, id); err != nil {
		writeScheduleError(c, err, "delete_failed")
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Schedule deleted successfully",
	})
}

// GetMaterialized handles GET /api/channels/:id/schedule/materialized
func (h *ScheduleHandler) GetMaterialized(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	materialized, err := h.materializer.Materialize(ctx, id)
	if err != nil {
		if !schedule.IsDataIntegrity(err) {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Msg("Failed to materialize schedule")
		}
		writeScheduleError(c, err, "query_failed")
		return
	}
	if materialized == nil {
		writeScheduleError(c, channel.ErrScheduleNotFound, "query_failed")
		return
	}

	c.JSON(http.StatusOK, materialized)
}

// Generate handles POST /api/channels/:id/schedule/generate
func (h *ScheduleHandler) Generate(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), generateTimeout)
	defer cancel()

	result, err := h.generator.GenerateBuffer(ctx, id)
	if err != nil {
		if generator.IsTransactionFailure(err) {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Msg("Generation batch rolled back")
		}
		writeScheduleError(c, err, "generate_failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListItems handles GET /api/channels/:id/schedule/items?from=&to=
// from and to are unix milliseconds; they default to now and now+24h.
func (h *ScheduleHandler) ListItems(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	now := time.Now().UnixMilli()
	fromMs, ok := msQuery(c, "from", now)
	if !ok {
		return
	}
	toMs, ok := msQuery(c, "to", fromMs+defaultItemsWindow.Milliseconds())
	if !ok {
		return
	}
	if toMs <= fromMs {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_range",
			Message: "to must be after from",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.generator.Items(ctx, id, fromMs, toMs)
	if err != nil {
		writeScheduleError(c, err, "query_failed")
		return
	}

	c.JSON(http.StatusOK, ItemsResponse{
		FromMs: fromMs,
		ToMs:   toMs,
		Items:  items,
	})
}

func msQuery(c *gin.Context, key string, fallback int64) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_range",
			Message: key + " must be unix milliseconds",
		})
		return 0, false
	}
	return v, true
}

// SetupScheduleRoutes registers schedule routes under a channel
func SetupScheduleRoutes(apiGroup *gin.RouterGroup, scheduleService *channel.ScheduleService, materializer *schedule.Materializer, gen *generator.Generator) {
	handler := NewScheduleHandler(scheduleService, materializer, gen)

	apiGroup.GET("/channels/:id/schedule", handler.GetSchedule)
	apiGroup.PUT("/channels/:id/schedule", handler.PutSchedule)
	apiGroup.DELETE("/channels/:id/schedule", handler.DeleteSchedule)

	apiGroup.GET("/channels/:id/schedule/materialized", handler.GetMaterialized)
	apiGroup.POST("/channels/:id/schedule/generate", handler.Generate)
	apiGroup.GET("/channels/:id/schedule/items", handler.ListItems)
}
