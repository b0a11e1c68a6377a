package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/lineup/internal/channel"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/timeline"
)

// Request/Response DTOs

// CreateChannelRequest represents a request to create a new channel
type CreateChannelRequest struct {
	Number    int        `json:"number" binding:"required,gte=1"`
	Name      string     `json:"name" binding:"required"`
	Icon      *string    `json:"icon,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

// UpdateChannelRequest represents a request to update channel metadata (partial update)
type UpdateChannelRequest struct {
	Number    *int       `json:"number,omitempty"`
	Name      *string    `json:"name,omitempty"`
	Icon      *string    `json:"icon,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	Icon      *string   `json:"icon,omitempty"`
	StartTime time.Time `json:"start_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChannelListResponse represents a list of channels
type ChannelListResponse struct {
	Channels []*ChannelResponse `json:"channels"`
}

// ChannelHandler handles channel-related API requests
type ChannelHandler struct {
	channelService  *channel.ChannelService
	timelineService *timeline.TimelineService
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(channelService *channel.ChannelService, timelineService *timeline.TimelineService) *ChannelHandler {
	return &ChannelHandler{
		channelService:  channelService,
		timelineService: timelineService,
	}
}

// toChannelResponse converts a channel model to API response format
func toChannelResponse(ch *models.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:        ch.ID.String(),
		Number:    ch.Number,
		Name:      ch.Name,
		Icon:      ch.Icon,
		StartTime: ch.StartTime,
		CreatedAt: ch.CreatedAt,
		UpdatedAt: ch.UpdatedAt,
	}
}

// writeChannelError maps channel service errors to responses
func writeChannelError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, channel.ErrChannelNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
		})
	case errors.Is(err, channel.ErrDuplicateChannelName):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_name",
			Message: "A channel with this name already exists",
		})
	case errors.Is(err, channel.ErrDuplicateChannelNumber):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_number",
			Message: "A channel with this number already exists",
		})
	case errors.Is(err, channel.ErrInvalidChannelNumber):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_number",
			Message: "Channel number must be at least 1",
		})
	case errors.Is(err, channel.ErrInvalidStartTime):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_start_time",
			Message: "Start time cannot be more than 1 year in the future",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   fallback,
			Message: "Channel operation failed",
		})
	}
}

// CreateChannel handles POST /api/channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	// Default start time to now
	startTime := time.Now().UTC()
	if req.StartTime != nil {
		startTime = *req.StartTime
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	newChannel, err := h.channelService.CreateChannel(ctx, req.Number, req.Name, req.Icon, startTime)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Int("number", req.Number).
			Str("name", req.Name).
			Msg("Failed to create channel")
		writeChannelError(c, err, "create_failed")
		return
	}

	c.JSON(http.StatusCreated, toChannelResponse(newChannel))
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	channels, err := h.channelService.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel list",
		})
		return
	}

	responses := make([]*ChannelResponse, len(channels))
	for i, ch := range channels {
		responses[i] = toChannelResponse(ch)
	}

	c.JSON(http.StatusOK, ChannelListResponse{
		Channels: responses,
	})
}

// GetChannel handles GET /api/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, channel.ErrChannelNotFound) {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Msg("Failed to get channel by ID")
		}
		writeChannelError(c, err, "query_failed")
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// UpdateChannel handles PUT /api/channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
	if err != nil {
		writeChannelError(c, err, "query_failed")
		return
	}

	// Apply partial updates
	if req.Number != nil {
		ch.Number = *req.Number
	}
	if req.Name != nil {
		ch.Name = *req.Name
	}
	if req.Icon != nil {
		ch.Icon = req.Icon
	}
	if req.StartTime != nil {
		ch.StartTime = *req.StartTime
	}

	if err := h.channelService.UpdateChannel(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to update channel")
		writeChannelError(c, err, "update_failed")
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// DeleteChannel handles DELETE /api/channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.channelService.DeleteChannel(ctx, id); err != nil {
		if !errors.Is(err, channel.ErrChannelNotFound) {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Msg("Failed to delete channel")
		}
		writeChannelError(c, err, "delete_failed")
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Channel deleted successfully",
	})
}

// GetCurrentProgram handles GET /api/channels/:id/current
func (h *ChannelHandler) GetCurrentProgram(c *gin.Context) {
	id, ok := channelIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	position, err := h.timelineService.GetCurrentPosition(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, channel.ErrChannelNotFound):
			writeChannelError(c, err, "query_failed")
		case errors.Is(err, generator.ErrNoSchedule):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_schedule",
				Message: "Channel has no schedule",
			})
		case errors.Is(err, generator.ErrNotInfinite):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "not_infinite",
				Message: "Channel does not run an infinite schedule",
			})
		case timeline.IsNothingScheduled(err):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "nothing_scheduled",
				Message: "Nothing is scheduled right now; the buffer may still be generating",
			})
		default:
			logger.Log.Error().
				Err(err).
				Str("channel_id", id.String()).
				Msg("Failed to get current program")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "query_failed",
				Message: "Failed to calculate current program",
			})
		}
		return
	}

	c.JSON(http.StatusOK, position)
}

// SetupChannelRoutes registers channel-related routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, channelService *channel.ChannelService, timelineService *timeline.TimelineService) {
	handler := NewChannelHandler(channelService, timelineService)

	// Channel CRUD endpoints
	apiGroup.POST("/channels", handler.CreateChannel)
	apiGroup.GET("/channels", handler.ListChannels)
	apiGroup.GET("/channels/:id", handler.GetChannel)
	apiGroup.PUT("/channels/:id", handler.UpdateChannel)
	apiGroup.DELETE("/channels/:id", handler.DeleteChannel)

	apiGroup.GET("/channels/:id/current", handler.GetCurrentProgram)
}
