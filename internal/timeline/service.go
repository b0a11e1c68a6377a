package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/channel"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
)

// ItemReader reads a channel's generated items overlapping [fromMs, toMs)
type ItemReader interface {
	Items(ctx context.Context, channelID uuid.UUID, fromMs, toMs int64) ([]*models.GeneratedScheduleItem, error)
}

// TimelineService handles business logic for timeline calculation operations
//
//nolint:revive // Service name matches established patterns in codebase
type TimelineService struct {
	items   ItemReader
	catalog catalog.ProgramCatalog
	now     func() time.Time
}

// NewTimelineService creates a new timeline service instance
func NewTimelineService(items ItemReader, programs catalog.ProgramCatalog) *TimelineService {
	return &TimelineService{
		items:   items,
		catalog: programs,
		now:     time.Now,
	}
}

// GetCurrentPosition returns what is on air on the channel right now.
//
// Returns:
//   - TimelinePosition: The current playback position with Title resolved for programs
//   - error: channel.ErrChannelNotFound, generator.ErrNoSchedule, generator.ErrNotInfinite,
//     ErrNothingScheduled, or wrapped database errors
func (s *TimelineService) GetCurrentPosition(ctx context.Context, channelID uuid.UUID) (*TimelinePosition, error) {
	currentTime := s.now().UTC()
	nowMs := currentTime.UnixMilli()

	items, err := s.items.Items(ctx, channelID, nowMs, nowMs+1)
	if err != nil {
		if errors.Is(err, catalog.ErrChannelNotFound) {
			return nil, channel.ErrChannelNotFound
		}
		return nil, err
	}

	position, err := CalculatePosition(currentTime, items)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Time("at", currentTime).
			Msg("Timeline calculation failed")
		return nil, err
	}

	if position.ProgramID != nil {
		programs, err := s.catalog.GetProgramsByIDs(ctx, []uuid.UUID{*position.ProgramID})
		if err != nil {
			return nil, fmt.Errorf("failed to load program: %w", err)
		}
		if p, ok := programs[*position.ProgramID]; ok {
			position.Title = p.Title
		}
	}

	logger.Log.Debug().
		Str("channel_id", channelID.String()).
		Str("item_id", position.ItemID.String()).
		Str("item_type", string(position.ItemType)).
		Int64("offset_ms", position.OffsetMs).
		Msg("Timeline calculation successful")

	return position, nil
}
