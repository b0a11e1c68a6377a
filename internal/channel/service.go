// Package channel holds channel CRUD and schedule-definition editing.
package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
)

// Maximum allowed future time for channel start time (1 year)
const maxStartTimeFuture = 365 * 24 * time.Hour

// Regenerator rebuilds a channel's generated timeline in the background
type Regenerator interface {
	// Trigger queues a generation run for the channel
	Trigger(channelID uuid.UUID)
	// Cancel stops a generation run in progress for the channel
	Cancel(channelID uuid.UUID)
}

// ChannelService handles business logic for channel operations
type ChannelService struct {
	repos *db.Repositories
	regen Regenerator
}

// NewChannelService creates a new channel service instance. regen may be nil.
func NewChannelService(repos *db.Repositories, regen Regenerator) *ChannelService {
	return &ChannelService{
		repos: repos,
		regen: regen,
	}
}

// CreateChannel creates a new channel with validation
func (s *ChannelService) CreateChannel(ctx context.Context, number int, name string, icon *string, startTime time.Time) (*models.Channel, error) {
	if number < 1 {
		return nil, fmt.Errorf("failed to create channel: %w", ErrInvalidChannelNumber)
	}

	// Validate name and number uniqueness
	if err := s.validateUniqueness(ctx, number, name, uuid.Nil); err != nil {
		logger.Log.Warn().
			Int("number", number).
			Str("name", name).
			Err(err).
			Msg("Channel creation failed: not unique")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// Validate start time
	if err := s.validateStartTime(startTime); err != nil {
		logger.Log.Warn().
			Time("start_time", startTime).
			Msg("Channel creation failed: invalid start time")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	channel := models.NewChannel(number, name, startTime)
	channel.Icon = icon

	if err := s.repos.Channels.Create(ctx, channel); err != nil {
		if db.IsDuplicate(err) {
			return nil, fmt.Errorf("failed to create channel: %w", ErrDuplicateChannelNumber)
		}
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create channel in database")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channel.ID.String()).
		Int("number", channel.Number).
		Str("name", channel.Name).
		Msg("Channel created successfully")

	return channel, nil
}

// GetByID retrieves a channel by its ID
func (s *ChannelService) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	channel, err := s.repos.Channels.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to get channel by ID")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// List retrieves all channels ordered by number
func (s *ChannelService) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	logger.Log.Debug().
		Int("count", len(channels)).
		Msg("Listed channels")

	return channels, nil
}

// UpdateChannel updates an existing channel with validation
func (s *ChannelService) UpdateChannel(ctx context.Context, channel *models.Channel) error {
	existing, err := s.GetByID(ctx, channel.ID)
	if err != nil {
		return err
	}

	if channel.Number < 1 {
		return fmt.Errorf("failed to update channel: %w", ErrInvalidChannelNumber)
	}

	if existing.Number != channel.Number || !strings.EqualFold(existing.Name, channel.Name) {
		if err := s.validateUniqueness(ctx, channel.Number, channel.Name, channel.ID); err != nil {
			logger.Log.Warn().
				Str("channel_id", channel.ID.String()).
				Int("number", channel.Number).
				Str("name", channel.Name).
				Err(err).
				Msg("Channel update failed: not unique")
			return fmt.Errorf("failed to update channel: %w", err)
		}
	}

	if !existing.StartTime.Equal(channel.StartTime) {
		if err := s.validateStartTime(channel.StartTime); err != nil {
			logger.Log.Warn().
				Str("channel_id", channel.ID.String()).
				Time("start_time", channel.StartTime).
				Msg("Channel update failed: invalid start time")
			return fmt.Errorf("failed to update channel: %w", err)
		}
	}

	channel.StartTime = channel.StartTime.UTC()
	channel.CreatedAt = existing.CreatedAt

	if err := s.repos.Channels.Update(ctx, channel); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channel.ID.String()).
			Msg("Failed to update channel in database")
		return fmt.Errorf("failed to update channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channel.ID.String()).
		Str("name", channel.Name).
		Msg("Channel updated successfully")

	return nil
}

// DeleteChannel stops any generation for the channel and deletes it. The
// schedule, slot state and generated items cascade.
func (s *ChannelService) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if s.regen != nil {
		s.regen.Cancel(id)
	}

	if err := s.repos.Channels.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to delete channel from database")
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Msg("Channel deleted successfully")

	return nil
}

// validateUniqueness checks the channel number and name (case-insensitive) are unused.
// excludeID skips the channel being updated.
func (s *ChannelService) validateUniqueness(ctx context.Context, number int, name string, excludeID uuid.UUID) error {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate uniqueness: %w", err)
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))

	for _, channel := range channels {
		if channel.ID == excludeID {
			continue
		}
		if channel.Number == number {
			return ErrDuplicateChannelNumber
		}
		if strings.ToLower(strings.TrimSpace(channel.Name)) == nameLower {
			return ErrDuplicateChannelName
		}
	}

	return nil
}

// validateStartTime checks if the start time is not more than 1 year in the future
func (s *ChannelService) validateStartTime(startTime time.Time) error {
	maxAllowed := time.Now().UTC().Add(maxStartTimeFuture)
	if startTime.After(maxAllowed) {
		return ErrInvalidStartTime
	}
	return nil
}
