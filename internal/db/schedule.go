package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// ScheduleRepository handles database operations for schedule definitions and their slots
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a schedule row (slots are written separately)
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.ChannelSchedule) error {
	result := r.db.WithContext(ctx).Create(schedule)
	if result.Error != nil {
		return fmt.Errorf("failed to create schedule: %w", MapGormError(result.Error))
	}
	return nil
}

// Update writes every schedule-level field of an existing schedule row
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.ChannelSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Where("id = ?", schedule.ID.String()).
		Select("type", "pad_ms", "flex_preference", "time_zone_offset", "period_ms",
			"buffer_days", "buffer_threshold_days", "updated_at").
		Updates(schedule)
	if result.Error != nil {
		return fmt.Errorf("failed to update schedule: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByChannelID loads a channel's schedule with its slots ordered by slot index
func (r *ScheduleRepository) GetByChannelID(ctx context.Context, channelID uuid.UUID) (*models.ChannelSchedule, error) {
	var schedule models.ChannelSchedule
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).First(&schedule)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	if err := r.loadSlots(ctx, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetByID loads a schedule by id with its slots
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChannelSchedule, error) {
	var schedule models.ChannelSchedule
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&schedule)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	if err := r.loadSlots(ctx, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) loadSlots(ctx context.Context, schedule *models.ChannelSchedule) error {
	switch schedule.Type {
	case models.ScheduleTypeTime:
		var slots []*models.TimeSlot
		result := r.db.WithContext(ctx).
			Where("schedule_id = ?", schedule.ID.String()).
			Order("slot_index ASC").
			Find(&slots)
		if result.Error != nil {
			return fmt.Errorf("failed to load time slots: %w", MapGormError(result.Error))
		}
		schedule.TimeSlots = slots
	case models.ScheduleTypeInfinite:
		slots, err := r.InfiniteSlots(ctx, schedule.ID)
		if err != nil {
			return err
		}
		schedule.InfiniteSlots = slots
	default:
		return fmt.Errorf("unknown schedule type %q: %w", schedule.Type, ErrInvalidInput)
	}
	return nil
}

// InfiniteSlots returns the infinite slots of a schedule ordered by slot index
func (r *ScheduleRepository) InfiniteSlots(ctx context.Context, scheduleID uuid.UUID) ([]*models.InfiniteSlot, error) {
	var slots []*models.InfiniteSlot
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID.String()).
		Order("slot_index ASC").
		Find(&slots)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load infinite slots: %w", MapGormError(result.Error))
	}
	return slots, nil
}

// ReplaceTimeSlots deletes every time slot of the schedule and inserts the given ones
func (r *ScheduleRepository) ReplaceTimeSlots(ctx context.Context, scheduleID uuid.UUID, slots []*models.TimeSlot) error {
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID.String()).Delete(&models.TimeSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete time slots: %w", MapGormError(err))
	}
	if len(slots) == 0 {
		return nil
	}
	for _, slot := range slots {
		slot.ScheduleID = scheduleID
	}
	if err := r.db.WithContext(ctx).Create(&slots).Error; err != nil {
		return fmt.Errorf("failed to create time slots: %w", MapGormError(err))
	}
	return nil
}

// DeleteTimeSlots removes every time slot of a schedule
func (r *ScheduleRepository) DeleteTimeSlots(ctx context.Context, scheduleID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID.String()).Delete(&models.TimeSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete time slots: %w", MapGormError(err))
	}
	return nil
}

// CreateInfiniteSlot inserts one infinite slot
func (r *ScheduleRepository) CreateInfiniteSlot(ctx context.Context, slot *models.InfiniteSlot) error {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create infinite slot: %w", MapGormError(err))
	}
	return nil
}

// SaveInfiniteSlot overwrites every column of an existing infinite slot
func (r *ScheduleRepository) SaveInfiniteSlot(ctx context.Context, slot *models.InfiniteSlot) error {
	result := r.db.WithContext(ctx).Where("id = ?", slot.ID.String()).Select("*").Updates(slot)
	if result.Error != nil {
		return fmt.Errorf("failed to update infinite slot: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInfiniteSlots removes infinite slots by id (their slot state cascades)
func (r *ScheduleRepository) DeleteInfiniteSlots(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Delete(&models.InfiniteSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete infinite slots: %w", MapGormError(err))
	}
	return nil
}

// DeleteByChannelID removes a channel's schedule; slots, state and generated items cascade
func (r *ScheduleRepository) DeleteByChannelID(ctx context.Context, channelID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).Delete(&models.ChannelSchedule{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByType returns schedule rows (without slots) of one type
func (r *ScheduleRepository) ListByType(ctx context.Context, scheduleType models.ScheduleType) ([]*models.ChannelSchedule, error) {
	var schedules []*models.ChannelSchedule
	result := r.db.WithContext(ctx).Where("type = ?", string(scheduleType)).Find(&schedules)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", MapGormError(result.Error))
	}
	return schedules, nil
}

// ListAll returns every schedule row (without slots)
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]*models.ChannelSchedule, error) {
	var schedules []*models.ChannelSchedule
	result := r.db.WithContext(ctx).Find(&schedules)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", MapGormError(result.Error))
	}
	return schedules, nil
}
