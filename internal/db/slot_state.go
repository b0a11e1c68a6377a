package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
	"gorm.io/gorm/clause"
)

// SlotStateRepository persists per-slot and per-schedule generation state.
// Only the generator writes through it, under the channel's generation lock.
type SlotStateRepository struct {
	db *DB
}

// NewSlotStateRepository creates a new slot state repository
func NewSlotStateRepository(db *DB) *SlotStateRepository {
	return &SlotStateRepository{db: db}
}

// GetBySchedule returns every slot state of a schedule keyed by slot id
func (r *SlotStateRepository) GetBySchedule(ctx context.Context, scheduleID uuid.UUID) (map[uuid.UUID]*models.SlotState, error) {
	var states []*models.SlotState
	result := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID.String()).Find(&states)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load slot states: %w", MapGormError(result.Error))
	}
	out := make(map[uuid.UUID]*models.SlotState, len(states))
	for _, s := range states {
		out[s.SlotID] = s
	}
	return out, nil
}

// Upsert inserts or fully overwrites the given slot states
func (r *SlotStateRepository) Upsert(ctx context.Context, states []*models.SlotState) error {
	if len(states) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, s := range states {
		s.UpdatedAt = now
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_id"}},
			UpdateAll: true,
		}).
		Create(&states)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert slot states: %w", MapGormError(result.Error))
	}
	return nil
}

// DeleteBySlotIDs resets the state of the given slots
func (r *SlotStateRepository) DeleteBySlotIDs(ctx context.Context, slotIDs []uuid.UUID) error {
	if len(slotIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Where("slot_id IN ?", idStrings(slotIDs)).Delete(&models.SlotState{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete slot states: %w", MapGormError(result.Error))
	}
	return nil
}

// SetLastScheduledAt overwrites the slot's last play time; nil clears it
func (r *SlotStateRepository) SetLastScheduledAt(ctx context.Context, slotID uuid.UUID, atMs *int64) error {
	var value interface{}
	if atMs != nil {
		value = *atMs
	}
	result := r.db.WithContext(ctx).
		Model(&models.SlotState{}).
		Where("slot_id = ?", slotID.String()).
		Updates(map[string]interface{}{
			"last_scheduled_at_ms": value,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set last scheduled time: %w", MapGormError(result.Error))
	}
	return nil
}

// GetGenerationState returns the schedule-level generation state
func (r *SlotStateRepository) GetGenerationState(ctx context.Context, scheduleID uuid.UUID) (*models.ScheduleGenerationState, error) {
	var state models.ScheduleGenerationState
	result := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID.String()).First(&state)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &state, nil
}

// UpsertGenerationState inserts or overwrites the schedule-level generation state
func (r *SlotStateRepository) UpsertGenerationState(ctx context.Context, state *models.ScheduleGenerationState) error {
	state.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}},
			UpdateAll: true,
		}).
		Create(state)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert generation state: %w", MapGormError(result.Error))
	}
	return nil
}

// SetHighWaterMark rewinds or advances the high-water mark without touching the RNG cursor
func (r *SlotStateRepository) SetHighWaterMark(ctx context.Context, scheduleID uuid.UUID, highWaterMarkMs int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.ScheduleGenerationState{}).
		Where("schedule_id = ?", scheduleID.String()).
		Updates(map[string]interface{}{
			"high_water_mark_ms": highWaterMarkMs,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set high-water mark: %w", MapGormError(result.Error))
	}
	return nil
}
