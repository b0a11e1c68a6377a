package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// insertBatchSize bounds the number of rows per INSERT statement (sqlite variable limit)
const insertBatchSize = 200

// GeneratedItemRepository handles database operations for generated schedule items
type GeneratedItemRepository struct {
	db *DB
}

// NewGeneratedItemRepository creates a new generated item repository
func NewGeneratedItemRepository(db *DB) *GeneratedItemRepository {
	return &GeneratedItemRepository{db: db}
}

// CreateBatch inserts generated items
func (r *GeneratedItemRepository) CreateBatch(ctx context.Context, items []*models.GeneratedScheduleItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&items, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create generated items: %w", MapGormError(err))
	}
	return nil
}

// Last returns the item with the highest sequence index, or ErrNotFound
func (r *GeneratedItemRepository) Last(ctx context.Context, scheduleID uuid.UUID) (*models.GeneratedScheduleItem, error) {
	var item models.GeneratedScheduleItem
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID.String()).
		Order("sequence_index DESC").
		First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// HighWaterMark returns max(start + duration) over the schedule's items and whether any exist
func (r *GeneratedItemRepository) HighWaterMark(ctx context.Context, scheduleID uuid.UUID) (int64, bool, error) {
	last, err := r.Last(ctx, scheduleID)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read high-water mark: %w", err)
	}
	return last.EndTimeMs(), true, nil
}

// ListRange returns items overlapping [fromMs, toMs) ordered by sequence index
func (r *GeneratedItemRepository) ListRange(ctx context.Context, scheduleID uuid.UUID, fromMs, toMs int64) ([]*models.GeneratedScheduleItem, error) {
	var items []*models.GeneratedScheduleItem
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND start_time_ms < ? AND start_time_ms + duration_ms > ?", scheduleID.String(), toMs, fromMs).
		Order("sequence_index ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list generated items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// ListAll returns every item of a schedule ordered by sequence index
func (r *GeneratedItemRepository) ListAll(ctx context.Context, scheduleID uuid.UUID) ([]*models.GeneratedScheduleItem, error) {
	var items []*models.GeneratedScheduleItem
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID.String()).
		Order("sequence_index ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list generated items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// At returns the item playing at atMs, or ErrNotFound
func (r *GeneratedItemRepository) At(ctx context.Context, scheduleID uuid.UUID, atMs int64) (*models.GeneratedScheduleItem, error) {
	var item models.GeneratedScheduleItem
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND start_time_ms <= ? AND start_time_ms + duration_ms > ?", scheduleID.String(), atMs, atMs).
		Order("sequence_index DESC").
		First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// Count returns the number of items of a schedule
func (r *GeneratedItemRepository) Count(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.GeneratedScheduleItem{}).
		Where("schedule_id = ?", scheduleID.String()).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count generated items: %w", MapGormError(result.Error))
	}
	return count, nil
}

// DeleteEndingBefore prunes items that ended at or before cutoffMs
func (r *GeneratedItemRepository) DeleteEndingBefore(ctx context.Context, scheduleID uuid.UUID, cutoffMs int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND start_time_ms + duration_ms <= ?", scheduleID.String(), cutoffMs).
		Delete(&models.GeneratedScheduleItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune generated items: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// LastPlaysBySlot returns, per slot, the latest start of a program or redirect
// item starting in [fromMs, toMs). Flex items are ignored.
func (r *GeneratedItemRepository) LastPlaysBySlot(ctx context.Context, scheduleID uuid.UUID, fromMs, toMs int64) (map[uuid.UUID]int64, error) {
	var rows []struct {
		SlotID  uuid.UUID `gorm:"column:slot_id"`
		StartMs int64     `gorm:"column:start_ms"`
	}
	result := r.db.WithContext(ctx).
		Model(&models.GeneratedScheduleItem{}).
		Select("slot_id, MAX(start_time_ms) AS start_ms").
		Where("schedule_id = ? AND slot_id IS NOT NULL AND item_type <> ?", scheduleID.String(), models.GeneratedItemFlex).
		Where("start_time_ms >= ? AND start_time_ms < ?", fromMs, toMs).
		Group("slot_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read slot plays: %w", MapGormError(result.Error))
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.SlotID] = row.StartMs
	}
	return out, nil
}

// DeleteStartingFrom removes items starting at or after fromMs (schedule edits invalidate them)
func (r *GeneratedItemRepository) DeleteStartingFrom(ctx context.Context, scheduleID uuid.UUID, fromMs int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND start_time_ms >= ?", scheduleID.String(), fromMs).
		Delete(&models.GeneratedScheduleItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete generated items: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// DeleteBySchedule removes every generated item of a schedule
func (r *GeneratedItemRepository) DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID.String()).
		Delete(&models.GeneratedScheduleItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete generated items: %w", MapGormError(result.Error))
	}
	return nil
}
