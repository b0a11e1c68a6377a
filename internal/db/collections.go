package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// FillerListRepository handles database operations for filler lists
type FillerListRepository struct {
	db *DB
}

// NewFillerListRepository creates a new filler list repository
func NewFillerListRepository(db *DB) *FillerListRepository {
	return &FillerListRepository{db: db}
}

// Create inserts a filler list with its contents in list order
func (r *FillerListRepository) Create(ctx context.Context, list *models.FillerList, programIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("failed to create filler list: %w", MapGormError(err))
	}
	if len(programIDs) == 0 {
		return nil
	}
	contents := make([]*models.FillerListContent, len(programIDs))
	for i, id := range programIDs {
		contents[i] = &models.FillerListContent{FillerListID: list.ID, ProgramID: id, Index: i}
	}
	if err := r.db.WithContext(ctx).Create(&contents).Error; err != nil {
		return fmt.Errorf("failed to create filler list contents: %w", MapGormError(err))
	}
	return nil
}

// Delete removes a filler list (contents cascade)
func (r *FillerListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.FillerList{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete filler list: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIDs bulk-loads filler lists
func (r *FillerListRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.FillerList, error) {
	out := make(map[uuid.UUID]*models.FillerList, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.FillerList
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get filler lists: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ContentCounts returns the number of programs in each filler list
func (r *FillerListRepository) ContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return countGrouped(ctx, r.db, &models.FillerListContent{}, "filler_list_id", ids)
}

// Contents returns the programs of a filler list in list order
func (r *FillerListRepository) Contents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	var rows []*models.Program
	result := r.db.WithContext(ctx).
		Joins("JOIN filler_list_contents flc ON flc.program_id = programs.id").
		Where("flc.filler_list_id = ?", id.String()).
		Order("flc.content_index ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list filler list contents: %w", MapGormError(result.Error))
	}
	return rows, nil
}

// CustomShowRepository handles database operations for custom shows
type CustomShowRepository struct {
	db *DB
}

// NewCustomShowRepository creates a new custom show repository
func NewCustomShowRepository(db *DB) *CustomShowRepository {
	return &CustomShowRepository{db: db}
}

// Create inserts a custom show with its ordered contents
func (r *CustomShowRepository) Create(ctx context.Context, show *models.CustomShow, programIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Create(show).Error; err != nil {
		return fmt.Errorf("failed to create custom show: %w", MapGormError(err))
	}
	if len(programIDs) == 0 {
		return nil
	}
	contents := make([]*models.CustomShowContent, len(programIDs))
	for i, id := range programIDs {
		contents[i] = &models.CustomShowContent{CustomShowID: show.ID, ProgramID: id, Index: i}
	}
	if err := r.db.WithContext(ctx).Create(&contents).Error; err != nil {
		return fmt.Errorf("failed to create custom show contents: %w", MapGormError(err))
	}
	return nil
}

// Delete removes a custom show (contents cascade)
func (r *CustomShowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.CustomShow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete custom show: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIDs bulk-loads custom shows
func (r *CustomShowRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CustomShow, error) {
	out := make(map[uuid.UUID]*models.CustomShow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.CustomShow
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get custom shows: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ContentCounts returns the number of entries in each custom show
func (r *CustomShowRepository) ContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return countGrouped(ctx, r.db, &models.CustomShowContent{}, "custom_show_id", ids)
}

// Contents returns the programs of a custom show in show order; repeats are preserved
func (r *CustomShowRepository) Contents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	var rows []*models.Program
	result := r.db.WithContext(ctx).
		Joins("JOIN custom_show_contents csc ON csc.program_id = programs.id").
		Where("csc.custom_show_id = ?", id.String()).
		Order("csc.content_index ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list custom show contents: %w", MapGormError(result.Error))
	}
	return rows, nil
}

// SmartCollectionRepository handles database operations for smart collections
type SmartCollectionRepository struct {
	db *DB
}

// NewSmartCollectionRepository creates a new smart collection repository
func NewSmartCollectionRepository(db *DB) *SmartCollectionRepository {
	return &SmartCollectionRepository{db: db}
}

// Create inserts a smart collection
func (r *SmartCollectionRepository) Create(ctx context.Context, collection *models.SmartCollection) error {
	if err := r.db.WithContext(ctx).Create(collection).Error; err != nil {
		return fmt.Errorf("failed to create smart collection: %w", MapGormError(err))
	}
	return nil
}

// GetByIDs bulk-loads smart collections
func (r *SmartCollectionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.SmartCollection, error) {
	out := make(map[uuid.UUID]*models.SmartCollection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.SmartCollection
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get smart collections: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Contents evaluates a collection's filter against the catalog, ordered by title
func (r *SmartCollectionRepository) Contents(ctx context.Context, collection *models.SmartCollection) ([]*models.Program, error) {
	query := r.db.WithContext(ctx).Model(&models.Program{})
	if collection.LibraryID != nil {
		query = query.Where("library_id = ?", collection.LibraryID.String())
	}
	if collection.ProgramType != nil {
		query = query.Where("type = ?", *collection.ProgramType)
	}

	var rows []*models.Program
	if err := query.Order("title ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to evaluate smart collection: %w", MapGormError(err))
	}
	return rows, nil
}

// countGrouped counts rows of model grouped by column for the given ids
func countGrouped(ctx context.Context, db *DB, model interface{}, column string, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var counts []idCount
	result := db.WithContext(ctx).
		Model(model).
		Select(column+" AS id, COUNT(*) AS count").
		Where(column+" IN ?", idStrings(ids)).
		Group(column).
		Scan(&counts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to count %s: %w", column, MapGormError(result.Error))
	}
	for _, c := range counts {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			continue
		}
		out[id] = c.Count
	}
	return out, nil
}
