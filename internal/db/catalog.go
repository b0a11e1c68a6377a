package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// CatalogRepository handles the locally mirrored program catalog: sources,
// libraries, groupings (shows, seasons, artists, albums) and programs
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateMediaSource inserts a media source
func (r *CatalogRepository) CreateMediaSource(ctx context.Context, source *models.MediaSource) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		return fmt.Errorf("failed to create media source: %w", MapGormError(err))
	}
	return nil
}

// CreateLibrary inserts a media library
func (r *CatalogRepository) CreateLibrary(ctx context.Context, library *models.MediaLibrary) error {
	if err := r.db.WithContext(ctx).Create(library).Error; err != nil {
		return fmt.Errorf("failed to create media library: %w", MapGormError(err))
	}
	return nil
}

// DeleteLibrary removes a media library row. Its programs are left in place.
func (r *CatalogRepository) DeleteLibrary(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.MediaLibrary{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete media library: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateGrouping inserts a program grouping
func (r *CatalogRepository) CreateGrouping(ctx context.Context, grouping *models.ProgramGrouping) error {
	if err := r.db.WithContext(ctx).Create(grouping).Error; err != nil {
		return fmt.Errorf("failed to create grouping: %w", MapGormError(err))
	}
	return nil
}

// DeleteGrouping removes a program grouping row
func (r *CatalogRepository) DeleteGrouping(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.ProgramGrouping{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete grouping: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePrograms inserts programs in one statement per batch
func (r *CatalogRepository) CreatePrograms(ctx context.Context, programs []*models.Program) error {
	if len(programs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&programs, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create programs: %w", MapGormError(err))
	}
	return nil
}

// GetMediaSourcesByIDs bulk-loads media sources
func (r *CatalogRepository) GetMediaSourcesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaSource, error) {
	out := make(map[uuid.UUID]*models.MediaSource, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.MediaSource
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get media sources: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// GetLibrariesByIDs bulk-loads media libraries
func (r *CatalogRepository) GetLibrariesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaLibrary, error) {
	out := make(map[uuid.UUID]*models.MediaLibrary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.MediaLibrary
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get media libraries: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// GetGroupingsByIDs bulk-loads groupings
func (r *CatalogRepository) GetGroupingsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProgramGrouping, error) {
	out := make(map[uuid.UUID]*models.ProgramGrouping, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.ProgramGrouping
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get groupings: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// GetProgramsByIDs bulk-loads programs
func (r *CatalogRepository) GetProgramsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Program, error) {
	out := make(map[uuid.UUID]*models.Program, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*models.Program
	if err := r.db.WithContext(ctx).Where("id IN ?", idStrings(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get programs: %w", MapGormError(err))
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

type idCount struct {
	ID    string
	Count int
}

// ChildCounts returns the number of programs below each grouping (directly or via a season)
func (r *CatalogRepository) ChildCounts(ctx context.Context, groupingIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(groupingIDs))
	if len(groupingIDs) == 0 {
		return out, nil
	}
	ids := idStrings(groupingIDs)

	for _, column := range []string{"show_id", "season_id"} {
		var counts []idCount
		result := r.db.WithContext(ctx).
			Model(&models.Program{}).
			Select(column+" AS id, COUNT(*) AS count").
			Where(column+" IN ?", ids).
			Group(column).
			Scan(&counts)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to count children: %w", MapGormError(result.Error))
		}
		for _, c := range counts {
			id, err := uuid.Parse(c.ID)
			if err != nil {
				continue
			}
			out[id] += c.Count
		}
	}
	return out, nil
}

// ChildPrograms pages through the programs below a grouping in broadcast order
// (season, then episode, then title). It also returns the total count.
func (r *CatalogRepository) ChildPrograms(ctx context.Context, groupingID uuid.UUID, limit, offset int) ([]*models.Program, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Program{}).
		Where("show_id = ? OR season_id = ?", groupingID.String(), groupingID.String())

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count child programs: %w", MapGormError(err))
	}

	var rows []*models.Program
	query := r.db.WithContext(ctx).
		Where("show_id = ? OR season_id = ?", groupingID.String(), groupingID.String()).
		Order("COALESCE(season_number, 9999999) ASC, COALESCE(episode_number, 9999999) ASC, title ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list child programs: %w", MapGormError(err))
	}
	return rows, total, nil
}

// ChildGroupings pages through the groupings directly below a grouping (seasons of a show)
func (r *CatalogRepository) ChildGroupings(ctx context.Context, groupingID uuid.UUID, limit, offset int) ([]*models.ProgramGrouping, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProgramGrouping{}).
		Where("parent_id = ?", groupingID.String()).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count child groupings: %w", MapGormError(err))
	}

	var rows []*models.ProgramGrouping
	query := r.db.WithContext(ctx).
		Where("parent_id = ?", groupingID.String()).
		Order("COALESCE(grouping_index, 9999999) ASC, title ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list child groupings: %w", MapGormError(err))
	}
	return rows, total, nil
}
