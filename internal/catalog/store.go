package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/models"
)

// ErrChannelNotFound is returned by LoadLineup for an unknown channel
var ErrChannelNotFound = errors.New("channel not found")

// Store implements Catalog on top of the local database
type Store struct {
	repos *db.Repositories
}

// NewStore creates a database-backed catalog
func NewStore(repos *db.Repositories) *Store {
	return &Store{repos: repos}
}

var _ Catalog = (*Store)(nil)

// GetGroupingsByIDs implements ProgramCatalog
func (s *Store) GetGroupingsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProgramGrouping, error) {
	return s.repos.Catalog.GetGroupingsByIDs(ctx, ids)
}

// GetChildCounts implements ProgramCatalog
func (s *Store) GetChildCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repos.Catalog.ChildCounts(ctx, ids)
}

// GetChildren implements ProgramCatalog
func (s *Store) GetChildren(ctx context.Context, id uuid.UUID, childType ChildType, page PageRequest) (*ChildPage, error) {
	switch childType {
	case ChildPrograms:
		programs, total, err := s.repos.Catalog.ChildPrograms(ctx, id, page.Limit, page.Offset)
		if err != nil {
			return nil, err
		}
		return &ChildPage{Programs: programs, Total: total, Offset: page.Offset}, nil
	case ChildGroupings:
		groupings, total, err := s.repos.Catalog.ChildGroupings(ctx, id, page.Limit, page.Offset)
		if err != nil {
			return nil, err
		}
		return &ChildPage{Groupings: groupings, Total: total, Offset: page.Offset}, nil
	default:
		return nil, fmt.Errorf("unknown child type %q", childType)
	}
}

// GetProgramsByIDs implements ProgramCatalog
func (s *Store) GetProgramsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Program, error) {
	return s.repos.Catalog.GetProgramsByIDs(ctx, ids)
}

// GetMediaSourcesByIDs implements ProgramCatalog
func (s *Store) GetMediaSourcesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaSource, error) {
	return s.repos.Catalog.GetMediaSourcesByIDs(ctx, ids)
}

// GetLibrariesByIDs implements ProgramCatalog
func (s *Store) GetLibrariesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaLibrary, error) {
	return s.repos.Catalog.GetLibrariesByIDs(ctx, ids)
}

// GetFillerListsByIDs implements FillerProvider
func (s *Store) GetFillerListsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.FillerList, error) {
	return s.repos.FillerLists.GetByIDs(ctx, ids)
}

// GetFillerListContentCounts implements FillerProvider
func (s *Store) GetFillerListContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repos.FillerLists.ContentCounts(ctx, ids)
}

// GetFillerListContents implements FillerProvider
func (s *Store) GetFillerListContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	return s.repos.FillerLists.Contents(ctx, id)
}

// GetCustomShowsByIDs implements CustomShowProvider
func (s *Store) GetCustomShowsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CustomShow, error) {
	return s.repos.CustomShows.GetByIDs(ctx, ids)
}

// GetCustomShowContentCounts implements CustomShowProvider
func (s *Store) GetCustomShowContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repos.CustomShows.ContentCounts(ctx, ids)
}

// GetCustomShowContents implements CustomShowProvider
func (s *Store) GetCustomShowContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	return s.repos.CustomShows.Contents(ctx, id)
}

// GetSmartCollectionsByIDs implements SmartCollectionProvider
func (s *Store) GetSmartCollectionsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.SmartCollection, error) {
	return s.repos.SmartCollections.GetByIDs(ctx, ids)
}

// GetSmartCollectionContents implements SmartCollectionProvider
func (s *Store) GetSmartCollectionContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	collections, err := s.repos.SmartCollections.GetByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	collection, ok := collections[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return s.repos.SmartCollections.Contents(ctx, collection)
}

// LoadLineup implements LineupProvider
func (s *Store) LoadLineup(ctx context.Context, channelID uuid.UUID) (*Lineup, error) {
	channel, err := s.repos.Channels.GetByID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}

	schedule, err := s.repos.Schedules.GetByChannelID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return &Lineup{Channel: channel}, nil
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return &Lineup{Channel: channel, Schedule: schedule}, nil
}

// LoadAllLineupConfigs implements LineupProvider
func (s *Store) LoadAllLineupConfigs(ctx context.Context) (map[uuid.UUID]*Lineup, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	schedules, err := s.repos.Schedules.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	out := make(map[uuid.UUID]*Lineup, len(channels))
	for _, ch := range channels {
		out[ch.ID] = &Lineup{Channel: ch}
	}
	for _, sched := range schedules {
		if lineup, ok := out[sched.ChannelID]; ok {
			lineup.Schedule = sched
		}
	}
	return out, nil
}
