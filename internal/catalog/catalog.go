// Package catalog defines the lookup contracts the scheduling core consumes
// (program catalog, filler lists, custom shows, smart collections, channel lineups)
// together with a database-backed implementation and a guarded wrapper.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// ChildType selects which children of a grouping GetChildren returns
type ChildType string

// Child types
const (
	ChildPrograms  ChildType = "program"
	ChildGroupings ChildType = "grouping"
)

// PageRequest bounds a children listing. A zero Limit means no limit.
type PageRequest struct {
	Limit  int
	Offset int
}

// ChildPage is one page of a grouping's children. Only the slice matching
// the requested ChildType is populated.
type ChildPage struct {
	Programs  []*models.Program
	Groupings []*models.ProgramGrouping
	Total     int64
	Offset    int
}

// ProgramCatalog is read-only access to shows, seasons, episodes, tracks and movies
type ProgramCatalog interface {
	GetGroupingsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProgramGrouping, error)
	GetChildCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	GetChildren(ctx context.Context, id uuid.UUID, childType ChildType, page PageRequest) (*ChildPage, error)
	GetProgramsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Program, error)
	GetMediaSourcesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaSource, error)
	GetLibrariesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaLibrary, error)
}

// FillerProvider resolves filler lists
type FillerProvider interface {
	GetFillerListsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.FillerList, error)
	GetFillerListContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	GetFillerListContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error)
}

// CustomShowProvider resolves custom shows
type CustomShowProvider interface {
	GetCustomShowsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CustomShow, error)
	GetCustomShowContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	GetCustomShowContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error)
}

// SmartCollectionProvider resolves smart collections
type SmartCollectionProvider interface {
	GetSmartCollectionsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.SmartCollection, error)
	GetSmartCollectionContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error)
}

// Lineup is a channel together with its schedule definition (nil when none is configured)
type Lineup struct {
	Channel  *models.Channel
	Schedule *models.ChannelSchedule
}

// LineupProvider loads channel schedule definitions
type LineupProvider interface {
	// LoadLineup returns the channel's lineup. Schedule is nil when the channel has none.
	LoadLineup(ctx context.Context, channelID uuid.UUID) (*Lineup, error)
	// LoadAllLineupConfigs returns every channel's lineup keyed by channel id.
	// Schedules are returned without their slots.
	LoadAllLineupConfigs(ctx context.Context) (map[uuid.UUID]*Lineup, error)
}

// Catalog is everything the scheduling core reads
type Catalog interface {
	ProgramCatalog
	FillerProvider
	CustomShowProvider
	SmartCollectionProvider
	LineupProvider
}
