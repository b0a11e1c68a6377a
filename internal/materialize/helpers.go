// Package materialize converts raw catalog rows into fully-joined program and
// grouping objects. Rows whose media source or library cannot be resolved are
// dropped with a warning; the catalog going stale under a library removal is
// routine and must not fail callers.
package materialize

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
)

// SourceLookup resolves the media sources and libraries catalog rows belong to
type SourceLookup interface {
	GetMediaSourcesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaSource, error)
	GetLibrariesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaLibrary, error)
}

// SourceRef identifies the media source a row came from
type SourceRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

// LibraryRef identifies the library a row came from
type LibraryRef struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MediaType string    `json:"media_type"`
}

// Program is a playable item joined against its source and library
type Program struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	DurationMs    int64      `json:"duration_ms"`
	ShowID        *uuid.UUID `json:"show_id,omitempty"`
	SeasonNumber  *int       `json:"season_number,omitempty"`
	EpisodeNumber *int       `json:"episode_number,omitempty"`
	Source        SourceRef  `json:"source"`
	Library       LibraryRef `json:"library"`
}

// Grouping is a show, season, artist or album joined against its source and library
type Grouping struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Index      *int       `json:"index,omitempty"`
	ChildCount int        `json:"child_count"`
	Source     SourceRef  `json:"source"`
	Library    LibraryRef `json:"library"`
}

// Helpers performs the batch joins
type Helpers struct {
	lookup SourceLookup
	log    zerolog.Logger
}

// New creates materialize helpers over the given lookup
func New(lookup SourceLookup) *Helpers {
	return &Helpers{
		lookup: lookup,
		log:    logger.Component("materialize"),
	}
}

type owners struct {
	sources   map[uuid.UUID]*models.MediaSource
	libraries map[uuid.UUID]*models.MediaLibrary
}

func (h *Helpers) loadOwners(ctx context.Context, sourceIDs, libraryIDs []uuid.UUID) (*owners, error) {
	sources, err := h.lookup.GetMediaSourcesByIDs(ctx, dedupe(sourceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load media sources: %w", err)
	}
	libraries, err := h.lookup.GetLibrariesByIDs(ctx, dedupe(libraryIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load libraries: %w", err)
	}
	return &owners{sources: sources, libraries: libraries}, nil
}

// resolve returns the source and library refs of a row, or a reason it cannot be resolved
func (o *owners) resolve(sourceID, libraryID uuid.UUID) (SourceRef, LibraryRef, string) {
	source, ok := o.sources[sourceID]
	if !ok {
		return SourceRef{}, LibraryRef{}, "media source not found"
	}
	library, ok := o.libraries[libraryID]
	if !ok {
		return SourceRef{}, LibraryRef{}, "library not found"
	}
	if library.MediaSourceID != source.ID {
		return SourceRef{}, LibraryRef{}, "library belongs to a different media source"
	}
	return SourceRef{ID: source.ID, Name: source.Name, Type: source.Type},
		LibraryRef{ID: library.ID, Name: library.Name, MediaType: library.MediaType},
		""
}

// Programs joins program rows, preserving input order and dropping unresolvable rows
func (h *Helpers) Programs(ctx context.Context, rows []*models.Program) ([]*Program, error) {
	if len(rows) == 0 {
		return []*Program{}, nil
	}

	sourceIDs := make([]uuid.UUID, 0, len(rows))
	libraryIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		sourceIDs = append(sourceIDs, row.MediaSourceID)
		libraryIDs = append(libraryIDs, row.LibraryID)
	}
	o, err := h.loadOwners(ctx, sourceIDs, libraryIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*Program, 0, len(rows))
	for _, row := range rows {
		source, library, reason := o.resolve(row.MediaSourceID, row.LibraryID)
		if reason != "" {
			h.log.Warn().
				Str("program_id", row.ID.String()).
				Str("media_source_id", row.MediaSourceID.String()).
				Str("library_id", row.LibraryID.String()).
				Str("reason", reason).
				Msg("Dropping unresolvable program")
			continue
		}
		out = append(out, &Program{
			ID:            row.ID,
			Type:          row.Type,
			Title:         row.Title,
			DurationMs:    row.DurationMs,
			ShowID:        row.ShowID,
			SeasonNumber:  row.SeasonNumber,
			EpisodeNumber: row.EpisodeNumber,
			Source:        source,
			Library:       library,
		})
	}
	return out, nil
}

// Groupings joins grouping rows, attaching child counts (missing counts are zero)
func (h *Helpers) Groupings(ctx context.Context, rows []*models.ProgramGrouping, childCounts map[uuid.UUID]int) ([]*Grouping, error) {
	if len(rows) == 0 {
		return []*Grouping{}, nil
	}

	sourceIDs := make([]uuid.UUID, 0, len(rows))
	libraryIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		sourceIDs = append(sourceIDs, row.MediaSourceID)
		libraryIDs = append(libraryIDs, row.LibraryID)
	}
	o, err := h.loadOwners(ctx, sourceIDs, libraryIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*Grouping, 0, len(rows))
	for _, row := range rows {
		source, library, reason := o.resolve(row.MediaSourceID, row.LibraryID)
		if reason != "" {
			h.log.Warn().
				Str("grouping_id", row.ID.String()).
				Str("media_source_id", row.MediaSourceID.String()).
				Str("library_id", row.LibraryID.String()).
				Str("reason", reason).
				Msg("Dropping unresolvable grouping")
			continue
		}
		out = append(out, &Grouping{
			ID:         row.ID,
			Type:       row.Type,
			Title:      row.Title,
			ParentID:   row.ParentID,
			Index:      row.Index,
			ChildCount: childCounts[row.ID],
			Source:     source,
			Library:    library,
		})
	}
	return out, nil
}

// GroupingsByID is Groupings keyed by id, for callers joining against slot references
func (h *Helpers) GroupingsByID(ctx context.Context, rows map[uuid.UUID]*models.ProgramGrouping, childCounts map[uuid.UUID]int) (map[uuid.UUID]*Grouping, error) {
	list := make([]*models.ProgramGrouping, 0, len(rows))
	for _, row := range rows {
		list = append(list, row)
	}
	groupings, err := h.Groupings(ctx, list, childCounts)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Grouping, len(groupings))
	for _, g := range groupings {
		out[g.ID] = g
	}
	return out, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
