package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/schedule"
)

// errNoPlayableContent marks a source that resolved but holds nothing with a duration
var errNoPlayableContent = errors.New("no playable content")

// slotContent is what one slot can play during a run
type slotContent struct {
	programs []*materialize.Program
	redirect uuid.UUID
}

func (c *slotContent) isRedirect() bool {
	return c.redirect != uuid.Nil
}

// resolver loads slot contents through the catalog. Definite answers are cached
// for the run; failed lookups are not, so the next draw asks again.
type resolver struct {
	catalog catalog.Catalog
	helpers *materialize.Helpers
	cache   map[uuid.UUID]*slotContent
}

func newResolver(cat catalog.Catalog, helpers *materialize.Helpers) *resolver {
	return &resolver{
		catalog: cat,
		helpers: helpers,
		cache:   make(map[uuid.UUID]*slotContent),
	}
}

// resolve returns the playable content of slot, or an error explaining why it has none
func (r *resolver) resolve(ctx context.Context, slot schedule.Slot) (*slotContent, error) {
	if content, ok := r.cache[slot.RefID()]; ok {
		return checkPlayable(content)
	}

	content, err := r.load(ctx, slot)
	if err != nil {
		return nil, err
	}
	r.cache[slot.RefID()] = content
	return checkPlayable(content)
}

func checkPlayable(content *slotContent) (*slotContent, error) {
	if !content.isRedirect() && len(content.programs) == 0 {
		return nil, errNoPlayableContent
	}
	return content, nil
}

func (r *resolver) load(ctx context.Context, slot schedule.Slot) (*slotContent, error) {
	switch s := slot.(type) {
	case schedule.ShowSlot:
		page, err := r.catalog.GetChildren(ctx, s.ShowID, catalog.ChildPrograms, catalog.PageRequest{})
		if err != nil {
			return nil, fmt.Errorf("failed to load show episodes: %w", err)
		}
		return r.programs(ctx, page.Programs)
	case schedule.FillerSlot:
		rows, err := r.catalog.GetFillerListContents(ctx, s.FillerListID)
		if err != nil {
			return nil, fmt.Errorf("failed to load filler list: %w", err)
		}
		return r.programs(ctx, rows)
	case schedule.CustomShowSlot:
		rows, err := r.catalog.GetCustomShowContents(ctx, s.CustomShowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load custom show: %w", err)
		}
		return r.programs(ctx, rows)
	case schedule.SmartCollectionSlot:
		rows, err := r.catalog.GetSmartCollectionContents(ctx, s.CollectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load smart collection: %w", err)
		}
		return r.programs(ctx, rows)
	case schedule.RedirectSlot:
		if _, err := r.catalog.LoadLineup(ctx, s.ChannelID); err != nil {
			return nil, fmt.Errorf("failed to load redirect target: %w", err)
		}
		return &slotContent{redirect: s.ChannelID}, nil
	default:
		panic(fmt.Sprintf("generator: unhandled slot variant %T", slot))
	}
}

// programs joins rows and keeps only those with a positive duration
func (r *resolver) programs(ctx context.Context, rows []*models.Program) (*slotContent, error) {
	joined, err := r.helpers.Programs(ctx, rows)
	if err != nil {
		return nil, err
	}
	playable := joined[:0]
	for _, p := range joined {
		if p.DurationMs > 0 {
			playable = append(playable, p)
		}
	}
	return &slotContent{programs: playable}, nil
}
