package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
	"golang.org/x/sync/errgroup"
)

var integrityErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lineup_materializer_integrity_errors_total",
	Help: "Materializer calls that failed on an unresolvable slot reference",
})

// Materializer resolves schedule definitions into MaterializedSchedules.
// It is read-only and holds no cache, so concurrent calls are safe.
type Materializer struct {
	catalog catalog.Catalog
	helpers *materialize.Helpers
	log     zerolog.Logger
}

// NewMaterializer creates a materializer reading from cat
func NewMaterializer(cat catalog.Catalog, helpers *materialize.Helpers) *Materializer {
	return &Materializer{
		catalog: cat,
		helpers: helpers,
		log:     logger.Component("materializer"),
	}
}

// slotDef is one slot of either schedule variant, decoded
type slotDef struct {
	index int
	slot  Slot
}

// refSet collects the distinct ids referenced per slot type
type refSet struct {
	shows       []uuid.UUID
	fillers     []uuid.UUID
	customShows []uuid.UUID
	redirects   []uuid.UUID
	collections []uuid.UUID
	seen        map[uuid.UUID]struct{}
}

func (r *refSet) add(slot Slot) {
	id := slot.RefID()
	if _, ok := r.seen[id]; ok {
		return
	}
	r.seen[id] = struct{}{}
	switch slot.(type) {
	case ShowSlot:
		r.shows = append(r.shows, id)
	case FillerSlot:
		r.fillers = append(r.fillers, id)
	case CustomShowSlot:
		r.customShows = append(r.customShows, id)
	case RedirectSlot:
		r.redirects = append(r.redirects, id)
	case SmartCollectionSlot:
		r.collections = append(r.collections, id)
	default:
		panic(fmt.Sprintf("schedule: unhandled slot variant %T", slot))
	}
}

// fetched holds the bulk lookups, one map per slot type
type fetched struct {
	shows        map[uuid.UUID]*materialize.Grouping
	fillers      map[uuid.UUID]*models.FillerList
	fillerCounts map[uuid.UUID]int
	customShows  map[uuid.UUID]*models.CustomShow
	customCounts map[uuid.UUID]int
	collections  map[uuid.UUID]*models.SmartCollection
	lineups      map[uuid.UUID]*catalog.Lineup
}

// Materialize resolves the channel's schedule. It returns (nil, nil) when the
// channel has no schedule, and a *DataIntegrityError when any slot reference
// cannot be resolved; no partial result is ever returned.
func (m *Materializer) Materialize(ctx context.Context, channelID uuid.UUID) (*MaterializedSchedule, error) {
	lineup, err := m.catalog.LoadLineup(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if lineup.Schedule == nil {
		return nil, nil
	}
	sched := lineup.Schedule

	defs, err := decodeSlots(channelID, sched)
	if err != nil {
		integrityErrors.Inc()
		return nil, err
	}

	refs := &refSet{seen: make(map[uuid.UUID]struct{})}
	for _, d := range defs {
		refs.add(d.slot)
	}

	data, err := m.fetch(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule references: %w", err)
	}

	out := &MaterializedSchedule{
		ChannelID:           channelID,
		ScheduleID:          sched.ID,
		Type:                sched.Type,
		PadMs:               sched.PadMs,
		FlexPreference:      sched.FlexPreference,
		TimeZoneOffset:      sched.TimeZoneOffset,
		PeriodMs:            sched.PeriodMs,
		BufferDays:          sched.BufferDays,
		BufferThresholdDays: sched.BufferThresholdDays,
	}

	contents := make(map[int]MaterializedContent, len(defs))
	for _, d := range defs {
		content, err := data.resolve(d.slot)
		if err != nil {
			integrityErrors.Inc()
			m.log.Error().
				Str("channel_id", channelID.String()).
				Int("slot_index", d.index).
				Str("ref_type", string(d.slot.Type())).
				Str("ref_id", d.slot.RefID().String()).
				Msg("Schedule references a missing entity")
			return nil, &DataIntegrityError{
				ChannelID: channelID,
				SlotIndex: d.index,
				RefType:   d.slot.Type(),
				RefID:     d.slot.RefID(),
			}
		}
		contents[d.index] = content
	}

	switch sched.Type {
	case models.ScheduleTypeTime:
		out.TimeSlots = make([]*MaterializedTimeSlot, 0, len(sched.TimeSlots))
		for _, s := range sched.TimeSlots {
			out.TimeSlots = append(out.TimeSlots, &MaterializedTimeSlot{
				SlotIndex:     s.SlotIndex,
				StartOffsetMs: s.StartOffsetMs,
				Order:         s.Order,
				Content:       contents[s.SlotIndex],
			})
		}
	case models.ScheduleTypeInfinite:
		out.InfiniteSlots = make([]*MaterializedInfiniteSlot, 0, len(sched.InfiniteSlots))
		for _, s := range sched.InfiniteSlots {
			out.InfiniteSlots = append(out.InfiniteSlots, &MaterializedInfiniteSlot{
				SlotIndex:     s.SlotIndex,
				Order:         s.Order,
				Weight:        s.Weight,
				CooldownMs:    s.CooldownMs,
				PadMs:         s.PadMs,
				PadToMultiple: s.PadToMultiple,
				DurationMs:    s.DurationMs,
				AnchorMode:    s.AnchorMode,
				AnchorTimeMs:  s.AnchorTimeMs,
				AnchorDays:    s.AnchorDays,
				Content:       contents[s.SlotIndex],
			})
		}
	}

	return out, nil
}

func decodeSlots(channelID uuid.UUID, sched *models.ChannelSchedule) ([]slotDef, error) {
	var defs []slotDef
	add := func(index int, slotType models.SlotType, ref models.SlotRef) error {
		slot, err := Decode(slotType, ref)
		if err != nil {
			return &DataIntegrityError{ChannelID: channelID, SlotIndex: index, RefType: slotType, Reason: err.Error()}
		}
		defs = append(defs, slotDef{index: index, slot: slot})
		return nil
	}

	switch sched.Type {
	case models.ScheduleTypeTime:
		for _, s := range sched.TimeSlots {
			if err := add(s.SlotIndex, s.SlotType, s.SlotRef); err != nil {
				return nil, err
			}
		}
	case models.ScheduleTypeInfinite:
		for _, s := range sched.InfiniteSlots {
			if err := add(s.SlotIndex, s.SlotType, s.SlotRef); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown schedule type %q", sched.Type)
	}
	return defs, nil
}

// fetch performs one bulk lookup per referenced slot type, in parallel
func (m *Materializer) fetch(ctx context.Context, refs *refSet) (*fetched, error) {
	data := &fetched{}
	g, gctx := errgroup.WithContext(ctx)

	if len(refs.shows) > 0 {
		g.Go(func() error {
			rows, err := m.catalog.GetGroupingsByIDs(gctx, refs.shows)
			if err != nil {
				return err
			}
			counts, err := m.catalog.GetChildCounts(gctx, refs.shows)
			if err != nil {
				return err
			}
			data.shows, err = m.helpers.GroupingsByID(gctx, rows, counts)
			return err
		})
	}
	if len(refs.fillers) > 0 {
		g.Go(func() error {
			var err error
			if data.fillers, err = m.catalog.GetFillerListsByIDs(gctx, refs.fillers); err != nil {
				return err
			}
			data.fillerCounts, err = m.catalog.GetFillerListContentCounts(gctx, refs.fillers)
			return err
		})
	}
	if len(refs.customShows) > 0 {
		g.Go(func() error {
			var err error
			if data.customShows, err = m.catalog.GetCustomShowsByIDs(gctx, refs.customShows); err != nil {
				return err
			}
			data.customCounts, err = m.catalog.GetCustomShowContentCounts(gctx, refs.customShows)
			return err
		})
	}
	if len(refs.collections) > 0 {
		g.Go(func() error {
			var err error
			data.collections, err = m.catalog.GetSmartCollectionsByIDs(gctx, refs.collections)
			return err
		})
	}
	// Every channel's lineup is only needed to resolve redirect targets
	if len(refs.redirects) > 0 {
		g.Go(func() error {
			var err error
			data.lineups, err = m.catalog.LoadAllLineupConfigs(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// resolve maps a slot onto its pre-fetched content; errMissingRef means the reference is dangling
func (d *fetched) resolve(slot Slot) (MaterializedContent, error) {
	switch s := slot.(type) {
	case ShowSlot:
		show, ok := d.shows[s.ShowID]
		if !ok {
			return nil, errMissingRef
		}
		return &MaterializedShow{Type: s.Type(), Show: show}, nil
	case FillerSlot:
		list, ok := d.fillers[s.FillerListID]
		if !ok {
			return nil, errMissingRef
		}
		return &MaterializedFillerList{Type: s.Type(), ID: list.ID, Name: list.Name, ContentCount: d.fillerCounts[list.ID]}, nil
	case CustomShowSlot:
		show, ok := d.customShows[s.CustomShowID]
		if !ok {
			return nil, errMissingRef
		}
		return &MaterializedCustomShow{Type: s.Type(), ID: show.ID, Name: show.Name, ContentCount: d.customCounts[show.ID]}, nil
	case RedirectSlot:
		target, ok := d.lineups[s.ChannelID]
		if !ok {
			return nil, errMissingRef
		}
		out := &MaterializedRedirect{
			Type:          s.Type(),
			ChannelID:     target.Channel.ID,
			ChannelNumber: target.Channel.Number,
			ChannelName:   target.Channel.Name,
		}
		if target.Schedule != nil {
			t := target.Schedule.Type
			out.ScheduleType = &t
		}
		return out, nil
	case SmartCollectionSlot:
		collection, ok := d.collections[s.CollectionID]
		if !ok {
			return nil, errMissingRef
		}
		return &MaterializedSmartCollection{
			Type:        s.Type(),
			ID:          collection.ID,
			Name:        collection.Name,
			LibraryID:   collection.LibraryID,
			ProgramType: collection.ProgramType,
		}, nil
	default:
		panic(fmt.Sprintf("schedule: unhandled slot variant %T", slot))
	}
}
