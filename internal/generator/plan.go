package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/schedule"
)

var errMissingRedirectDuration = errors.New("redirect slot has no duration")

// slotRun is one infinite slot during a run. state is the working copy; it is
// only persisted once the batch that touched it commits.
type slotRun struct {
	def     *models.InfiniteSlot
	slot    schedule.Slot
	state   *models.SlotState
	touched bool
}

func (s *slotRun) lastScheduledAt() *int64 {
	if s.state == nil {
		return nil
	}
	return s.state.LastScheduledAtMs
}

// coolingDown reports whether the slot may not be drawn at t
func (s *slotRun) coolingDown(t int64) bool {
	last := s.lastScheduledAt()
	return last != nil && t < *last+s.def.CooldownMs
}

// planner extends a schedule's timeline one item at a time. It never touches
// the database; content lookups go through the resolver.
type planner struct {
	channelID   uuid.UUID
	sched       *models.ChannelSchedule
	slots       []*slotRun
	rng         *Rand
	resolver    *resolver
	clock       anchorClock
	windowStart int64
	cursor      int64
	nextSeq     int64

	fallbackListID *uuid.UUID
	offlineMs      int64
	minOfflineMs   int64

	skipped map[occurrence]bool
	warned  map[int]bool
	log     zerolog.Logger
}

// occurrence identifies one airing of an anchored slot
type occurrence struct {
	slotIndex int
	atMs      int64
}

// proposal is a placement computed on cloned state; applying it makes it real
type proposal struct {
	slot   *slotRun
	state  *models.SlotState
	items  []*models.GeneratedScheduleItem
	length int64
}

// newSlotRuns decodes the schedule's slots and pairs them with their stored state.
// Slots whose reference cannot be decoded are left out of the run.
func newSlotRuns(sched *models.ChannelSchedule, states map[uuid.UUID]*models.SlotState, log zerolog.Logger) []*slotRun {
	runs := make([]*slotRun, 0, len(sched.InfiniteSlots))
	for _, def := range sched.InfiniteSlots {
		slot, err := schedule.Decode(def.SlotType, def.SlotRef)
		if err != nil {
			recordFailure(FailureResolution)
			log.Warn().
				Err(err).
				Int("slot_index", def.SlotIndex).
				Str("failure_kind", string(FailureResolution)).
				Msg("Skipping slot with invalid reference")
			continue
		}
		run := &slotRun{def: def, slot: slot}
		if st, ok := states[def.ID]; ok {
			run.state = st.Clone()
		}
		runs = append(runs, run)
	}
	return runs
}

// fill plans items until the cursor reaches until. Only context cancellation
// stops it early; every other problem degrades to skipped slots or fallback.
func (p *planner) fill(ctx context.Context, until int64) ([]*models.GeneratedScheduleItem, error) {
	var out []*models.GeneratedScheduleItem
	for p.cursor < until {
		items, err := p.step(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (p *planner) step(ctx context.Context) ([]*models.GeneratedScheduleItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := p.cursor

	for _, a := range p.pendingAnchors(t) {
		content, err := p.resolve(ctx, a.slot)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Only this airing is lost; the next occurrence asks the catalog again
			p.skipped[occurrence{a.slot.def.SlotIndex, a.at}] = true
			continue
		}
		return p.apply(p.propose(a.slot, content, t)), nil
	}

	var (
		candidates []*slotRun
		contents   []*slotContent
		weights    []float64
	)
	for _, s := range p.slots {
		if s.def.AnchorMode.IsAnchored() || s.coolingDown(t) {
			continue
		}
		content, err := p.resolve(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		candidates = append(candidates, s)
		contents = append(contents, content)
		weights = append(weights, s.def.Weight)
	}
	if len(candidates) == 0 {
		return p.fallback(ctx, t)
	}

	mark := *p.rng
	i := pickWeighted(p.rng, weights)
	prop := p.propose(candidates[i], contents[i], t)

	// A fixed anchor must start on time: drop the proposal and hold the gap with flex
	if n, ok := p.nextFixedAnchor(t); ok && t+prop.length > n {
		*p.rng = mark
		return p.place(p.flex(t, n-t, nil)), nil
	}
	return p.apply(prop), nil
}

// resolve returns the slot's playable content, logging the first failure per run
func (p *planner) resolve(ctx context.Context, s *slotRun) (*slotContent, error) {
	content, err := p.resolver.resolve(ctx, s.slot)
	if err == nil && content.isRedirect() && (s.def.DurationMs == nil || *s.def.DurationMs <= 0) {
		err = errMissingRedirectDuration
	}
	if err != nil && ctx.Err() == nil && !p.warned[s.def.SlotIndex] {
		p.warned[s.def.SlotIndex] = true
		recordFailure(FailureResolution)
		p.log.Warn().
			Err(err).
			Int("slot_index", s.def.SlotIndex).
			Str("ref_id", s.slot.RefID().String()).
			Str("failure_kind", string(FailureResolution)).
			Msg("Slot content unresolvable, skipping")
	}
	return content, err
}

// pendingAnchor is an anchored slot owed an airing at its occurrence at
type pendingAnchor struct {
	slot *slotRun
	at   int64
}

// pendingAnchors returns anchored slots whose latest occurrence at or before t
// has not been played or skipped yet, earliest first
func (p *planner) pendingAnchors(t int64) []pendingAnchor {
	var found []pendingAnchor
	for _, s := range p.slots {
		if !s.def.AnchorMode.IsAnchored() {
			continue
		}
		a, ok := p.clock.lastOccurrence(s.def, t)
		if !ok || a < p.windowStart || p.skipped[occurrence{s.def.SlotIndex, a}] {
			continue
		}
		if last := s.lastScheduledAt(); last != nil && *last >= a {
			continue
		}
		found = append(found, pendingAnchor{slot: s, at: a})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].at != found[j].at {
			return found[i].at < found[j].at
		}
		return found[i].slot.def.SlotIndex < found[j].slot.def.SlotIndex
	})
	return found
}

// nextFixedAnchor returns the earliest fixed-mode anchor strictly after t
func (p *planner) nextFixedAnchor(t int64) (int64, bool) {
	var (
		next  int64
		found bool
	)
	for _, s := range p.slots {
		if s.def.AnchorMode != models.AnchorModeFixed {
			continue
		}
		n, ok := p.clock.nextOccurrence(s.def, t)
		if !ok || p.skipped[occurrence{s.def.SlotIndex, n}] {
			continue
		}
		if !found || n < next {
			next, found = n, true
		}
	}
	return next, found
}

// nextEligibleAt returns the earliest cooldown expiry after t among weighted slots.
// Slots already out of cooldown at t are ignored: they were not drawable for another reason.
func (p *planner) nextEligibleAt(t int64) (int64, bool) {
	var (
		next  int64
		found bool
	)
	for _, s := range p.slots {
		last := s.lastScheduledAt()
		if s.def.AnchorMode.IsAnchored() || last == nil {
			continue
		}
		if at := *last + s.def.CooldownMs; at > t && (!found || at < next) {
			next, found = at, true
		}
	}
	return next, found
}

// propose places one pick of slot s at t on a clone of its state
func (p *planner) propose(s *slotRun, content *slotContent, t int64) *proposal {
	state := p.workingState(s)
	state.LastScheduledAtMs = &t

	slotID := s.def.ID
	main := &models.GeneratedScheduleItem{SlotID: &slotID}
	if content.isRedirect() {
		redirect := content.redirect
		main.ItemType = models.GeneratedItemRedirect
		main.RedirectChannelID = &redirect
		main.DurationMs = *s.def.DurationMs
	} else {
		program := content.programs[p.pickIndex(s, state, len(content.programs))]
		programID := program.ID
		main.ItemType = models.GeneratedItemProgram
		main.ProgramID = &programID
		main.DurationMs = program.DurationMs
		if fs, ok := s.slot.(schedule.FillerSlot); ok {
			listID := fs.FillerListID
			main.FillerListID = &listID
		}
	}

	pad := computePadding(p.sched, s.def, p.clock, t, main.DurationMs)
	prop := &proposal{slot: s, state: state, length: main.DurationMs + pad.total()}
	at := t
	if pad.before > 0 {
		prop.items = append(prop.items, p.flex(at, pad.before, &slotID))
		at += pad.before
	}
	main.StartTimeMs = at
	prop.items = append(prop.items, p.newItem(main))
	at += main.DurationMs
	if pad.after > 0 {
		prop.items = append(prop.items, p.flex(at, pad.after, &slotID))
	}
	return prop
}

// workingState returns a clone of the slot's state, creating it on first draw
func (p *planner) workingState(s *slotRun) *models.SlotState {
	if s.state == nil {
		return &models.SlotState{
			SlotID:     s.def.ID,
			ScheduleID: p.sched.ID,
			RngSeed:    deriveSeed(p.rng.Seed(), uint64(s.def.SlotIndex)),
		}
	}
	return s.state.Clone()
}

// pickIndex chooses which content item of s plays next, advancing state
func (p *planner) pickIndex(s *slotRun, state *models.SlotState, n int) int {
	switch s.slot.(type) {
	case schedule.ShowSlot, schedule.CustomShowSlot:
		return sequentialIndex(s.def.Order, state, n)
	case schedule.FillerSlot, schedule.SmartCollectionSlot:
		r := NewRand(state.RngSeed, state.RngUseCount)
		idx := r.IntN(n)
		state.RngUseCount = r.Count()
		return idx
	case schedule.RedirectSlot:
		panic("generator: redirect slots have no content to pick")
	default:
		panic(fmt.Sprintf("generator: unhandled slot variant %T", s.slot))
	}
}

// sequentialIndex walks ordered content so every item plays once per cycle.
// Shuffled slots draw a new permutation for each cycle.
func sequentialIndex(order models.SlotOrder, state *models.SlotState, n int) int {
	if state.IteratorPosition >= n {
		state.IteratorPosition = 0
		state.ShuffleCycle++
		state.ShuffleOrder = nil
	}
	idx := state.IteratorPosition
	if order == models.SlotOrderShuffle {
		if len(state.ShuffleOrder) != n {
			state.ShuffleOrder = shuffleOrder(deriveSeed(state.RngSeed, uint64(state.ShuffleCycle)), n)
		}
		idx = state.ShuffleOrder[state.IteratorPosition]
	}
	state.IteratorPosition++
	return idx
}

// apply commits a proposal to the run and returns its items
func (p *planner) apply(prop *proposal) []*models.GeneratedScheduleItem {
	prop.slot.state = prop.state
	prop.slot.touched = true
	return p.place(prop.items...)
}

// place assigns sequence indexes and advances the cursor past items
func (p *planner) place(items ...*models.GeneratedScheduleItem) []*models.GeneratedScheduleItem {
	for _, item := range items {
		item.SequenceIndex = p.nextSeq
		p.nextSeq++
		p.cursor = item.EndTimeMs()
	}
	return items
}

// fallback keeps the timeline moving when no slot is eligible
func (p *planner) fallback(ctx context.Context, t int64) ([]*models.GeneratedScheduleItem, error) {
	recordFailure(FailureExhaustion)
	p.log.Debug().
		Int64("at_ms", t).
		Str("failure_kind", string(FailureExhaustion)).
		Msg("No eligible slot, emitting fallback")

	nextFixed, hasFixed := p.nextFixedAnchor(t)

	if p.fallbackListID != nil {
		content, err := p.resolver.resolve(ctx, schedule.FillerSlot{FillerListID: *p.fallbackListID})
		if err == nil {
			mark := *p.rng
			program := content.programs[p.rng.IntN(len(content.programs))]
			if hasFixed && t+program.DurationMs > nextFixed {
				*p.rng = mark
				return p.place(p.flex(t, nextFixed-t, nil)), nil
			}
			programID, listID := program.ID, *p.fallbackListID
			return p.place(p.newItem(&models.GeneratedScheduleItem{
				StartTimeMs:  t,
				DurationMs:   program.DurationMs,
				ItemType:     models.GeneratedItemProgram,
				ProgramID:    &programID,
				FillerListID: &listID,
			})), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn().
			Err(err).
			Str("filler_list_id", p.fallbackListID.String()).
			Msg("Fallback filler list unusable, going offline")
	}

	length := p.offlineMs
	if next, ok := p.nextEligibleAt(t); ok && next-t < length {
		length = next - t
	}
	if length < p.minOfflineMs {
		length = p.minOfflineMs
	}
	if hasFixed && t+length > nextFixed {
		length = nextFixed - t
	}
	return p.place(p.flex(t, length, nil)), nil
}

func (p *planner) flex(start, duration int64, slotID *uuid.UUID) *models.GeneratedScheduleItem {
	return p.newItem(&models.GeneratedScheduleItem{
		StartTimeMs: start,
		DurationMs:  duration,
		ItemType:    models.GeneratedItemFlex,
		SlotID:      slotID,
	})
}

func (p *planner) newItem(item *models.GeneratedScheduleItem) *models.GeneratedScheduleItem {
	item.ID = uuid.New()
	item.ScheduleID = p.sched.ID
	return item
}

// touchedStates returns the slot states changed since the last commit
func (p *planner) touchedStates() []*models.SlotState {
	var out []*models.SlotState
	for _, s := range p.slots {
		if s.touched {
			out = append(out, s.state)
		}
	}
	return out
}

func (p *planner) markCommitted() {
	for _, s := range p.slots {
		s.touched = false
	}
}
