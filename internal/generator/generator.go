// Package generator extends infinite schedules into concrete, timed items.
//
// A run picks slots by weighted draw from a persisted counter-based PRNG,
// walks ordered content once per cycle, honours cooldowns and anchors, and
// commits each batch of items together with the slot state that produced it.
package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
)

// Result summarizes one generation run
type Result struct {
	ItemsWritten     int   `json:"items_written"`
	NewHighWaterMark int64 `json:"new_high_water_mark"`
	Batches          int   `json:"batches"`
}

// Generator owns every write to generated items and slot state
type Generator struct {
	db      *db.DB
	repos   *db.Repositories
	catalog catalog.Catalog
	helpers *materialize.Helpers
	cfg     config.GeneratorConfig
	locks   *KeyedLock
	now     func() time.Time
	seed    func() int64
	log     zerolog.Logger

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

// Option configures a Generator
type Option func(*Generator)

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithSeedSource overrides how new schedules get their PRNG seed
func WithSeedSource(seed func() int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithLocks shares a keyed lock with other writers of the same channels
func WithLocks(locks *KeyedLock) Option {
	return func(g *Generator) {
		g.locks = locks
	}
}

// New creates a generator
func New(database *db.DB, cat catalog.Catalog, helpers *materialize.Helpers, cfg config.GeneratorConfig, opts ...Option) *Generator {
	g := &Generator{
		db:      database,
		repos:   db.NewRepositories(database),
		catalog: cat,
		helpers: helpers,
		cfg:     cfg,
		locks:   NewKeyedLock(),
		now:     time.Now,
		seed:    rand.Int64,
		log:     logger.Component("generator"),
		running: make(map[uuid.UUID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Locks returns the per-channel lock generation runs hold
func (g *Generator) Locks() *KeyedLock {
	return g.locks
}

// GenerateBuffer extends the channel's timeline to cover now + bufferDays,
// waiting for any run already in progress on the channel. It is a no-op when
// the buffer is already covered.
func (g *Generator) GenerateBuffer(ctx context.Context, channelID uuid.UUID) (*Result, error) {
	unlock, err := g.locks.Lock(ctx, channelID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return g.generateLocked(ctx, channelID)
}

// TryGenerate is GenerateBuffer that gives up immediately when the channel is
// busy; the bool reports whether a run took place.
func (g *Generator) TryGenerate(ctx context.Context, channelID uuid.UUID) (*Result, bool, error) {
	unlock, ok := g.locks.TryLock(channelID)
	if !ok {
		return nil, false, nil
	}
	defer unlock()
	res, err := g.generateLocked(ctx, channelID)
	return res, true, err
}

// Cancel stops the run in progress for channelID. Batches already committed stay.
func (g *Generator) Cancel(channelID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cancel, ok := g.running[channelID]
	if ok {
		cancel()
	}
	return ok
}

func (g *Generator) generateLocked(ctx context.Context, channelID uuid.UUID) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	g.running[channelID] = cancel
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.running, channelID)
		g.mu.Unlock()
	}()

	started := time.Now()
	res, err := g.run(ctx, channelID)
	runDuration.Observe(time.Since(started).Seconds())

	switch {
	case err == nil && res.Batches == 0:
		runsTotal.WithLabelValues(resultNoop).Inc()
	case err == nil:
		runsTotal.WithLabelValues(resultOK).Inc()
	case errors.Is(err, context.Canceled):
		runsTotal.WithLabelValues(resultCanceled).Inc()
	default:
		runsTotal.WithLabelValues(resultError).Inc()
	}
	return res, err
}

func (g *Generator) run(ctx context.Context, channelID uuid.UUID) (*Result, error) {
	sched, err := g.infiniteSchedule(ctx, channelID)
	if err != nil {
		return nil, err
	}
	log := g.log.With().Str("channel_id", channelID.String()).Logger()

	nowMs := g.now().UnixMilli()
	bufferDays := sched.BufferDays
	if bufferDays < 1 {
		bufferDays = 1
	}
	target := nowMs + int64(bufferDays)*dayMs

	last, err := g.repos.GeneratedItems.Last(ctx, sched.ID)
	if err != nil && !db.IsNotFound(err) {
		return nil, err
	}
	if last != nil && last.EndTimeMs() >= target {
		return &Result{NewHighWaterMark: last.EndTimeMs()}, nil
	}

	genState, err := g.repos.SlotStates.GetGenerationState(ctx, sched.ID)
	if db.IsNotFound(err) {
		genState = &models.ScheduleGenerationState{ScheduleID: sched.ID, RngSeed: g.seed()}
	} else if err != nil {
		return nil, err
	}
	states, err := g.repos.SlotStates.GetBySchedule(ctx, sched.ID)
	if err != nil {
		return nil, err
	}
	settings, err := g.repos.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	// Anything older than now cannot be continued gaplessly, so start over at now
	gap := last == nil || last.EndTimeMs() < nowMs
	p := &planner{
		channelID:      channelID,
		sched:          sched,
		slots:          newSlotRuns(sched, states, log),
		rng:            NewRand(genState.RngSeed, genState.RngUseCount),
		resolver:       newResolver(g.catalog, g.helpers),
		clock:          newAnchorClock(sched.TimeZoneOffset),
		windowStart:    nowMs,
		cursor:         nowMs,
		nextSeq:        genState.NextSequenceIndex,
		fallbackListID: settings.FallbackFillerListID,
		offlineMs:      g.cfg.OfflineDuration.Milliseconds(),
		minOfflineMs:   g.cfg.MinOfflineDuration.Milliseconds(),
		skipped:        make(map[occurrence]bool),
		warned:         make(map[int]bool),
		log:            log,
	}
	if settings.OfflineDurationMs > 0 {
		p.offlineMs = settings.OfflineDurationMs
	}
	if !gap {
		p.cursor = last.EndTimeMs()
		p.windowStart = last.StartTimeMs
		if last.SequenceIndex >= p.nextSeq {
			p.nextSeq = last.SequenceIndex + 1
		}
	}

	result := &Result{NewHighWaterMark: p.cursor}
	batchMs := g.cfg.BatchWindow.Milliseconds()
	pruneBefore := nowMs - g.cfg.PastRetention.Milliseconds()
	clearAll := gap && last != nil

	for p.cursor < target {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batchEnd := p.cursor + batchMs
		if batchEnd > target {
			batchEnd = target
		}
		items, err := p.fill(ctx, batchEnd)
		if err != nil {
			return result, err
		}

		genState.RngUseCount = p.rng.Count()
		genState.NextSequenceIndex = p.nextSeq
		genState.HighWaterMarkMs = p.cursor
		touched := p.touchedStates()
		wipe := clearAll && result.Batches == 0

		err = g.db.WithRepositories(ctx, func(tx *db.Repositories) error {
			if wipe {
				if err := tx.GeneratedItems.DeleteBySchedule(ctx, sched.ID); err != nil {
					return err
				}
			}
			if err := tx.GeneratedItems.CreateBatch(ctx, items); err != nil {
				return err
			}
			if err := tx.SlotStates.Upsert(ctx, touched); err != nil {
				return err
			}
			if err := tx.SlotStates.UpsertGenerationState(ctx, genState); err != nil {
				return err
			}
			_, err := tx.GeneratedItems.DeleteEndingBefore(ctx, sched.ID, pruneBefore)
			return err
		})
		if err != nil {
			recordFailure(FailureTransaction)
			log.Error().
				Err(err).
				Int("batch", result.Batches).
				Str("failure_kind", string(FailureTransaction)).
				Msg("Batch commit failed, rolled back")
			return result, &TransactionFailure{ChannelID: channelID, Batch: result.Batches, Err: err}
		}

		recordItems(items)
		p.markCommitted()
		result.ItemsWritten += len(items)
		result.Batches++
		result.NewHighWaterMark = p.cursor
	}

	log.Info().
		Int("items_written", result.ItemsWritten).
		Int("batches", result.Batches).
		Int64("high_water_mark_ms", result.NewHighWaterMark).
		Msg("Buffer generated")

	return result, nil
}

func (g *Generator) infiniteSchedule(ctx context.Context, channelID uuid.UUID) (*models.ChannelSchedule, error) {
	lineup, err := g.catalog.LoadLineup(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if lineup.Schedule == nil {
		return nil, ErrNoSchedule
	}
	if lineup.Schedule.Type != models.ScheduleTypeInfinite {
		return nil, ErrNotInfinite
	}
	return lineup.Schedule, nil
}

// Items returns the channel's generated items overlapping [fromMs, toMs) in sequence order
func (g *Generator) Items(ctx context.Context, channelID uuid.UUID, fromMs, toMs int64) ([]*models.GeneratedScheduleItem, error) {
	sched, err := g.infiniteSchedule(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return g.repos.GeneratedItems.ListRange(ctx, sched.ID, fromMs, toMs)
}

// Buffered returns the end of the channel's generated timeline and whether it
// has fallen below the schedule's refill threshold at now
func (g *Generator) Buffered(ctx context.Context, sched *models.ChannelSchedule) (int64, bool, error) {
	hwm, _, err := g.repos.GeneratedItems.HighWaterMark(ctx, sched.ID)
	if err != nil {
		return 0, false, err
	}
	threshold := sched.BufferThresholdDays
	if threshold <= 0 {
		threshold = sched.BufferDays
	}
	return hwm, hwm-g.now().UnixMilli() < int64(threshold)*dayMs, nil
}
