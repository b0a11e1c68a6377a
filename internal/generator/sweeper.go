package generator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
)

const triggerQueueSize = 256

// Sweeper keeps every infinite channel's buffer topped up. A ticker checks all
// infinite schedules against their refill threshold; Trigger queues a channel
// directly. A fixed pool of workers drains the queue.
type Sweeper struct {
	gen      *Generator
	repos    *db.Repositories
	interval time.Duration
	workers  int
	log      zerolog.Logger

	queue chan uuid.UUID
	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup

	mu      sync.Mutex
	queued  map[uuid.UUID]struct{}
	started bool
	stopped bool
}

// NewSweeper creates a sweeper driving gen
func NewSweeper(gen *Generator, repos *db.Repositories, cfg config.GeneratorConfig) *Sweeper {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Sweeper{
		gen:      gen,
		repos:    repos,
		interval: cfg.SweepInterval,
		workers:  workers,
		log:      logger.Component("sweeper"),
		queue:    make(chan uuid.UUID, triggerQueueSize),
		ctx:      ctx,
		stop:     stop,
		queued:   make(map[uuid.UUID]struct{}),
	}
}

// Start launches the workers and the periodic sweep. The first sweep runs immediately.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSweeperStopped
	}
	if s.started {
		return nil
	}
	s.started = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.runWorker()
	}
	s.wg.Add(1)
	go s.runSweepLoop()

	s.log.Info().
		Dur("interval", s.interval).
		Int("workers", s.workers).
		Msg("Sweeper started")
	return nil
}

// Stop cancels in-flight runs and waits for every goroutine to exit
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	s.log.Info().Msg("Sweeper stopped")
}

// Trigger queues a generation run for the channel. Duplicate triggers for a
// channel already queued collapse into one; a full queue drops the trigger and
// the next sweep picks the channel up.
func (s *Sweeper) Trigger(channelID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.queued[channelID]; ok {
		return
	}
	select {
	case s.queue <- channelID:
		s.queued[channelID] = struct{}{}
	default:
		s.log.Warn().Str("channel_id", channelID.String()).Msg("Trigger queue full, dropping trigger")
	}
}

// Cancel stops any generation running for the channel
func (s *Sweeper) Cancel(channelID uuid.UUID) {
	if s.gen.Cancel(channelID) {
		s.log.Info().Str("channel_id", channelID.String()).Msg("Generation canceled")
	}
}

func (s *Sweeper) runSweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-s.ctx.Done():
			s.log.Debug().Msg("Sweep loop stopping")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep queues every infinite channel whose buffer fell below its threshold
func (s *Sweeper) sweep() {
	schedules, err := s.repos.Schedules.ListByType(s.ctx, models.ScheduleTypeInfinite)
	if err != nil {
		if s.ctx.Err() == nil {
			s.log.Error().Err(err).Msg("Failed to list infinite schedules")
		}
		return
	}

	due := 0
	for _, sched := range schedules {
		hwm, low, err := s.gen.Buffered(s.ctx, sched)
		if err != nil {
			s.log.Error().Err(err).Str("channel_id", sched.ChannelID.String()).Msg("Failed to check buffer")
			continue
		}
		if low {
			s.log.Debug().
				Str("channel_id", sched.ChannelID.String()).
				Int64("high_water_mark_ms", hwm).
				Msg("Buffer below threshold")
			s.Trigger(sched.ChannelID)
			due++
		}
	}
	s.log.Debug().Int("schedules", len(schedules)).Int("due", due).Msg("Sweep complete")
}

func (s *Sweeper) runWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case channelID := <-s.queue:
			s.mu.Lock()
			delete(s.queued, channelID)
			s.mu.Unlock()
			s.generate(channelID)
		}
	}
}

func (s *Sweeper) generate(channelID uuid.UUID) {
	res, ran, err := s.gen.TryGenerate(s.ctx, channelID)
	log := s.log.With().Str("channel_id", channelID.String()).Logger()
	switch {
	case !ran:
		log.Debug().Msg("Channel busy, skipping")
	case err != nil:
		if s.ctx.Err() != nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Generation canceled before completion")
			return
		}
		log.Error().Err(err).Msg("Generation failed")
	case res.Batches > 0:
		log.Debug().Int("items_written", res.ItemsWritten).Msg("Buffer extended")
	}
}
