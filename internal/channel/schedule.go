package channel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/schedule"
)

const (
	dayMs  = int64(24 * time.Hour / time.Millisecond)
	weekMs = 7 * dayMs

	// Time zone offsets run from UTC-14 to UTC+14
	maxTimeZoneOffsetMinutes = 14 * 60
)

// ScheduleService edits channel schedule definitions. Edits to an infinite
// schedule invalidate the generated timeline from the edit time on, reset the
// state of removed or altered slots and queue a regeneration.
type ScheduleService struct {
	db    *db.DB
	repos *db.Repositories
	locks *generator.KeyedLock
	regen Regenerator
	now   func() time.Time
}

// NewScheduleService creates a schedule service. locks must be the generator's
// keyed lock so edits never interleave with a generation run; regen may be nil.
func NewScheduleService(database *db.DB, locks *generator.KeyedLock, regen Regenerator) *ScheduleService {
	return &ScheduleService{
		db:    database,
		repos: db.NewRepositories(database),
		locks: locks,
		regen: regen,
		now:   time.Now,
	}
}

// GetSchedule returns the channel's schedule with its slots
func (s *ScheduleService) GetSchedule(ctx context.Context, channelID uuid.UUID) (*models.ChannelSchedule, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}
	sched, err := s.repos.Schedules.GetByChannelID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return sched, nil
}

// SetTimeSchedule replaces the channel's schedule with a time schedule.
// Replacing an infinite schedule drops its generated timeline.
func (s *ScheduleService) SetTimeSchedule(ctx context.Context, channelID uuid.UUID, sched *models.ChannelSchedule) (*models.ChannelSchedule, error) {
	if err := validateTimeSchedule(channelID, sched); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Time schedule rejected")
		return nil, err
	}
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, channelID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sched.ChannelID = channelID
	sched.Type = models.ScheduleTypeTime
	sched.BufferDays = 0
	sched.BufferThresholdDays = 0

	err = s.db.WithRepositories(ctx, func(tx *db.Repositories) error {
		existing, err := tx.Schedules.GetByChannelID(ctx, channelID)
		switch {
		case db.IsNotFound(err):
			sched.ID = uuid.New()
			if err := tx.Schedules.Create(ctx, sched); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Type != models.ScheduleTypeTime:
			if err := tx.Schedules.DeleteByChannelID(ctx, channelID); err != nil {
				return err
			}
			sched.ID = uuid.New()
			if err := tx.Schedules.Create(ctx, sched); err != nil {
				return err
			}
		default:
			sched.ID = existing.ID
			if err := tx.Schedules.Update(ctx, sched); err != nil {
				return err
			}
		}
		return tx.Schedules.ReplaceTimeSlots(ctx, sched.ID, sched.TimeSlots)
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to save time schedule")
		return nil, fmt.Errorf("failed to save time schedule: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Int("slots", len(sched.TimeSlots)).
		Msg("Time schedule saved")

	return s.repos.Schedules.GetByChannelID(ctx, channelID)
}

// SetInfiniteSchedule replaces the channel's schedule with an infinite schedule.
// Slots are matched to the previous definition by slot index; a slot keeps its
// id and state only while it draws from the same content the same way.
func (s *ScheduleService) SetInfiniteSchedule(ctx context.Context, channelID uuid.UUID, sched *models.ChannelSchedule) (*models.ChannelSchedule, error) {
	if err := validateInfiniteSchedule(channelID, sched); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Infinite schedule rejected")
		return nil, err
	}
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, channelID)
	if err != nil {
		return nil, err
	}

	sched.ChannelID = channelID
	sched.Type = models.ScheduleTypeInfinite
	sched.PeriodMs = 0
	nowMs := s.now().UnixMilli()

	var (
		reset       []uuid.UUID
		invalidated int64
	)
	err = s.db.WithRepositories(ctx, func(tx *db.Repositories) error {
		existing, err := tx.Schedules.GetByChannelID(ctx, channelID)
		switch {
		case db.IsNotFound(err):
			existing = nil
		case err != nil:
			return err
		case existing.Type != models.ScheduleTypeInfinite:
			if err := tx.Schedules.DeleteByChannelID(ctx, channelID); err != nil {
				return err
			}
			existing = nil
		}

		if existing == nil {
			sched.ID = uuid.New()
			if err := tx.Schedules.Create(ctx, sched); err != nil {
				return err
			}
			for _, slot := range sched.InfiniteSlots {
				slot.ID = uuid.New()
				slot.ScheduleID = sched.ID
				if err := tx.Schedules.CreateInfiniteSlot(ctx, slot); err != nil {
					return err
				}
			}
			return nil
		}

		sched.ID = existing.ID
		if err := tx.Schedules.Update(ctx, sched); err != nil {
			return err
		}
		reset, err = replaceInfiniteSlots(ctx, tx, existing.InfiniteSlots, sched)
		if err != nil {
			return err
		}

		// Everything not yet started was planned from the old definition
		dropped, err := tx.GeneratedItems.LastPlaysBySlot(ctx, sched.ID, nowMs, math.MaxInt64)
		if err != nil {
			return err
		}
		invalidated, err = tx.GeneratedItems.DeleteStartingFrom(ctx, sched.ID, nowMs)
		if err != nil {
			return err
		}
		if err := rewindSlotStates(ctx, tx, sched.ID, dropped, nowMs); err != nil {
			return err
		}
		hwm, _, err := tx.GeneratedItems.HighWaterMark(ctx, sched.ID)
		if err != nil {
			return err
		}
		return tx.SlotStates.SetHighWaterMark(ctx, sched.ID, hwm)
	})
	unlock()
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to save infinite schedule")
		return nil, fmt.Errorf("failed to save infinite schedule: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Int("slots", len(sched.InfiniteSlots)).
		Int("slots_reset", len(reset)).
		Int64("items_invalidated", invalidated).
		Msg("Infinite schedule saved")

	if s.regen != nil {
		s.regen.Trigger(channelID)
	}
	return s.repos.Schedules.GetByChannelID(ctx, channelID)
}

// replaceInfiniteSlots diffs the new slots against the stored ones and returns
// the ids of slots whose state was reset
func replaceInfiniteSlots(ctx context.Context, tx *db.Repositories, old []*models.InfiniteSlot, sched *models.ChannelSchedule) ([]uuid.UUID, error) {
	byIndex := make(map[int]*models.InfiniteSlot, len(old))
	for _, slot := range old {
		byIndex[slot.SlotIndex] = slot
	}

	var reset, removed []uuid.UUID
	for _, slot := range sched.InfiniteSlots {
		slot.ScheduleID = sched.ID
		prev, ok := byIndex[slot.SlotIndex]
		if !ok {
			slot.ID = uuid.New()
			if err := tx.Schedules.CreateInfiniteSlot(ctx, slot); err != nil {
				return nil, err
			}
			continue
		}
		delete(byIndex, slot.SlotIndex)
		slot.ID = prev.ID
		if !prev.SameContent(slot) {
			reset = append(reset, slot.ID)
		}
		if err := tx.Schedules.SaveInfiniteSlot(ctx, slot); err != nil {
			return nil, err
		}
	}
	for _, slot := range byIndex {
		removed = append(removed, slot.ID)
	}

	if err := tx.SlotStates.DeleteBySlotIDs(ctx, reset); err != nil {
		return nil, err
	}
	if err := tx.Schedules.DeleteInfiniteSlots(ctx, removed); err != nil {
		return nil, err
	}
	return append(reset, removed...), nil
}

// rewindSlotStates points the last play of every slot that lost planned airings
// back at its latest surviving airing, or clears it when none survives.
// Iterator positions are left alone: episodes drawn for the dropped airings are skipped.
func rewindSlotStates(ctx context.Context, tx *db.Repositories, scheduleID uuid.UUID, dropped map[uuid.UUID]int64, nowMs int64) error {
	if len(dropped) == 0 {
		return nil
	}
	kept, err := tx.GeneratedItems.LastPlaysBySlot(ctx, scheduleID, math.MinInt64, nowMs)
	if err != nil {
		return err
	}
	for slotID := range dropped {
		var at *int64
		if v, ok := kept[slotID]; ok {
			at = &v
		}
		if err := tx.SlotStates.SetLastScheduledAt(ctx, slotID, at); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSchedule removes the channel's schedule together with its generated timeline
func (s *ScheduleService) DeleteSchedule(ctx context.Context, channelID uuid.UUID) error {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, channelID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repos.Schedules.DeleteByChannelID(ctx, channelID); err != nil {
		if db.IsNotFound(err) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Msg("Schedule deleted")
	return nil
}

// lock stops any generation in progress and takes the channel's lock
func (s *ScheduleService) lock(ctx context.Context, channelID uuid.UUID) (func(), error) {
	if s.regen != nil {
		s.regen.Cancel(channelID)
	}
	unlock, err := s.locks.Lock(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock channel: %w", err)
	}
	return unlock, nil
}

func (s *ScheduleService) requireChannel(ctx context.Context, channelID uuid.UUID) error {
	if _, err := s.repos.Channels.GetByID(ctx, channelID); err != nil {
		if db.IsNotFound(err) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("failed to get channel: %w", err)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSchedule, fmt.Sprintf(format, args...))
}

// validateCommon checks the fields shared by both schedule types and fills defaults
func validateCommon(sched *models.ChannelSchedule) error {
	if sched == nil {
		return invalid("schedule is required")
	}
	if sched.FlexPreference == "" {
		sched.FlexPreference = models.FlexPreferenceEnd
	}
	if !sched.FlexPreference.IsValid() {
		return invalid("unknown flex preference %q", sched.FlexPreference)
	}
	if sched.PadMs < 0 {
		return invalid("pad_ms must not be negative")
	}
	if sched.TimeZoneOffset < -maxTimeZoneOffsetMinutes || sched.TimeZoneOffset > maxTimeZoneOffsetMinutes {
		return invalid("time_zone_offset %d out of range", sched.TimeZoneOffset)
	}
	return nil
}

// validateRef checks the slot references exactly one source of its type and
// does not redirect to its own channel
func validateRef(channelID uuid.UUID, index int, slotType models.SlotType, ref models.SlotRef) error {
	slot, err := schedule.Decode(slotType, ref)
	if err != nil {
		return invalid("slot %d: %v", index, err)
	}
	if r, ok := slot.(schedule.RedirectSlot); ok && r.ChannelID == channelID {
		return invalid("slot %d: channel cannot redirect to itself", index)
	}
	return nil
}

func validateTimeSchedule(channelID uuid.UUID, sched *models.ChannelSchedule) error {
	if err := validateCommon(sched); err != nil {
		return err
	}
	if sched.PeriodMs == 0 {
		sched.PeriodMs = dayMs
	}
	if sched.PeriodMs != dayMs && sched.PeriodMs != weekMs {
		return invalid("period_ms must be one day or one week")
	}

	seen := make(map[int64]bool, len(sched.TimeSlots))
	for i, slot := range sched.TimeSlots {
		if err := validateRef(channelID, i, slot.SlotType, slot.SlotRef); err != nil {
			return err
		}
		if slot.StartOffsetMs < 0 || slot.StartOffsetMs >= sched.PeriodMs {
			return invalid("slot %d: start_offset_ms outside the period", i)
		}
		if seen[slot.StartOffsetMs] {
			return invalid("slot %d: two slots start at offset %d", i, slot.StartOffsetMs)
		}
		seen[slot.StartOffsetMs] = true
		if slot.Order == "" {
			slot.Order = models.SlotOrderNext
		}
		if !slot.Order.IsValid() {
			return invalid("slot %d: unknown order %q", i, slot.Order)
		}
	}

	sort.SliceStable(sched.TimeSlots, func(i, j int) bool {
		return sched.TimeSlots[i].StartOffsetMs < sched.TimeSlots[j].StartOffsetMs
	})
	for i, slot := range sched.TimeSlots {
		slot.ID = uuid.New()
		slot.SlotIndex = i
	}
	return nil
}

func validateInfiniteSchedule(channelID uuid.UUID, sched *models.ChannelSchedule) error {
	if err := validateCommon(sched); err != nil {
		return err
	}
	if len(sched.InfiniteSlots) == 0 {
		return invalid("infinite schedule needs at least one slot")
	}
	if sched.BufferDays < 0 || sched.BufferThresholdDays < 0 {
		return invalid("buffer days must not be negative")
	}
	if sched.BufferDays == 0 {
		sched.BufferDays = 1
	}

	for i, slot := range sched.InfiniteSlots {
		if err := validateRef(channelID, i, slot.SlotType, slot.SlotRef); err != nil {
			return err
		}
		if err := validateInfiniteSlot(i, slot); err != nil {
			return err
		}
		slot.SlotIndex = i
	}
	return nil
}

func validateInfiniteSlot(i int, slot *models.InfiniteSlot) error {
	if slot.Order == "" {
		slot.Order = models.SlotOrderNext
	}
	if !slot.Order.IsValid() {
		return invalid("slot %d: unknown order %q", i, slot.Order)
	}
	if slot.AnchorMode == "" {
		slot.AnchorMode = models.AnchorModeNone
	}
	if !slot.AnchorMode.IsValid() {
		return invalid("slot %d: unknown anchor mode %q", i, slot.AnchorMode)
	}

	if math.IsNaN(slot.Weight) || math.IsInf(slot.Weight, 0) || slot.Weight < 0 {
		return invalid("slot %d: weight must be a positive number", i)
	}
	if slot.Weight == 0 && !slot.AnchorMode.IsAnchored() {
		return invalid("slot %d: weight must be a positive number", i)
	}
	if slot.CooldownMs < 0 {
		return invalid("slot %d: cooldown_ms must not be negative", i)
	}
	if slot.PadMs != nil && *slot.PadMs < 0 {
		return invalid("slot %d: pad_ms must not be negative", i)
	}
	if slot.PadToMultiple != nil && *slot.PadToMultiple <= 0 {
		return invalid("slot %d: pad_to_multiple must be positive", i)
	}

	if slot.AnchorMode.IsAnchored() {
		if slot.AnchorTimeMs == nil || *slot.AnchorTimeMs < 0 || *slot.AnchorTimeMs >= dayMs {
			return invalid("slot %d: anchored slots need an anchor_time_ms within the day", i)
		}
	}
	if slot.AnchorDays < 0 || slot.AnchorDays > models.AnchorEveryDay {
		return invalid("slot %d: anchor_days has unknown day bits", i)
	}

	if slot.SlotType == models.SlotTypeRedirect {
		if slot.DurationMs == nil || *slot.DurationMs <= 0 {
			return invalid("slot %d: redirect slots need a positive duration_ms", i)
		}
	}
	return nil
}
