package channel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

var editTime = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type scheduleHarness struct {
	f       *testutil.Fixtures
	gen     *generator.Generator
	service *ScheduleService
	regen   *recordingRegenerator
	now     time.Time
}

func setupScheduleService(t *testing.T) *scheduleHarness {
	t.Helper()
	f := testutil.NewFixtures(t)
	h := &scheduleHarness{f: f, regen: &recordingRegenerator{}, now: editTime}
	clock := func() time.Time { return h.now }

	store := catalog.NewStore(f.Repos)
	h.gen = generator.New(f.DB, store, materialize.New(store), config.DefaultGeneratorConfig(),
		generator.WithClock(clock),
		generator.WithSeedSource(func() int64 { return 1 }))
	h.service = NewScheduleService(f.DB, h.gen.Locks(), h.regen)
	h.service.now = clock
	return h
}

func showSlot(showID uuid.UUID, weight float64) *models.InfiniteSlot {
	return &models.InfiniteSlot{
		SlotType: models.SlotTypeShow,
		Weight:   weight,
		SlotRef:  models.SlotRef{ShowID: testutil.IDPtr(showID)},
	}
}

func TestSetInfiniteSchedule_CreatesWithDefaults(t *testing.T) {
	h := setupScheduleService(t)
	ctx := context.Background()

	ch := h.f.Channel(1, "Infinite")
	show, _ := h.f.Show("Show", 3, 30*60*1000)

	sched, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{
		InfiniteSlots: []*models.InfiniteSlot{showSlot(show.ID, 2)},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ScheduleTypeInfinite, sched.Type)
	assert.Equal(t, models.FlexPreferenceEnd, sched.FlexPreference)
	assert.Equal(t, 1, sched.BufferDays)
	require.Len(t, sched.InfiniteSlots, 1)
	slot := sched.InfiniteSlots[0]
	assert.Equal(t, 0, slot.SlotIndex)
	assert.Equal(t, models.SlotOrderNext, slot.Order)
	assert.Equal(t, models.AnchorModeNone, slot.AnchorMode)
	assert.Equal(t, []uuid.UUID{ch.ID}, h.regen.triggered)

	got, err := h.service.GetSchedule(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, sched.ID, got.ID)
}

func TestSetInfiniteSchedule_Validation(t *testing.T) {
	h := setupScheduleService(t)
	ctx := context.Background()

	ch := h.f.Channel(1, "Invalid")
	show, _ := h.f.Show("Show", 1, 1000)
	showID := show.ID

	tests := []struct {
		name  string
		slots []*models.InfiniteSlot
	}{
		{name: "no slots"},
		{name: "zero weight", slots: []*models.InfiniteSlot{showSlot(showID, 0)}},
		{name: "negative cooldown", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeShow, Weight: 1, CooldownMs: -1,
			SlotRef: models.SlotRef{ShowID: &showID},
		}}},
		{name: "two refs", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeShow, Weight: 1,
			SlotRef: models.SlotRef{ShowID: &showID, FillerListID: &showID},
		}}},
		{name: "ref does not match type", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeFiller, Weight: 1,
			SlotRef: models.SlotRef{ShowID: &showID},
		}}},
		{name: "anchor without time", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeShow, AnchorMode: models.AnchorModeFixed,
			SlotRef: models.SlotRef{ShowID: &showID},
		}}},
		{name: "anchor past midnight", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeShow, AnchorMode: models.AnchorModeRelative,
			AnchorTimeMs: testutil.Int64Ptr(dayMs),
			SlotRef:      models.SlotRef{ShowID: &showID},
		}}},
		{name: "unknown day bits", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeShow, Weight: 1, AnchorDays: 1 << 7,
			SlotRef: models.SlotRef{ShowID: &showID},
		}}},
		{name: "redirect without duration", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeRedirect, Weight: 1,
			SlotRef: models.SlotRef{RedirectChannelID: testutil.IDPtr(uuid.New())},
		}}},
		{name: "self redirect", slots: []*models.InfiniteSlot{{
			SlotType: models.SlotTypeRedirect, Weight: 1, DurationMs: testutil.Int64Ptr(1000),
			SlotRef: models.SlotRef{RedirectChannelID: testutil.IDPtr(ch.ID)},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{InfiniteSlots: tt.slots})
			assert.True(t, IsInvalidSchedule(err), "got %v", err)
		})
	}

	_, err := h.service.GetSchedule(ctx, ch.ID)
	assert.True(t, IsScheduleNotFound(err), "nothing was saved")

	_, err = h.service.SetInfiniteSchedule(ctx, uuid.New(), &models.ChannelSchedule{
		InfiniteSlots: []*models.InfiniteSlot{showSlot(showID, 1)},
	})
	assert.True(t, IsChannelNotFound(err))
}

func TestSetInfiniteSchedule_EditInvalidatesFutureAndResetsState(t *testing.T) {
	h := setupScheduleService(t)
	ctx := context.Background()

	ch := h.f.Channel(1, "Edited")
	showA, _ := h.f.Show("A", 4, 30*60*1000)
	showB, _ := h.f.Show("B", 4, 30*60*1000)
	showC, _ := h.f.Show("C", 4, 30*60*1000)

	original, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{
		InfiniteSlots: []*models.InfiniteSlot{showSlot(showA.ID, 1), showSlot(showB.ID, 1), showSlot(showC.ID, 1)},
	})
	require.NoError(t, err)
	_, err = h.gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)

	states, err := h.f.Repos.SlotStates.GetBySchedule(ctx, original.ID)
	require.NoError(t, err)
	require.Len(t, states, 3, "every slot was drawn in a day")

	// One hour in, keep slot 0, retarget slot 1 and drop slot 2
	h.now = editTime.Add(time.Hour)
	retarget := showSlot(showC.ID, 1)
	edited, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{
		InfiniteSlots: []*models.InfiniteSlot{showSlot(showA.ID, 5), retarget},
	})
	require.NoError(t, err)

	assert.Equal(t, original.ID, edited.ID)
	require.Len(t, edited.InfiniteSlots, 2)
	assert.Equal(t, original.InfiniteSlots[0].ID, edited.InfiniteSlots[0].ID)
	assert.Equal(t, 5.0, edited.InfiniteSlots[0].Weight)
	assert.Equal(t, original.InfiniteSlots[1].ID, edited.InfiniteSlots[1].ID)

	states, err = h.f.Repos.SlotStates.GetBySchedule(ctx, original.ID)
	require.NoError(t, err)
	assert.Len(t, states, 1)
	assert.Contains(t, states, original.InfiniteSlots[0].ID, "unchanged content keeps its state")

	items, err := h.f.Repos.GeneratedItems.ListAll(ctx, original.ID)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	nowMs := h.now.UnixMilli()
	for _, item := range items {
		assert.Less(t, item.StartTimeMs, nowMs, "items planned after the edit are gone")
	}

	genState, err := h.f.Repos.SlotStates.GetGenerationState(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, items[len(items)-1].EndTimeMs(), genState.HighWaterMarkMs)

	// Regeneration continues gaplessly from the kept prefix
	_, err = h.gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)
	all, err := h.f.Repos.GeneratedItems.ListAll(ctx, original.ID)
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		require.Equal(t, all[i-1].EndTimeMs(), all[i].StartTimeMs)
	}
	assert.Len(t, h.regen.triggered, 2)
}

func TestSetTimeSchedule(t *testing.T) {
	h := setupScheduleService(t)
	ctx := context.Background()

	ch := h.f.Channel(1, "Timed")
	show, _ := h.f.Show("Show", 3, 30*60*1000)

	_, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{
		InfiniteSlots: []*models.InfiniteSlot{showSlot(show.ID, 1)},
	})
	require.NoError(t, err)
	_, err = h.gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)

	sched, err := h.service.SetTimeSchedule(ctx, ch.ID, &models.ChannelSchedule{
		TimeSlots: []*models.TimeSlot{
			{StartOffsetMs: 12 * 3600 * 1000, SlotType: models.SlotTypeShow, SlotRef: models.SlotRef{ShowID: &show.ID}},
			{StartOffsetMs: 0, SlotType: models.SlotTypeShow, SlotRef: models.SlotRef{ShowID: &show.ID}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleTypeTime, sched.Type)
	assert.Equal(t, dayMs, sched.PeriodMs)
	require.Len(t, sched.TimeSlots, 2)
	assert.Equal(t, int64(0), sched.TimeSlots[0].StartOffsetMs, "slots are ordered by offset")
	assert.Equal(t, 1, sched.TimeSlots[1].SlotIndex)

	_, err = h.gen.Items(ctx, ch.ID, 0, editTime.UnixMilli()+dayMs)
	assert.ErrorIs(t, err, generator.ErrNotInfinite)

	_, err = h.service.SetTimeSchedule(ctx, ch.ID, &models.ChannelSchedule{
		PeriodMs: 3 * 3600 * 1000,
	})
	assert.True(t, IsInvalidSchedule(err))

	_, err = h.service.SetTimeSchedule(ctx, ch.ID, &models.ChannelSchedule{
		TimeSlots: []*models.TimeSlot{
			{StartOffsetMs: dayMs, SlotType: models.SlotTypeShow, SlotRef: models.SlotRef{ShowID: &show.ID}},
		},
	})
	assert.True(t, IsInvalidSchedule(err))
}

func TestDeleteSchedule(t *testing.T) {
	h := setupScheduleService(t)
	ctx := context.Background()

	ch := h.f.Channel(1, "Deleted")
	show, _ := h.f.Show("Show", 3, 30*60*1000)
	sched, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{
		InfiniteSlots: []*models.InfiniteSlot{showSlot(show.ID, 1)},
	})
	require.NoError(t, err)
	_, err = h.gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)

	require.NoError(t, h.service.DeleteSchedule(ctx, ch.ID))
	assert.Contains(t, h.regen.canceled, ch.ID)

	count, err := h.f.Repos.GeneratedItems.Count(ctx, sched.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "generated items cascade")

	assert.True(t, IsScheduleNotFound(h.service.DeleteSchedule(ctx, ch.ID)))
}

func TestSetInfiniteSchedule_EditKeepsAnchoredAirings(t *testing.T) {
	h := setupScheduleService(t)
	ctx := context.Background()

	ch := h.f.Channel(1, "Evening News")
	daytime, _ := h.f.Show("Daytime", 10, 30*60*1000)
	news, _ := h.f.Show("News", 3, 30*60*1000)

	slots := func(daytimeWeight float64) []*models.InfiniteSlot {
		newsSlot := showSlot(news.ID, 1)
		newsSlot.AnchorMode = models.AnchorModeFixed
		newsSlot.AnchorTimeMs = testutil.Int64Ptr(18 * time.Hour.Milliseconds())
		return []*models.InfiniteSlot{showSlot(daytime.ID, daytimeWeight), newsSlot}
	}
	newsAirings := func(sched *models.ChannelSchedule) []int64 {
		items, err := h.f.Repos.GeneratedItems.ListAll(ctx, sched.ID)
		require.NoError(t, err)
		var out []int64
		for _, item := range items {
			if item.ItemType == models.GeneratedItemProgram && item.SlotID != nil && *item.SlotID == sched.InfiniteSlots[1].ID {
				out = append(out, item.StartTimeMs)
			}
		}
		return out
	}
	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC).UnixMilli()
	tuesday := time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC).UnixMilli()

	sched, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{BufferDays: 2, InfiniteSlots: slots(1)})
	require.NoError(t, err)
	_, err = h.gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{monday, tuesday}, newsAirings(sched))

	// Reweighting the other slot must not cost the anchored slot its planned airings
	h.now = editTime.Add(time.Hour)
	edited, err := h.service.SetInfiniteSchedule(ctx, ch.ID, &models.ChannelSchedule{BufferDays: 2, InfiniteSlots: slots(2)})
	require.NoError(t, err)

	states, err := h.f.Repos.SlotStates.GetBySchedule(ctx, edited.ID)
	require.NoError(t, err)
	require.Contains(t, states, edited.InfiniteSlots[1].ID)
	assert.Nil(t, states[edited.InfiniteSlots[1].ID].LastScheduledAtMs, "no news airing survived the edit")
	require.Contains(t, states, edited.InfiniteSlots[0].ID)
	require.NotNil(t, states[edited.InfiniteSlots[0].ID].LastScheduledAtMs)
	assert.Less(t, *states[edited.InfiniteSlots[0].ID].LastScheduledAtMs, h.now.UnixMilli())

	_, err = h.gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{monday, tuesday}, newsAirings(edited))
}
