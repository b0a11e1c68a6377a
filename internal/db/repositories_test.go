package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

func TestChannelRepository_DuplicateNumber(t *testing.T) {
	_, repos := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, repos.Channels.Create(ctx, models.NewChannel(4, "Four", time.Now().UTC())))

	err := repos.Channels.Create(ctx, models.NewChannel(4, "Also Four", time.Now().UTC()))
	require.Error(t, err)
	assert.True(t, db.IsDuplicate(err))
}

func TestGeneratedItemRepository(t *testing.T) {
	f := testutil.NewFixtures(t)
	ctx := context.Background()

	ch := f.Channel(1, "Items")
	show, _ := f.Show("Items", 1, 60_000)
	sched := f.InfiniteSchedule(ch, &models.ChannelSchedule{BufferDays: 1}, &models.InfiniteSlot{
		SlotType: models.SlotTypeShow,
		SlotRef:  models.SlotRef{ShowID: &show.ID},
	})

	_, ok, err := f.Repos.GeneratedItems.HighWaterMark(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	items := make([]*models.GeneratedScheduleItem, 3)
	for i := range items {
		items[i] = &models.GeneratedScheduleItem{
			ID:            uuid.New(),
			ScheduleID:    sched.ID,
			SequenceIndex: int64(i),
			StartTimeMs:   int64(i) * 1000,
			DurationMs:    1000,
			ItemType:      models.GeneratedItemFlex,
		}
	}
	require.NoError(t, f.Repos.GeneratedItems.CreateBatch(ctx, items))

	hwm, ok, err := f.Repos.GeneratedItems.HighWaterMark(ctx, sched.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3000), hwm)

	overlapping, err := f.Repos.GeneratedItems.ListRange(ctx, sched.ID, 1500, 2001)
	require.NoError(t, err)
	require.Len(t, overlapping, 2)
	assert.Equal(t, int64(1), overlapping[0].SequenceIndex)
	assert.Equal(t, int64(2), overlapping[1].SequenceIndex)

	at, err := f.Repos.GeneratedItems.At(ctx, sched.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), at.SequenceIndex, "an item owns its start instant")

	deleted, err := f.Repos.GeneratedItems.DeleteStartingFrom(ctx, sched.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = f.Repos.GeneratedItems.At(ctx, sched.ID, 2500)
	assert.True(t, db.IsNotFound(err))
}

func TestSlotStateCascadesWithSlot(t *testing.T) {
	f := testutil.NewFixtures(t)
	ctx := context.Background()

	ch := f.Channel(1, "States")
	show, _ := f.Show("States", 2, 60_000)
	sched := f.InfiniteSchedule(ch, &models.ChannelSchedule{BufferDays: 1}, &models.InfiniteSlot{
		SlotType: models.SlotTypeShow,
		SlotRef:  models.SlotRef{ShowID: &show.ID},
	})
	slot := sched.InfiniteSlots[0]

	require.NoError(t, f.Repos.SlotStates.Upsert(ctx, []*models.SlotState{{
		SlotID:           slot.ID,
		ScheduleID:       sched.ID,
		RngSeed:          7,
		IteratorPosition: 1,
		ShuffleOrder:     models.IndexList{},
	}}))

	states, err := f.Repos.SlotStates.GetBySchedule(ctx, sched.ID)
	require.NoError(t, err)
	require.Contains(t, states, slot.ID)
	assert.Equal(t, 1, states[slot.ID].IteratorPosition)

	require.NoError(t, f.Repos.Schedules.DeleteInfiniteSlots(ctx, []uuid.UUID{slot.ID}))

	states, err = f.Repos.SlotStates.GetBySchedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestWithRepositories_RollsBack(t *testing.T) {
	database, repos := testutil.NewDB(t)
	ctx := context.Background()
	ch := models.NewChannel(9, "Rolled Back", time.Now().UTC())
	boom := errors.New("boom")

	err := database.WithRepositories(ctx, func(tx *db.Repositories) error {
		if err := tx.Channels.Create(ctx, ch); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Channels.GetByID(ctx, ch.ID)
	assert.True(t, db.IsNotFound(err))
}

func TestGeneratedItemRepository_LastPlaysBySlot(t *testing.T) {
	f := testutil.NewFixtures(t)
	ctx := context.Background()

	ch := f.Channel(1, "Plays")
	show, _ := f.Show("Plays", 2, 60_000)
	sched := f.InfiniteSchedule(ch, &models.ChannelSchedule{BufferDays: 1}, &models.InfiniteSlot{
		SlotType: models.SlotTypeShow,
		SlotRef:  models.SlotRef{ShowID: &show.ID},
	})
	slotID := sched.InfiniteSlots[0].ID

	kinds := []models.GeneratedItemType{models.GeneratedItemProgram, models.GeneratedItemProgram, models.GeneratedItemFlex}
	items := make([]*models.GeneratedScheduleItem, len(kinds))
	for i, kind := range kinds {
		items[i] = &models.GeneratedScheduleItem{
			ID:            uuid.New(),
			ScheduleID:    sched.ID,
			SequenceIndex: int64(i),
			StartTimeMs:   int64(i) * 1000,
			DurationMs:    1000,
			ItemType:      kind,
			SlotID:        &slotID,
		}
	}
	require.NoError(t, f.Repos.GeneratedItems.CreateBatch(ctx, items))

	plays, err := f.Repos.GeneratedItems.LastPlaysBySlot(ctx, sched.ID, 0, 10_000)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{slotID: 1000}, plays, "flex padding is not a play")

	plays, err = f.Repos.GeneratedItems.LastPlaysBySlot(ctx, sched.ID, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{slotID: 0}, plays)

	plays, err = f.Repos.GeneratedItems.LastPlaysBySlot(ctx, sched.ID, 2000, 10_000)
	require.NoError(t, err)
	assert.Empty(t, plays)
}
