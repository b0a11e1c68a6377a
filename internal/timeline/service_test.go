package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/channel"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

var startTime = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*TimelineService, *generator.Generator, *testutil.Fixtures, *time.Time) {
	t.Helper()
	f := testutil.NewFixtures(t)
	now := startTime
	clock := func() time.Time { return now }

	store := catalog.NewStore(f.Repos)
	gen := generator.New(f.DB, store, materialize.New(store), config.DefaultGeneratorConfig(),
		generator.WithClock(clock))
	service := NewTimelineService(gen, store)
	service.now = clock
	return service, gen, f, &now
}

func TestGetCurrentPosition(t *testing.T) {
	service, gen, f, now := setupTestService(t)
	ctx := context.Background()

	ch := f.Channel(1, "On Air")
	show, episodes := f.Show("Serial", 3, 20*60*1000)
	f.InfiniteSchedule(ch, &models.ChannelSchedule{BufferDays: 1}, &models.InfiniteSlot{
		SlotType: models.SlotTypeShow,
		SlotRef:  models.SlotRef{ShowID: &show.ID},
	})

	_, err := service.GetCurrentPosition(ctx, ch.ID)
	assert.True(t, IsNothingScheduled(err), "buffer not generated yet")

	_, err = gen.GenerateBuffer(ctx, ch.ID)
	require.NoError(t, err)

	*now = startTime.Add(25 * time.Minute)
	pos, err := service.GetCurrentPosition(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GeneratedItemProgram, pos.ItemType)
	assert.Equal(t, episodes[1].ID, *pos.ProgramID)
	assert.Equal(t, episodes[1].Title, pos.Title)
	assert.Equal(t, int64(5*60*1000), pos.OffsetMs)
	assert.Equal(t, startTime.Add(20*time.Minute), pos.StartedAt)
}

func TestGetCurrentPosition_Errors(t *testing.T) {
	service, _, f, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.GetCurrentPosition(ctx, uuid.New())
	assert.True(t, channel.IsChannelNotFound(err))

	ch := f.Channel(1, "Unscheduled")
	_, err = service.GetCurrentPosition(ctx, ch.ID)
	assert.ErrorIs(t, err, generator.ErrNoSchedule)
}
