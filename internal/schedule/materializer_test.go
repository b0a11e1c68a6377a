package schedule

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

func setupMaterializer(t *testing.T) (*Materializer, *testutil.Fixtures) {
	f := testutil.NewFixtures(t)
	store := catalog.NewStore(f.Repos)
	return NewMaterializer(store, materialize.New(store)), f
}

func TestMaterialize_FillerSlotContentCount(t *testing.T) {
	m, f := setupMaterializer(t)

	ch := f.Channel(1, "Filler Channel")
	list := f.FillerList("Bumpers", f.Programs("Bumper", models.ProgramTypeOther, 3, 15_000))
	f.TimeSchedule(ch, &models.TimeSlot{
		SlotType: models.SlotTypeFiller,
		SlotRef:  models.SlotRef{FillerListID: &list.ID},
	})

	out, err := m.Materialize(context.Background(), ch.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.TimeSlots, 1)

	filler, ok := out.TimeSlots[0].Content.(*MaterializedFillerList)
	require.True(t, ok, "expected filler content, got %T", out.TimeSlots[0].Content)
	assert.Equal(t, 3, filler.ContentCount)
	assert.Equal(t, list.ID, filler.ID)
	assert.Equal(t, models.SlotTypeFiller, filler.SlotType())
}

func TestMaterialize_DeletedShowIsDataIntegrityError(t *testing.T) {
	m, f := setupMaterializer(t)
	ctx := context.Background()

	ch := f.Channel(1, "Show Channel")
	show, _ := f.Show("Doomed", 2, 60_000)
	f.TimeSchedule(ch, &models.TimeSlot{
		SlotType: models.SlotTypeShow,
		SlotRef:  models.SlotRef{ShowID: &show.ID},
	})

	_, err := m.Materialize(ctx, ch.ID)
	require.NoError(t, err)

	require.NoError(t, f.Repos.Catalog.DeleteGrouping(ctx, show.ID))

	out, err := m.Materialize(ctx, ch.ID)
	require.Error(t, err)
	assert.Nil(t, out, "no partial result on integrity failure")
	assert.True(t, IsDataIntegrity(err))

	integrity, ok := AsDataIntegrity(err)
	require.True(t, ok)
	assert.Equal(t, show.ID, integrity.RefID)
	assert.Equal(t, models.SlotTypeShow, integrity.RefType)
	assert.Equal(t, ch.ID, integrity.ChannelID)
	assert.Contains(t, err.Error(), show.ID.String())
}

func TestMaterialize_Idempotent(t *testing.T) {
	m, f := setupMaterializer(t)
	ctx := context.Background()

	ch := f.Channel(1, "Mixed")
	target := f.Channel(2, "Target")
	show, _ := f.Show("Show", 3, 60_000)
	custom := f.CustomShow("Custom", f.Programs("Movie", models.ProgramTypeMovie, 2, 60_000))
	f.TimeSchedule(ch,
		&models.TimeSlot{SlotType: models.SlotTypeShow, SlotRef: models.SlotRef{ShowID: &show.ID}},
		&models.TimeSlot{SlotType: models.SlotTypeCustomShow, StartOffsetMs: 3_600_000, SlotRef: models.SlotRef{CustomShowID: &custom.ID}},
		&models.TimeSlot{SlotType: models.SlotTypeRedirect, StartOffsetMs: 7_200_000, SlotRef: models.SlotRef{RedirectChannelID: &target.ID}},
	)

	first, err := m.Materialize(ctx, ch.ID)
	require.NoError(t, err)
	second, err := m.Materialize(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMaterialize_ResolvesEveryVariant(t *testing.T) {
	m, f := setupMaterializer(t)

	ch := f.Channel(1, "Everything")
	target := f.Channel(2, "Target")
	show, _ := f.Show("Show", 4, 60_000)
	programs := f.Programs("Movie", models.ProgramTypeMovie, 2, 60_000)
	list := f.FillerList("Filler", programs)
	custom := f.CustomShow("Custom", programs)
	collection := f.SmartCollection("Movies", models.ProgramTypeMovie)

	f.TimeSchedule(ch,
		&models.TimeSlot{SlotType: models.SlotTypeShow, SlotRef: models.SlotRef{ShowID: &show.ID}},
		&models.TimeSlot{SlotType: models.SlotTypeFiller, SlotRef: models.SlotRef{FillerListID: &list.ID}},
		&models.TimeSlot{SlotType: models.SlotTypeCustomShow, SlotRef: models.SlotRef{CustomShowID: &custom.ID}},
		&models.TimeSlot{SlotType: models.SlotTypeRedirect, SlotRef: models.SlotRef{RedirectChannelID: &target.ID}},
		&models.TimeSlot{SlotType: models.SlotTypeSmartCollection, SlotRef: models.SlotRef{SmartCollectionID: &collection.ID}},
	)

	out, err := m.Materialize(context.Background(), ch.ID)
	require.NoError(t, err)
	require.Len(t, out.TimeSlots, 5)

	showContent := out.TimeSlots[0].Content.(*MaterializedShow)
	assert.Equal(t, 4, showContent.Show.ChildCount)
	assert.Equal(t, f.Library.ID, showContent.Show.Library.ID)

	customContent := out.TimeSlots[2].Content.(*MaterializedCustomShow)
	assert.Equal(t, 2, customContent.ContentCount)

	redirect := out.TimeSlots[3].Content.(*MaterializedRedirect)
	assert.Equal(t, target.Number, redirect.ChannelNumber)
	assert.Nil(t, redirect.ScheduleType)

	smart := out.TimeSlots[4].Content.(*MaterializedSmartCollection)
	assert.Equal(t, "Movies", smart.Name)
}

func TestMaterialize_DanglingRedirect(t *testing.T) {
	m, f := setupMaterializer(t)

	ch := f.Channel(1, "Redirector")
	missing := uuid.New()
	f.TimeSchedule(ch, &models.TimeSlot{SlotType: models.SlotTypeRedirect, SlotRef: models.SlotRef{RedirectChannelID: &missing}})

	_, err := m.Materialize(context.Background(), ch.ID)
	integrity, ok := AsDataIntegrity(err)
	require.True(t, ok)
	assert.Equal(t, missing, integrity.RefID)
	assert.Equal(t, models.SlotTypeRedirect, integrity.RefType)
}

func TestMaterialize_NoSchedule(t *testing.T) {
	m, f := setupMaterializer(t)
	ch := f.Channel(1, "Empty")

	out, err := m.Materialize(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMaterialize_UnknownChannel(t *testing.T) {
	m, _ := setupMaterializer(t)

	_, err := m.Materialize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalog.ErrChannelNotFound)
}

func TestMaterialize_InfiniteSchedule(t *testing.T) {
	m, f := setupMaterializer(t)

	ch := f.Channel(1, "Infinite")
	show, _ := f.Show("Show", 3, 60_000)
	list := f.FillerList("Filler", f.Programs("Bumper", models.ProgramTypeOther, 2, 10_000))
	f.InfiniteSchedule(ch, &models.ChannelSchedule{BufferDays: 2, BufferThresholdDays: 1},
		&models.InfiniteSlot{SlotType: models.SlotTypeShow, Weight: 3, SlotRef: models.SlotRef{ShowID: &show.ID}},
		&models.InfiniteSlot{SlotType: models.SlotTypeFiller, Weight: 1, CooldownMs: 60_000, SlotRef: models.SlotRef{FillerListID: &list.ID}},
	)

	out, err := m.Materialize(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleTypeInfinite, out.Type)
	require.Len(t, out.InfiniteSlots, 2)
	assert.Equal(t, 3.0, out.InfiniteSlots[0].Weight)
	assert.Equal(t, int64(60_000), out.InfiniteSlots[1].CooldownMs)
	assert.Equal(t, 2, out.InfiniteSlots[1].Content.(*MaterializedFillerList).ContentCount)
}

func TestMaterialize_MalformedSlotRef(t *testing.T) {
	m, f := setupMaterializer(t)

	ch := f.Channel(1, "Broken")
	f.TimeSchedule(ch, &models.TimeSlot{SlotType: models.SlotTypeShow})

	_, err := m.Materialize(context.Background(), ch.ID)
	assert.True(t, IsDataIntegrity(err))
}
