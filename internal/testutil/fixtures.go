// Package testutil builds migrated temp-file databases and catalog fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/models"
)

// MigrationsPath returns the file:// URL of the repository's migrations directory
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return "file://" + filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewDB creates a migrated temp-file database closed at test cleanup
func NewDB(t *testing.T) (*db.DB, *db.Repositories) {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, MigrationsPath()))

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database, db.NewRepositories(database)
}

// Fixtures seeds catalog and schedule rows into a test database
type Fixtures struct {
	t       *testing.T
	ctx     context.Context
	DB      *db.DB
	Repos   *db.Repositories
	Source  *models.MediaSource
	Library *models.MediaLibrary
}

// NewFixtures creates a database with one media source and library
func NewFixtures(t *testing.T) *Fixtures {
	t.Helper()
	database, repos := NewDB(t)
	f := &Fixtures{t: t, ctx: context.Background(), DB: database, Repos: repos}

	f.Source = &models.MediaSource{ID: uuid.New(), Name: "Test Plex", Type: models.MediaSourcePlex}
	require.NoError(t, repos.Catalog.CreateMediaSource(f.ctx, f.Source))

	f.Library = &models.MediaLibrary{ID: uuid.New(), MediaSourceID: f.Source.ID, Name: "TV", MediaType: "show"}
	require.NoError(t, repos.Catalog.CreateLibrary(f.ctx, f.Library))

	return f
}

// Show creates a show with one season holding the given number of episodes
func (f *Fixtures) Show(title string, episodes int, durationMs int64) (*models.ProgramGrouping, []*models.Program) {
	f.t.Helper()

	show := &models.ProgramGrouping{
		ID:            uuid.New(),
		MediaSourceID: f.Source.ID,
		LibraryID:     f.Library.ID,
		Type:          models.GroupingTypeShow,
		Title:         title,
	}
	require.NoError(f.t, f.Repos.Catalog.CreateGrouping(f.ctx, show))

	seasonNumber := 1
	season := &models.ProgramGrouping{
		ID:            uuid.New(),
		MediaSourceID: f.Source.ID,
		LibraryID:     f.Library.ID,
		Type:          models.GroupingTypeSeason,
		Title:         "Season 1",
		ParentID:      &show.ID,
		Index:         &seasonNumber,
	}
	require.NoError(f.t, f.Repos.Catalog.CreateGrouping(f.ctx, season))

	programs := make([]*models.Program, episodes)
	for i := range programs {
		episodeNumber := i + 1
		p := models.NewProgram(f.Source.ID, f.Library.ID, models.ProgramTypeEpisode,
			fmt.Sprintf("%s S01E%02d", title, episodeNumber), durationMs)
		p.ShowID = &show.ID
		p.SeasonID = &season.ID
		p.SeasonNumber = &seasonNumber
		p.EpisodeNumber = &episodeNumber
		programs[i] = p
	}
	require.NoError(f.t, f.Repos.Catalog.CreatePrograms(f.ctx, programs))
	return show, programs
}

// Programs creates standalone programs of the given type
func (f *Fixtures) Programs(prefix, programType string, n int, durationMs int64) []*models.Program {
	f.t.Helper()
	programs := make([]*models.Program, n)
	for i := range programs {
		programs[i] = models.NewProgram(f.Source.ID, f.Library.ID, programType, fmt.Sprintf("%s %02d", prefix, i+1), durationMs)
	}
	require.NoError(f.t, f.Repos.Catalog.CreatePrograms(f.ctx, programs))
	return programs
}

// FillerList creates a filler list holding the given programs
func (f *Fixtures) FillerList(name string, programs []*models.Program) *models.FillerList {
	f.t.Helper()
	list := &models.FillerList{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(f.t, f.Repos.FillerLists.Create(f.ctx, list, programIDs(programs)))
	return list
}

// CustomShow creates a custom show holding the given programs in order
func (f *Fixtures) CustomShow(name string, programs []*models.Program) *models.CustomShow {
	f.t.Helper()
	show := &models.CustomShow{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(f.t, f.Repos.CustomShows.Create(f.ctx, show, programIDs(programs)))
	return show
}

// SmartCollection creates a smart collection over the fixture library filtered by program type
func (f *Fixtures) SmartCollection(name, programType string) *models.SmartCollection {
	f.t.Helper()
	collection := &models.SmartCollection{ID: uuid.New(), Name: name, LibraryID: &f.Library.ID, ProgramType: &programType}
	require.NoError(f.t, f.Repos.SmartCollections.Create(f.ctx, collection))
	return collection
}

// Channel creates a channel
func (f *Fixtures) Channel(number int, name string) *models.Channel {
	f.t.Helper()
	ch := models.NewChannel(number, name, time.Now().UTC().Add(-time.Hour))
	require.NoError(f.t, f.Repos.Channels.Create(f.ctx, ch))
	return ch
}

// InfiniteSchedule attaches an infinite schedule with the given slots to a channel.
// Zero-valued defaults are filled in: ids, slot indexes, order, anchor mode, flex preference.
func (f *Fixtures) InfiniteSchedule(channel *models.Channel, sched *models.ChannelSchedule, slots ...*models.InfiniteSlot) *models.ChannelSchedule {
	f.t.Helper()
	sched.ID = uuid.New()
	sched.ChannelID = channel.ID
	sched.Type = models.ScheduleTypeInfinite
	if sched.FlexPreference == "" {
		sched.FlexPreference = models.FlexPreferenceEnd
	}
	require.NoError(f.t, f.Repos.Schedules.Create(f.ctx, sched))

	for i, slot := range slots {
		slot.ID = uuid.New()
		slot.ScheduleID = sched.ID
		slot.SlotIndex = i
		if slot.Order == "" {
			slot.Order = models.SlotOrderNext
		}
		if slot.AnchorMode == "" {
			slot.AnchorMode = models.AnchorModeNone
		}
		if slot.Weight == 0 {
			slot.Weight = 1
		}
		require.NoError(f.t, f.Repos.Schedules.CreateInfiniteSlot(f.ctx, slot))
	}
	sched.InfiniteSlots = slots
	return sched
}

// TimeSchedule attaches a time schedule with the given slots to a channel
func (f *Fixtures) TimeSchedule(channel *models.Channel, slots ...*models.TimeSlot) *models.ChannelSchedule {
	f.t.Helper()
	sched := &models.ChannelSchedule{
		ID:             uuid.New(),
		ChannelID:      channel.ID,
		Type:           models.ScheduleTypeTime,
		FlexPreference: models.FlexPreferenceEnd,
		PeriodMs:       24 * time.Hour.Milliseconds(),
	}
	require.NoError(f.t, f.Repos.Schedules.Create(f.ctx, sched))

	for i, slot := range slots {
		slot.ID = uuid.New()
		slot.SlotIndex = i
		if slot.Order == "" {
			slot.Order = models.SlotOrderNext
		}
	}
	require.NoError(f.t, f.Repos.Schedules.ReplaceTimeSlots(f.ctx, sched.ID, slots))
	sched.TimeSlots = slots
	return sched
}

// IDPtr returns a pointer to a copy of id
func IDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}

func programIDs(programs []*models.Program) []uuid.UUID {
	ids := make([]uuid.UUID, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
	}
	return ids
}
