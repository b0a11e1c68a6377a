package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

// recordingRegenerator captures the background work requested by the services
type recordingRegenerator struct {
	mu        sync.Mutex
	triggered []uuid.UUID
	canceled  []uuid.UUID
}

func (r *recordingRegenerator) Trigger(channelID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggered = append(r.triggered, channelID)
}

func (r *recordingRegenerator) Cancel(channelID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = append(r.canceled, channelID)
}

// setupTestService creates a service with a test database
func setupTestService(t *testing.T) (*ChannelService, *db.DB, *recordingRegenerator) {
	t.Helper()
	database, repos := testutil.NewDB(t)
	regen := &recordingRegenerator{}
	return NewChannelService(repos, regen), database, regen
}

func TestCreateChannel_Success(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	icon := "icon.png"
	startTime := time.Now()

	channel, err := service.CreateChannel(ctx, 7, "  Test Channel ", &icon, startTime)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, channel.ID)
	assert.Equal(t, 7, channel.Number)
	assert.Equal(t, "Test Channel", channel.Name)
	assert.Equal(t, &icon, channel.Icon)
	assert.Equal(t, time.UTC, channel.StartTime.Location())

	found, err := service.GetByID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, channel.Name, found.Name)
}

func TestCreateChannel_DuplicateName(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateChannel(ctx, 1, "News", nil, time.Now())
	require.NoError(t, err)

	_, err = service.CreateChannel(ctx, 2, "NEWS", nil, time.Now())
	assert.True(t, IsDuplicateName(err))
}

func TestCreateChannel_DuplicateNumber(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateChannel(ctx, 1, "News", nil, time.Now())
	require.NoError(t, err)

	_, err = service.CreateChannel(ctx, 1, "Sports", nil, time.Now())
	assert.True(t, IsDuplicateNumber(err))
}

func TestCreateChannel_InvalidInput(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateChannel(ctx, 0, "Zero", nil, time.Now())
	assert.True(t, IsInvalidNumber(err))

	_, err = service.CreateChannel(ctx, 1, "Future", nil, time.Now().Add(400*24*time.Hour))
	assert.True(t, IsInvalidStartTime(err))
}

func TestGetByID_NotFound(t *testing.T) {
	service, _, _ := setupTestService(t)

	_, err := service.GetByID(context.Background(), uuid.New())
	assert.True(t, IsChannelNotFound(err))
}

func TestList_OrderedByNumber(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	channels, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	for _, n := range []int{3, 1, 2} {
		_, err := service.CreateChannel(ctx, n, uuid.NewString(), nil, time.Now())
		require.NoError(t, err)
	}

	channels, err = service.List(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 3)
	for i, ch := range channels {
		assert.Equal(t, i+1, ch.Number)
	}
}

func TestUpdateChannel(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	first, err := service.CreateChannel(ctx, 1, "First", nil, time.Now())
	require.NoError(t, err)
	_, err = service.CreateChannel(ctx, 2, "Second", nil, time.Now())
	require.NoError(t, err)

	first.Name = "Renamed"
	first.Number = 10
	require.NoError(t, service.UpdateChannel(ctx, first))

	found, err := service.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Name)
	assert.Equal(t, 10, found.Number)

	first.Name = "second"
	assert.True(t, IsDuplicateName(service.UpdateChannel(ctx, first)))

	first.Name = "Renamed"
	first.Number = 2
	assert.True(t, IsDuplicateNumber(service.UpdateChannel(ctx, first)))

	first.Number = 10
	first.StartTime = time.Now().Add(400 * 24 * time.Hour)
	assert.True(t, IsInvalidStartTime(service.UpdateChannel(ctx, first)))

	missing := *first
	missing.ID = uuid.New()
	assert.True(t, IsChannelNotFound(service.UpdateChannel(ctx, &missing)))
}

func TestDeleteChannel_CancelsGeneration(t *testing.T) {
	service, _, regen := setupTestService(t)
	ctx := context.Background()

	channel, err := service.CreateChannel(ctx, 1, "Doomed", nil, time.Now())
	require.NoError(t, err)

	require.NoError(t, service.DeleteChannel(ctx, channel.ID))
	assert.Equal(t, []uuid.UUID{channel.ID}, regen.canceled)

	_, err = service.GetByID(ctx, channel.ID)
	assert.True(t, IsChannelNotFound(err))

	assert.True(t, IsChannelNotFound(service.DeleteChannel(ctx, channel.ID)))
}
