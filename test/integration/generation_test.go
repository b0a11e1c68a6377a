//go:build integration
// +build integration

package integration

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/api"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/timeline"
)

func TestSweeperFillsNewSchedule(t *testing.T) {
	s := setupTestServer(t)

	show, _ := s.fixtures.Show("Late Night", 6, 15*60*1000)
	bumpers := s.fixtures.FillerList("Bumpers", s.fixtures.Programs("Bumper", models.ProgramTypeOther, 3, 30*1000))

	var created api.ChannelResponse
	status := s.do(t, http.MethodPost, "/api/channels", api.CreateChannelRequest{Number: 12, Name: "Late Night"}, &created)
	require.Equal(t, http.StatusCreated, status)

	status = s.do(t, http.MethodPut, "/api/channels/"+created.ID+"/schedule", api.ScheduleRequest{
		Type:       models.ScheduleTypeInfinite,
		BufferDays: 1,
		InfiniteSlots: []*models.InfiniteSlot{
			{SlotType: models.SlotTypeShow, Weight: 4, SlotRef: models.SlotRef{ShowID: &show.ID}},
			{SlotType: models.SlotTypeFiller, Weight: 1, CooldownMs: 10 * 60 * 1000, SlotRef: models.SlotRef{FillerListID: &bumpers.ID}},
		},
	}, nil)
	require.Equal(t, http.StatusOK, status)

	// The edit queues the channel; the sweeper fills it without an explicit generate call
	var pos timeline.TimelinePosition
	require.Eventually(t, func() bool {
		return s.do(t, http.MethodGet, "/api/channels/"+created.ID+"/current", nil, &pos) == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond)

	assert.Equal(t, models.GeneratedItemProgram, pos.ItemType)
	require.NotNil(t, pos.ProgramID)

	var items api.ItemsResponse
	status = s.do(t, http.MethodGet, "/api/channels/"+created.ID+"/schedule/items", nil, &items)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, items.Items)
	for i := 1; i < len(items.Items); i++ {
		assert.Equal(t, items.Items[i-1].EndTimeMs(), items.Items[i].StartTimeMs)
	}
}

func TestEditInvalidatesFutureTimeline(t *testing.T) {
	s := setupTestServer(t)

	first, _ := s.fixtures.Show("First", 4, 10*60*1000)
	second, secondEpisodes := s.fixtures.Show("Second", 4, 10*60*1000)

	var created api.ChannelResponse
	require.Equal(t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/channels", api.CreateChannelRequest{Number: 3, Name: "Swap"}, &created))
	path := "/api/channels/" + created.ID

	put := func(show *models.ProgramGrouping) {
		status := s.do(t, http.MethodPut, path+"/schedule", api.ScheduleRequest{
			Type:       models.ScheduleTypeInfinite,
			BufferDays: 1,
			InfiniteSlots: []*models.InfiniteSlot{
				{SlotType: models.SlotTypeShow, Weight: 1, SlotRef: models.SlotRef{ShowID: &show.ID}},
			},
		}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	put(first)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/schedule/generate", nil, nil))

	put(second)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/schedule/generate", nil, nil))

	// Everything from a minute out is regenerated from the new definition
	from := time.Now().Add(time.Minute).UnixMilli()
	var items api.ItemsResponse
	require.Equal(t, http.StatusOK,
		s.do(t, http.MethodGet, fmt.Sprintf("%s/schedule/items?from=%d", path, from), nil, &items))
	require.NotEmpty(t, items.Items)

	secondIDs := make(map[string]bool, len(secondEpisodes))
	for _, ep := range secondEpisodes {
		secondIDs[ep.ID.String()] = true
	}
	for _, item := range items.Items {
		if item.StartTimeMs < from || item.ProgramID == nil {
			continue
		}
		assert.True(t, secondIDs[item.ProgramID.String()], "item at %d still plays the old show", item.StartTimeMs)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client().Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
