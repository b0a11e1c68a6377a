package timeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/models"
)

// contiguousItems builds back-to-back items starting at start
func contiguousItems(start time.Time, durations ...time.Duration) []*models.GeneratedScheduleItem {
	items := make([]*models.GeneratedScheduleItem, len(durations))
	at := start.UnixMilli()
	for i, d := range durations {
		programID := uuid.New()
		items[i] = &models.GeneratedScheduleItem{
			ID:            uuid.New(),
			SequenceIndex: int64(i),
			StartTimeMs:   at,
			DurationMs:    d.Milliseconds(),
			ItemType:      models.GeneratedItemProgram,
			ProgramID:     &programID,
		}
		at += d.Milliseconds()
	}
	return items
}

func TestCalculatePosition(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	items := contiguousItems(start, 30*time.Minute, 10*time.Minute, time.Hour)

	tests := []struct {
		name       string
		at         time.Time
		wantIndex  int
		wantOffset time.Duration
	}{
		{name: "first item start", at: start, wantIndex: 0},
		{name: "inside first item", at: start.Add(12 * time.Minute), wantIndex: 0, wantOffset: 12 * time.Minute},
		{name: "boundary belongs to next item", at: start.Add(30 * time.Minute), wantIndex: 1},
		{name: "last millisecond", at: start.Add(100*time.Minute - time.Millisecond), wantIndex: 2, wantOffset: time.Hour - time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := CalculatePosition(tt.at, items)
			require.NoError(t, err)
			want := items[tt.wantIndex]
			assert.Equal(t, want.ID, pos.ItemID)
			assert.Equal(t, want.ProgramID, pos.ProgramID)
			assert.Equal(t, tt.wantOffset.Milliseconds(), pos.OffsetMs)
			assert.Equal(t, want.DurationMs, pos.DurationMs)
			assert.Equal(t, time.UnixMilli(want.StartTimeMs).UTC(), pos.StartedAt)
			assert.Equal(t, pos.StartedAt.Add(time.Duration(want.DurationMs)*time.Millisecond), pos.EndsAt)
		})
	}
}

func TestCalculatePosition_NothingScheduled(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	items := contiguousItems(start, 30*time.Minute)

	_, err := CalculatePosition(start, nil)
	assert.True(t, IsNothingScheduled(err))

	_, err = CalculatePosition(start.Add(-time.Second), items)
	assert.True(t, IsNothingScheduled(err), "before the first item")

	_, err = CalculatePosition(start.Add(30*time.Minute), items)
	assert.True(t, IsNothingScheduled(err), "after the buffer ends")
}
