package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/models"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

func TestWeekday(t *testing.T) {
	for _, day := range []time.Time{
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		baseTime,
		time.Date(1969, 12, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 7, 14, 0, 0, 0, 0, time.UTC),
	} {
		idx := newAnchorClock(0).localDay(day.UnixMilli())
		assert.Equal(t, int(day.Weekday()), weekday(idx), day.String())
	}
}

func TestAnchorOccurrences(t *testing.T) {
	slot := &models.InfiniteSlot{AnchorTimeMs: testutil.Int64Ptr(18 * hourMs)}
	clock := newAnchorClock(0)
	sixPM := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC).UnixMilli()

	last, ok := clock.lastOccurrence(slot, baseTime.UnixMilli())
	require.True(t, ok)
	assert.Equal(t, sixPM-dayMs, last)

	last, ok = clock.lastOccurrence(slot, sixPM)
	require.True(t, ok)
	assert.Equal(t, sixPM, last, "an anchor at t is its own last occurrence")

	next, ok := clock.nextOccurrence(slot, sixPM)
	require.True(t, ok)
	assert.Equal(t, sixPM+dayMs, next, "next occurrence is strictly after t")

	_, ok = clock.nextOccurrence(&models.InfiniteSlot{}, sixPM)
	assert.False(t, ok)
}

func TestAnchorOccurrences_DayMask(t *testing.T) {
	// Only Fridays; baseTime is a Monday
	slot := &models.InfiniteSlot{
		AnchorTimeMs: testutil.Int64Ptr(9 * hourMs),
		AnchorDays:   models.AnchorFriday,
	}
	clock := newAnchorClock(0)

	next, ok := clock.nextOccurrence(slot, baseTime.UnixMilli())
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC).UnixMilli(), next)

	last, ok := clock.lastOccurrence(slot, baseTime.UnixMilli())
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC).UnixMilli(), last)
}

func TestAnchorOccurrences_TimeZone(t *testing.T) {
	// 18:00 at UTC-5 is 23:00 UTC
	slot := &models.InfiniteSlot{AnchorTimeMs: testutil.Int64Ptr(18 * hourMs)}
	clock := newAnchorClock(-300)

	next, ok := clock.nextOccurrence(slot, baseTime.UnixMilli())
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC).UnixMilli(), next)
}

func TestComputePadding(t *testing.T) {
	start := baseTime.UnixMilli()
	tests := []struct {
		name     string
		sched    *models.ChannelSchedule
		slot     *models.InfiniteSlot
		tz       int
		duration int64
		want     padding
	}{
		{
			name:     "no padding",
			sched:    &models.ChannelSchedule{FlexPreference: models.FlexPreferenceEnd},
			slot:     &models.InfiniteSlot{},
			duration: 25 * minuteMs,
		},
		{
			name:     "schedule pad after",
			sched:    &models.ChannelSchedule{PadMs: 30 * minuteMs, FlexPreference: models.FlexPreferenceEnd},
			slot:     &models.InfiniteSlot{},
			duration: 25 * minuteMs,
			want:     padding{after: 5 * minuteMs},
		},
		{
			name:     "schedule pad before",
			sched:    &models.ChannelSchedule{PadMs: 30 * minuteMs, FlexPreference: models.FlexPreferenceStart},
			slot:     &models.InfiniteSlot{},
			duration: 25 * minuteMs,
			want:     padding{before: 5 * minuteMs},
		},
		{
			name:     "distributed",
			sched:    &models.ChannelSchedule{PadMs: 30 * minuteMs, FlexPreference: models.FlexPreferenceDistribute},
			slot:     &models.InfiniteSlot{},
			duration: 25*minuteMs + 1,
			want:     padding{before: (5*minuteMs - 1) / 2, after: 5*minuteMs - 1 - (5*minuteMs-1)/2},
		},
		{
			name:     "already aligned",
			sched:    &models.ChannelSchedule{PadMs: 30 * minuteMs, FlexPreference: models.FlexPreferenceEnd},
			slot:     &models.InfiniteSlot{},
			duration: 60 * minuteMs,
		},
		{
			name:     "slot pad overrides schedule",
			sched:    &models.ChannelSchedule{PadMs: 30 * minuteMs, FlexPreference: models.FlexPreferenceEnd},
			slot:     &models.InfiniteSlot{PadMs: testutil.Int64Ptr(15 * minuteMs)},
			duration: 25 * minuteMs,
			want:     padding{after: 5 * minuteMs},
		},
		{
			name:     "pad to multiple rounds the length",
			sched:    &models.ChannelSchedule{PadMs: 30 * minuteMs, FlexPreference: models.FlexPreferenceEnd},
			slot:     &models.InfiniteSlot{PadToMultiple: testutil.Int64Ptr(60 * minuteMs)},
			duration: 25 * minuteMs,
			want:     padding{after: 35 * minuteMs},
		},
		{
			name:     "local wall clock",
			sched:    &models.ChannelSchedule{PadMs: 60 * minuteMs, FlexPreference: models.FlexPreferenceEnd},
			slot:     &models.InfiniteSlot{},
			tz:       330,
			duration: 25 * minuteMs,
			want:     padding{after: 5 * minuteMs},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computePadding(tt.sched, tt.slot, newAnchorClock(tt.tz), start, tt.duration)
			assert.Equal(t, tt.want, got)
		})
	}
}
