// Package timeline answers what is on air on a channel at a given moment by
// reading the channel's generated schedule items.
package timeline

import (
	"sort"
	"time"

	"github.com/stwalsh4118/lineup/internal/models"
)

// CalculatePosition finds the item on air at currentTime.
// This is a pure function with no I/O: items must be ordered by sequence index
// and contiguous, as the generator writes them.
//
// Returns:
//   - TimelinePosition: Current playback position without Title populated
//   - error: ErrNothingScheduled when no item covers currentTime
func CalculatePosition(currentTime time.Time, items []*models.GeneratedScheduleItem) (*TimelinePosition, error) {
	nowMs := currentTime.UnixMilli()

	// First item that ends after now; contiguous items keep ends sorted
	i := sort.Search(len(items), func(i int) bool {
		return items[i].EndTimeMs() > nowMs
	})
	if i == len(items) || items[i].StartTimeMs > nowMs {
		return nil, ErrNothingScheduled
	}

	item := items[i]
	return &TimelinePosition{
		ItemID:            item.ID,
		SequenceIndex:     item.SequenceIndex,
		ItemType:          item.ItemType,
		ProgramID:         item.ProgramID,
		RedirectChannelID: item.RedirectChannelID,
		OffsetMs:          nowMs - item.StartTimeMs,
		StartedAt:         time.UnixMilli(item.StartTimeMs).UTC(),
		EndsAt:            time.UnixMilli(item.EndTimeMs()).UTC(),
		DurationMs:        item.DurationMs,
	}, nil
}
