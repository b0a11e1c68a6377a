package generator

import "github.com/stwalsh4118/lineup/internal/models"

const dayMs = int64(24 * 60 * 60 * 1000)

// anchorClock converts between UTC epoch milliseconds and the schedule's local day
type anchorClock struct {
	offsetMs int64
}

func newAnchorClock(timeZoneOffsetMinutes int) anchorClock {
	return anchorClock{offsetMs: int64(timeZoneOffsetMinutes) * 60 * 1000}
}

// localDay returns the index of the local day containing t (day 0 is 1970-01-01)
func (c anchorClock) localDay(t int64) int64 {
	return floorDiv(t+c.offsetMs, dayMs)
}

// at returns the UTC instant of offsetMs into local day
func (c anchorClock) at(day, offsetMs int64) int64 {
	return day*dayMs + offsetMs - c.offsetMs
}

// weekday of a local day index, 0 = Sunday
func weekday(day int64) int {
	// 1970-01-01 was a Thursday
	return int(((day%7)+7+4) % 7)
}

func dayAllowed(mask int, day int64) bool {
	if mask == 0 {
		return true
	}
	return mask&(1<<weekday(day)) != 0
}

// lastOccurrence returns the latest anchor instant at or before t, false if the
// slot has no anchor time or no allowed day in the past week
func (c anchorClock) lastOccurrence(slot *models.InfiniteSlot, t int64) (int64, bool) {
	if slot.AnchorTimeMs == nil {
		return 0, false
	}
	day := c.localDay(t)
	for i := int64(0); i <= 7; i++ {
		d := day - i
		a := c.at(d, *slot.AnchorTimeMs)
		if a <= t && dayAllowed(slot.AnchorDays, d) {
			return a, true
		}
	}
	return 0, false
}

// nextOccurrence returns the earliest anchor instant strictly after t
func (c anchorClock) nextOccurrence(slot *models.InfiniteSlot, t int64) (int64, bool) {
	if slot.AnchorTimeMs == nil {
		return 0, false
	}
	day := c.localDay(t)
	for i := int64(0); i <= 7; i++ {
		d := day + i
		a := c.at(d, *slot.AnchorTimeMs)
		if a > t && dayAllowed(slot.AnchorDays, d) {
			return a, true
		}
	}
	return 0, false
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ceilMultiple rounds v up to the next multiple of m (m > 0)
func ceilMultiple(v, m int64) int64 {
	return -floorDiv(-v, m) * m
}
