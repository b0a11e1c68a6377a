package generator

import "github.com/stwalsh4118/lineup/internal/models"

// padding is the flex placed around one program
type padding struct {
	before int64
	after  int64
}

func (p padding) total() int64 {
	return p.before + p.after
}

// computePadding sizes the flex for an item of durationMs starting at startMs.
// A slot's padToMultiple rounds the item length up; otherwise the effective pad
// (slot padMs, else the schedule's) aligns the item end to a multiple of the
// local wall clock.
func computePadding(sched *models.ChannelSchedule, slot *models.InfiniteSlot, clock anchorClock, startMs, durationMs int64) padding {
	var pad int64
	switch {
	case slot != nil && slot.PadToMultiple != nil && *slot.PadToMultiple > 0:
		pad = ceilMultiple(durationMs, *slot.PadToMultiple) - durationMs
	default:
		multiple := sched.PadMs
		if slot != nil && slot.PadMs != nil {
			multiple = *slot.PadMs
		}
		if multiple > 0 {
			localEnd := startMs + durationMs + clock.offsetMs
			pad = ceilMultiple(localEnd, multiple) - localEnd
		}
	}
	return placePadding(sched.FlexPreference, pad)
}

func placePadding(pref models.FlexPreference, pad int64) padding {
	if pad <= 0 {
		return padding{}
	}
	switch pref {
	case models.FlexPreferenceStart:
		return padding{before: pad}
	case models.FlexPreferenceDistribute:
		return padding{before: pad / 2, after: pad - pad/2}
	default:
		return padding{after: pad}
	}
}
