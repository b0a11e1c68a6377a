package timeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// TimelinePosition represents the current playback state of a channel at a given moment.
// It describes which generated item is on air and how far into it playback is.
//
//nolint:revive // Timeline prefix is intentional
type TimelinePosition struct {
	// ItemID is the generated schedule item on air
	ItemID uuid.UUID `json:"item_id"`

	// SequenceIndex is the item's position in the channel's timeline
	SequenceIndex int64 `json:"sequence_index"`

	// ItemType is program, flex or redirect
	ItemType models.GeneratedItemType `json:"item_type"`

	// ProgramID is set for program items
	ProgramID *uuid.UUID `json:"program_id,omitempty"`

	// Title is the program title for display purposes; empty for flex and redirect items
	Title string `json:"title,omitempty"`

	// RedirectChannelID is set for redirect items
	RedirectChannelID *uuid.UUID `json:"redirect_channel_id,omitempty"`

	// OffsetMs is the playback position within the current item
	OffsetMs int64 `json:"offset_ms"`

	// StartedAt is when the current item started playing
	StartedAt time.Time `json:"started_at"`

	// EndsAt is when the current item will finish playing
	EndsAt time.Time `json:"ends_at"`

	// DurationMs is the total duration of the current item
	DurationMs int64 `json:"duration_ms"`
}
