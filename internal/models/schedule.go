package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelSchedule is the persisted schedule definition of a channel.
// Type selects which of the variant-specific fields are meaningful.
type ChannelSchedule struct {
	ID                  uuid.UUID      `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID           uuid.UUID      `json:"channel_id" gorm:"type:text;not null;uniqueIndex;column:channel_id"`
	Type                ScheduleType   `json:"type" gorm:"type:text;not null;column:type"`
	PadMs               int64          `json:"pad_ms" gorm:"type:integer;not null;default:0;column:pad_ms"`
	FlexPreference      FlexPreference `json:"flex_preference" gorm:"type:text;not null;default:end;column:flex_preference"`
	TimeZoneOffset      int            `json:"time_zone_offset" gorm:"type:integer;not null;default:0;column:time_zone_offset"` // minutes east of UTC
	PeriodMs            int64          `json:"period_ms" gorm:"type:integer;not null;default:0;column:period_ms"`               // time schedules only
	BufferDays          int            `json:"buffer_days" gorm:"type:integer;not null;default:0;column:buffer_days"`           // infinite schedules only
	BufferThresholdDays int            `json:"buffer_threshold_days" gorm:"type:integer;not null;default:0;column:buffer_threshold_days"`
	CreatedAt           time.Time      `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`

	// Populated by repository loads, not stored on this row
	TimeSlots     []*TimeSlot     `json:"time_slots,omitempty" gorm:"-"`
	InfiniteSlots []*InfiniteSlot `json:"infinite_slots,omitempty" gorm:"-"`
}

// TableName overrides the gorm default
func (ChannelSchedule) TableName() string { return "channel_schedules" }

// SlotRef holds the content reference of a slot. Exactly one field is set.
type SlotRef struct {
	ShowID            *uuid.UUID `json:"show_id,omitempty" gorm:"type:text;column:show_id"`
	CustomShowID      *uuid.UUID `json:"custom_show_id,omitempty" gorm:"type:text;column:custom_show_id"`
	FillerListID      *uuid.UUID `json:"filler_list_id,omitempty" gorm:"type:text;column:filler_list_id"`
	RedirectChannelID *uuid.UUID `json:"redirect_channel_id,omitempty" gorm:"type:text;column:redirect_channel_id"`
	SmartCollectionID *uuid.UUID `json:"smart_collection_id,omitempty" gorm:"type:text;column:smart_collection_id"`
}

// TimeSlot is a slot of a time schedule, starting at a fixed offset into the period
type TimeSlot struct {
	ID            uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ScheduleID    uuid.UUID `json:"schedule_id" gorm:"type:text;not null;column:schedule_id"`
	SlotIndex     int       `json:"slot_index" gorm:"type:integer;not null;column:slot_index"`
	StartOffsetMs int64     `json:"start_offset_ms" gorm:"type:integer;not null;column:start_offset_ms"`
	SlotType      SlotType  `json:"slot_type" gorm:"type:text;not null;column:slot_type"`
	Order         SlotOrder `json:"order" gorm:"type:text;not null;default:next;column:slot_order"`
	SlotRef       `gorm:"embedded"`
}

// TableName overrides the gorm default
func (TimeSlot) TableName() string { return "time_slots" }

// InfiniteSlot is a weighted slot of an infinite schedule
type InfiniteSlot struct {
	ID            uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	ScheduleID    uuid.UUID  `json:"schedule_id" gorm:"type:text;not null;column:schedule_id"`
	SlotIndex     int        `json:"slot_index" gorm:"type:integer;not null;column:slot_index"`
	SlotType      SlotType   `json:"slot_type" gorm:"type:text;not null;column:slot_type"`
	Order         SlotOrder  `json:"order" gorm:"type:text;not null;default:next;column:slot_order"`
	Weight        float64    `json:"weight" gorm:"type:real;not null;column:weight"`
	CooldownMs    int64      `json:"cooldown_ms" gorm:"type:integer;not null;default:0;column:cooldown_ms"`
	PadMs         *int64     `json:"pad_ms,omitempty" gorm:"type:integer;column:pad_ms"`
	PadToMultiple *int64     `json:"pad_to_multiple,omitempty" gorm:"type:integer;column:pad_to_multiple"`
	DurationMs    *int64     `json:"duration_ms,omitempty" gorm:"type:integer;column:duration_ms"`
	AnchorTimeMs  *int64     `json:"anchor_time_ms,omitempty" gorm:"type:integer;column:anchor_time_ms"` // offset from local midnight
	AnchorMode    AnchorMode `json:"anchor_mode" gorm:"type:text;not null;default:none;column:anchor_mode"`
	AnchorDays    int        `json:"anchor_days" gorm:"type:integer;not null;default:0;column:anchor_days"`
	SlotRef       `gorm:"embedded"`
}

// TableName overrides the gorm default
func (InfiniteSlot) TableName() string { return "infinite_slots" }

// SameContent reports whether two infinite slots draw from the same content the same way.
// Slot state survives a schedule edit only when this holds.
func (s *InfiniteSlot) SameContent(other *InfiniteSlot) bool {
	return s.SlotType == other.SlotType &&
		s.Order == other.Order &&
		equalID(s.ShowID, other.ShowID) &&
		equalID(s.CustomShowID, other.CustomShowID) &&
		equalID(s.FillerListID, other.FillerListID) &&
		equalID(s.RedirectChannelID, other.RedirectChannelID) &&
		equalID(s.SmartCollectionID, other.SmartCollectionID)
}

func equalID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
