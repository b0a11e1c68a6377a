package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IndexList is a permutation of content indices persisted as a JSON array
type IndexList []int

// Value implements driver.Valuer
func (l IndexList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(l))
	if err != nil {
		return nil, fmt.Errorf("failed to encode index list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *IndexList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into IndexList", src)
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode index list: %w", err)
	}
	*l = out
	return nil
}

// SlotState is the resumable generation state of one infinite slot
type SlotState struct {
	SlotID            uuid.UUID `json:"slot_id" gorm:"type:text;primaryKey;column:slot_id"`
	ScheduleID        uuid.UUID `json:"schedule_id" gorm:"type:text;not null;column:schedule_id"`
	RngSeed           int64     `json:"rng_seed" gorm:"type:integer;not null;column:rng_seed"`
	RngUseCount       int64     `json:"rng_use_count" gorm:"type:integer;not null;default:0;column:rng_use_count"`
	IteratorPosition  int       `json:"iterator_position" gorm:"type:integer;not null;default:0;column:iterator_position"`
	ShuffleCycle      int       `json:"shuffle_cycle" gorm:"type:integer;not null;default:0;column:shuffle_cycle"`
	ShuffleOrder      IndexList `json:"shuffle_order" gorm:"type:text;not null;default:'[]';column:shuffle_order"`
	LastScheduledAtMs *int64    `json:"last_scheduled_at_ms,omitempty" gorm:"type:integer;column:last_scheduled_at_ms"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName overrides the gorm default
func (SlotState) TableName() string { return "slot_states" }

// Clone returns a deep copy so in-flight generation never mutates a loaded row
func (s *SlotState) Clone() *SlotState {
	out := *s
	if s.ShuffleOrder != nil {
		out.ShuffleOrder = append(IndexList(nil), s.ShuffleOrder...)
	}
	if s.LastScheduledAtMs != nil {
		v := *s.LastScheduledAtMs
		out.LastScheduledAtMs = &v
	}
	return &out
}

// ScheduleGenerationState is the schedule-level generation cursor of an infinite schedule
type ScheduleGenerationState struct {
	ScheduleID        uuid.UUID `json:"schedule_id" gorm:"type:text;primaryKey;column:schedule_id"`
	RngSeed           int64     `json:"rng_seed" gorm:"type:integer;not null;column:rng_seed"`
	RngUseCount       int64     `json:"rng_use_count" gorm:"type:integer;not null;default:0;column:rng_use_count"`
	NextSequenceIndex int64     `json:"next_sequence_index" gorm:"type:integer;not null;default:0;column:next_sequence_index"`
	HighWaterMarkMs   int64     `json:"high_water_mark_ms" gorm:"type:integer;not null;default:0;column:high_water_mark_ms"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName overrides the gorm default
func (ScheduleGenerationState) TableName() string { return "schedule_generation_states" }

// GeneratedScheduleItem is one concrete, timed entry of an infinite schedule's timeline
type GeneratedScheduleItem struct {
	ID                uuid.UUID         `json:"id" gorm:"type:text;primaryKey;column:id"`
	ScheduleID        uuid.UUID         `json:"schedule_id" gorm:"type:text;not null;column:schedule_id"`
	SequenceIndex     int64             `json:"sequence_index" gorm:"type:integer;not null;column:sequence_index"`
	StartTimeMs       int64             `json:"start_time_ms" gorm:"type:integer;not null;column:start_time_ms"`
	DurationMs        int64             `json:"duration_ms" gorm:"type:integer;not null;column:duration_ms"`
	ItemType          GeneratedItemType `json:"item_type" gorm:"type:text;not null;column:item_type"`
	SlotID            *uuid.UUID        `json:"slot_id,omitempty" gorm:"type:text;column:slot_id"`
	ProgramID         *uuid.UUID        `json:"program_id,omitempty" gorm:"type:text;column:program_id"`
	FillerListID      *uuid.UUID        `json:"filler_list_id,omitempty" gorm:"type:text;column:filler_list_id"`
	RedirectChannelID *uuid.UUID        `json:"redirect_channel_id,omitempty" gorm:"type:text;column:redirect_channel_id"`
	CreatedAt         time.Time         `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (GeneratedScheduleItem) TableName() string { return "generated_schedule_items" }

// EndTimeMs returns the exclusive end of the item
func (i *GeneratedScheduleItem) EndTimeMs() int64 {
	return i.StartTimeMs + i.DurationMs
}
