package schedule

import (
	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/models"
)

// MaterializedSchedule is the request-scoped, fully resolved form of a channel's schedule
type MaterializedSchedule struct {
	ChannelID           uuid.UUID                   `json:"channel_id"`
	ScheduleID          uuid.UUID                   `json:"schedule_id"`
	Type                models.ScheduleType         `json:"type"`
	PadMs               int64                       `json:"pad_ms"`
	FlexPreference      models.FlexPreference       `json:"flex_preference"`
	TimeZoneOffset      int                         `json:"time_zone_offset"`
	PeriodMs            int64                       `json:"period_ms,omitempty"`
	BufferDays          int                         `json:"buffer_days,omitempty"`
	BufferThresholdDays int                         `json:"buffer_threshold_days,omitempty"`
	TimeSlots           []*MaterializedTimeSlot     `json:"time_slots,omitempty"`
	InfiniteSlots       []*MaterializedInfiniteSlot `json:"infinite_slots,omitempty"`
}

// MaterializedTimeSlot is a resolved time schedule slot
type MaterializedTimeSlot struct {
	SlotIndex     int                 `json:"slot_index"`
	StartOffsetMs int64               `json:"start_offset_ms"`
	Order         models.SlotOrder    `json:"order"`
	Content       MaterializedContent `json:"content"`
}

// MaterializedInfiniteSlot is a resolved infinite schedule slot
type MaterializedInfiniteSlot struct {
	SlotIndex     int                 `json:"slot_index"`
	Order         models.SlotOrder    `json:"order"`
	Weight        float64             `json:"weight"`
	CooldownMs    int64               `json:"cooldown_ms"`
	PadMs         *int64              `json:"pad_ms,omitempty"`
	PadToMultiple *int64              `json:"pad_to_multiple,omitempty"`
	DurationMs    *int64              `json:"duration_ms,omitempty"`
	AnchorMode    models.AnchorMode   `json:"anchor_mode"`
	AnchorTimeMs  *int64              `json:"anchor_time_ms,omitempty"`
	AnchorDays    int                 `json:"anchor_days,omitempty"`
	Content       MaterializedContent `json:"content"`
}

// MaterializedContent is the resolved content of a slot; one variant per Slot variant
type MaterializedContent interface {
	SlotType() models.SlotType
	materialized()
}

// MaterializedShow is a resolved show slot
type MaterializedShow struct {
	Type models.SlotType       `json:"type"`
	Show *materialize.Grouping `json:"show"`
}

// MaterializedFillerList is a resolved filler slot
type MaterializedFillerList struct {
	Type         models.SlotType `json:"type"`
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	ContentCount int             `json:"content_count"`
}

// MaterializedCustomShow is a resolved custom show slot
type MaterializedCustomShow struct {
	Type         models.SlotType `json:"type"`
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	ContentCount int             `json:"content_count"`
}

// MaterializedRedirect is a resolved redirect slot
type MaterializedRedirect struct {
	Type          models.SlotType      `json:"type"`
	ChannelID     uuid.UUID            `json:"channel_id"`
	ChannelNumber int                  `json:"channel_number"`
	ChannelName   string               `json:"channel_name"`
	ScheduleType  *models.ScheduleType `json:"schedule_type,omitempty"`
}

// MaterializedSmartCollection is a resolved smart collection slot
type MaterializedSmartCollection struct {
	Type        models.SlotType `json:"type"`
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	LibraryID   *uuid.UUID      `json:"library_id,omitempty"`
	ProgramType *string         `json:"program_type,omitempty"`
}

func (c *MaterializedShow) SlotType() models.SlotType            { return c.Type }
func (c *MaterializedFillerList) SlotType() models.SlotType      { return c.Type }
func (c *MaterializedCustomShow) SlotType() models.SlotType      { return c.Type }
func (c *MaterializedRedirect) SlotType() models.SlotType        { return c.Type }
func (c *MaterializedSmartCollection) SlotType() models.SlotType { return c.Type }

func (*MaterializedShow) materialized()            {}
func (*MaterializedFillerList) materialized()      {}
func (*MaterializedCustomShow) materialized()      {}
func (*MaterializedRedirect) materialized()        {}
func (*MaterializedSmartCollection) materialized() {}
