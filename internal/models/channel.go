package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel is a numbered virtual channel. It owns at most one ChannelSchedule;
// deleting the channel cascades to the schedule and its generated timeline.
type Channel struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Number    int       `json:"number" gorm:"type:integer;not null;uniqueIndex;column:number"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name"`
	Icon      *string   `json:"icon,omitempty" gorm:"type:text;column:icon"`
	StartTime time.Time `json:"start_time" gorm:"type:datetime;not null;column:start_time"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName pins the table created by the channels migration
func (Channel) TableName() string {
	return "channels"
}

// NewChannel returns a channel with a fresh ID. The name is trimmed and the
// start time stored in UTC.
func NewChannel(number int, name string, startTime time.Time) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:        uuid.New(),
		Number:    number,
		Name:      strings.TrimSpace(name),
		StartTime: startTime.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
