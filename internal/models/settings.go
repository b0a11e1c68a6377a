package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultOfflineDurationMs is the length of one offline fallback block
const DefaultOfflineDurationMs = int64(5 * 60 * 1000)

// Settings represents system-wide scheduling configuration (singleton row)
type Settings struct {
	ID                   int        `json:"id" gorm:"type:integer;primaryKey;default:1;column:id"`
	FallbackFillerListID *uuid.UUID `json:"fallback_filler_list_id,omitempty" gorm:"type:text;column:fallback_filler_list_id"`
	OfflineDurationMs    int64      `json:"offline_duration_ms" gorm:"type:integer;not null;default:300000;column:offline_duration_ms" validate:"gt=0"`
	UpdatedAt            time.Time  `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		ID:                1,
		OfflineDurationMs: DefaultOfflineDurationMs,
		UpdatedAt:         time.Now().UTC(),
	}
}
