package models

import (
	"time"

	"github.com/google/uuid"
)

// FillerList is an unordered pool of short programs used to fill gaps
type FillerList struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (FillerList) TableName() string { return "filler_lists" }

// FillerListContent links a program into a filler list
type FillerListContent struct {
	FillerListID uuid.UUID `json:"filler_list_id" gorm:"type:text;primaryKey;column:filler_list_id"`
	ProgramID    uuid.UUID `json:"program_id" gorm:"type:text;primaryKey;column:program_id"`
	Index        int       `json:"index" gorm:"type:integer;not null;column:content_index"`
}

// TableName overrides the gorm default
func (FillerListContent) TableName() string { return "filler_list_contents" }

// CustomShow is a user-curated ordered list of programs
type CustomShow struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (CustomShow) TableName() string { return "custom_shows" }

// CustomShowContent links a program into a custom show at a position
type CustomShowContent struct {
	CustomShowID uuid.UUID `json:"custom_show_id" gorm:"type:text;primaryKey;column:custom_show_id"`
	ProgramID    uuid.UUID `json:"program_id" gorm:"type:text;primaryKey;column:program_id"`
	Index        int       `json:"index" gorm:"type:integer;primaryKey;column:content_index"`
}

// TableName overrides the gorm default
func (CustomShowContent) TableName() string { return "custom_show_contents" }

// SmartCollection is a saved filter over the catalog. A nil filter field matches everything.
type SmartCollection struct {
	ID          uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name        string     `json:"name" gorm:"type:text;not null;column:name"`
	LibraryID   *uuid.UUID `json:"library_id,omitempty" gorm:"type:text;column:library_id"`
	ProgramType *string    `json:"program_type,omitempty" gorm:"type:text;column:program_type"`
	CreatedAt   time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (SmartCollection) TableName() string { return "smart_collections" }
