package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaSource is an external media server (or local folder) content is pulled from
type MediaSource struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name"`
	Type      string    `json:"type" gorm:"type:text;not null;column:type"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (MediaSource) TableName() string { return "media_sources" }

// MediaLibrary is a single library within a media source
type MediaLibrary struct {
	ID            uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	MediaSourceID uuid.UUID `json:"media_source_id" gorm:"type:text;not null;column:media_source_id"`
	Name          string    `json:"name" gorm:"type:text;not null;column:name"`
	MediaType     string    `json:"media_type" gorm:"type:text;not null;column:media_type"`
	CreatedAt     time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (MediaLibrary) TableName() string { return "media_libraries" }

// ProgramGrouping is a show, season, artist or album row
type ProgramGrouping struct {
	ID            uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	MediaSourceID uuid.UUID  `json:"media_source_id" gorm:"type:text;not null;column:media_source_id"`
	LibraryID     uuid.UUID  `json:"library_id" gorm:"type:text;not null;column:library_id"`
	Type          string     `json:"type" gorm:"type:text;not null;column:type"`
	Title         string     `json:"title" gorm:"type:text;not null;column:title"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty" gorm:"type:text;column:parent_id"`
	Index         *int       `json:"index,omitempty" gorm:"type:integer;column:grouping_index"`
	CreatedAt     time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (ProgramGrouping) TableName() string { return "program_groupings" }

// Program is a single playable item (episode, movie, track, ...)
type Program struct {
	ID            uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	MediaSourceID uuid.UUID  `json:"media_source_id" gorm:"type:text;not null;column:media_source_id"`
	LibraryID     uuid.UUID  `json:"library_id" gorm:"type:text;not null;column:library_id"`
	Type          string     `json:"type" gorm:"type:text;not null;column:type"`
	Title         string     `json:"title" gorm:"type:text;not null;column:title"`
	ShowID        *uuid.UUID `json:"show_id,omitempty" gorm:"type:text;column:show_id"`
	SeasonID      *uuid.UUID `json:"season_id,omitempty" gorm:"type:text;column:season_id"`
	SeasonNumber  *int       `json:"season_number,omitempty" gorm:"type:integer;column:season_number"`
	EpisodeNumber *int       `json:"episode_number,omitempty" gorm:"type:integer;column:episode_number"`
	DurationMs    int64      `json:"duration_ms" gorm:"type:integer;not null;column:duration_ms"`
	CreatedAt     time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// TableName overrides the gorm default
func (Program) TableName() string { return "programs" }

// NewProgram creates a Program with a generated UUID
func NewProgram(sourceID, libraryID uuid.UUID, programType, title string, durationMs int64) *Program {
	return &Program{
		ID:            uuid.New(),
		MediaSourceID: sourceID,
		LibraryID:     libraryID,
		Type:          programType,
		Title:         title,
		DurationMs:    durationMs,
		CreatedAt:     time.Now().UTC(),
	}
}

// DurationString returns duration in HH:MM:SS format
func (p *Program) DurationString() string {
	seconds := p.DurationMs / 1000
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
