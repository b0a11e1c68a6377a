package models

// ScheduleType discriminates the two schedule variants a channel can own
type ScheduleType string

// Schedule types
const (
	ScheduleTypeTime     ScheduleType = "time"
	ScheduleTypeInfinite ScheduleType = "infinite"
)

// IsValid reports whether t is a known schedule type
func (t ScheduleType) IsValid() bool {
	return t == ScheduleTypeTime || t == ScheduleTypeInfinite
}

// SlotType identifies which content source a slot references
type SlotType string

// Slot types
const (
	SlotTypeShow            SlotType = "show"
	SlotTypeFiller          SlotType = "filler"
	SlotTypeCustomShow      SlotType = "custom_show"
	SlotTypeRedirect        SlotType = "redirect"
	SlotTypeSmartCollection SlotType = "smart_collection"
)

// AllSlotTypes lists every slot type in a stable order
var AllSlotTypes = []SlotType{
	SlotTypeShow,
	SlotTypeFiller,
	SlotTypeCustomShow,
	SlotTypeRedirect,
	SlotTypeSmartCollection,
}

// IsValid reports whether t is a known slot type
func (t SlotType) IsValid() bool {
	for _, known := range AllSlotTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FlexPreference controls where padding is placed relative to a program
type FlexPreference string

// Flex preferences
const (
	FlexPreferenceStart      FlexPreference = "start"
	FlexPreferenceEnd        FlexPreference = "end"
	FlexPreferenceDistribute FlexPreference = "distribute"
)

// IsValid reports whether p is a known flex preference
func (p FlexPreference) IsValid() bool {
	switch p {
	case FlexPreferenceStart, FlexPreferenceEnd, FlexPreferenceDistribute:
		return true
	}
	return false
}

// AnchorMode controls how an infinite slot is pinned to wall-clock time
type AnchorMode string

// Anchor modes
const (
	AnchorModeNone     AnchorMode = "none"
	AnchorModeFixed    AnchorMode = "fixed"
	AnchorModeRelative AnchorMode = "relative"
)

// IsValid reports whether m is a known anchor mode
func (m AnchorMode) IsValid() bool {
	switch m {
	case AnchorModeNone, AnchorModeFixed, AnchorModeRelative:
		return true
	}
	return false
}

// IsAnchored reports whether the mode pins the slot to a time of day
func (m AnchorMode) IsAnchored() bool {
	return m == AnchorModeFixed || m == AnchorModeRelative
}

// SlotOrder controls traversal of ordered content within a slot
type SlotOrder string

// Slot orders
const (
	SlotOrderNext    SlotOrder = "next"
	SlotOrderShuffle SlotOrder = "shuffle"
)

// IsValid reports whether o is a known slot order
func (o SlotOrder) IsValid() bool {
	return o == SlotOrderNext || o == SlotOrderShuffle
}

// GeneratedItemType identifies what a generated schedule item plays
type GeneratedItemType string

// Generated item types
const (
	GeneratedItemProgram  GeneratedItemType = "program"
	GeneratedItemFlex     GeneratedItemType = "flex"
	GeneratedItemRedirect GeneratedItemType = "redirect"
)

// Grouping types
const (
	GroupingTypeShow   = "show"
	GroupingTypeSeason = "season"
	GroupingTypeArtist = "artist"
	GroupingTypeAlbum  = "album"
)

// Program types
const (
	ProgramTypeEpisode    = "episode"
	ProgramTypeMovie      = "movie"
	ProgramTypeTrack      = "track"
	ProgramTypeMusicVideo = "music_video"
	ProgramTypeOther      = "other"
)

// Media source types
const (
	MediaSourcePlex     = "plex"
	MediaSourceJellyfin = "jellyfin"
	MediaSourceEmby     = "emby"
	MediaSourceLocal    = "local"
)

// Day bits for InfiniteSlot.AnchorDays (bit 0 is Sunday, matching time.Weekday)
const (
	AnchorSunday = 1 << iota
	AnchorMonday
	AnchorTuesday
	AnchorWednesday
	AnchorThursday
	AnchorFriday
	AnchorSaturday

	AnchorEveryDay = AnchorSunday | AnchorMonday | AnchorTuesday | AnchorWednesday |
		AnchorThursday | AnchorFriday | AnchorSaturday
)
