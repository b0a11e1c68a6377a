// Package schedule holds the slot sum type shared by every consumer of schedule
// definitions, and the Schedule Materializer that resolves a channel's schedule
// into a fully joined, render-ready form.
package schedule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// ErrInvalidSlotRef is returned when a slot row does not reference exactly one
// content source matching its slot type
var ErrInvalidSlotRef = errors.New("invalid slot reference")

// Slot is the content a schedule slot draws from. The set of implementations is
// closed; consumers switch over it and must handle every variant.
type Slot interface {
	Type() models.SlotType
	RefID() uuid.UUID
	sealed()
}

// ShowSlot plays the episodes of a show grouping
type ShowSlot struct{ ShowID uuid.UUID }

// FillerSlot plays random items of a filler list
type FillerSlot struct{ FillerListID uuid.UUID }

// CustomShowSlot plays a custom show's ordered contents
type CustomShowSlot struct{ CustomShowID uuid.UUID }

// RedirectSlot hands playback to another channel
type RedirectSlot struct{ ChannelID uuid.UUID }

// SmartCollectionSlot plays random items matching a smart collection
type SmartCollectionSlot struct{ CollectionID uuid.UUID }

func (ShowSlot) Type() models.SlotType            { return models.SlotTypeShow }
func (FillerSlot) Type() models.SlotType          { return models.SlotTypeFiller }
func (CustomShowSlot) Type() models.SlotType      { return models.SlotTypeCustomShow }
func (RedirectSlot) Type() models.SlotType        { return models.SlotTypeRedirect }
func (SmartCollectionSlot) Type() models.SlotType { return models.SlotTypeSmartCollection }

func (s ShowSlot) RefID() uuid.UUID            { return s.ShowID }
func (s FillerSlot) RefID() uuid.UUID          { return s.FillerListID }
func (s CustomShowSlot) RefID() uuid.UUID      { return s.CustomShowID }
func (s RedirectSlot) RefID() uuid.UUID        { return s.ChannelID }
func (s SmartCollectionSlot) RefID() uuid.UUID { return s.CollectionID }

func (ShowSlot) sealed()            {}
func (FillerSlot) sealed()          {}
func (CustomShowSlot) sealed()      {}
func (RedirectSlot) sealed()        {}
func (SmartCollectionSlot) sealed() {}

// Decode builds the Slot variant for a persisted slot row
func Decode(slotType models.SlotType, ref models.SlotRef) (Slot, error) {
	if n := countRefs(ref); n != 1 {
		return nil, fmt.Errorf("%w: %d content references set, want exactly 1", ErrInvalidSlotRef, n)
	}

	switch slotType {
	case models.SlotTypeShow:
		if ref.ShowID != nil {
			return ShowSlot{ShowID: *ref.ShowID}, nil
		}
	case models.SlotTypeFiller:
		if ref.FillerListID != nil {
			return FillerSlot{FillerListID: *ref.FillerListID}, nil
		}
	case models.SlotTypeCustomShow:
		if ref.CustomShowID != nil {
			return CustomShowSlot{CustomShowID: *ref.CustomShowID}, nil
		}
	case models.SlotTypeRedirect:
		if ref.RedirectChannelID != nil {
			return RedirectSlot{ChannelID: *ref.RedirectChannelID}, nil
		}
	case models.SlotTypeSmartCollection:
		if ref.SmartCollectionID != nil {
			return SmartCollectionSlot{CollectionID: *ref.SmartCollectionID}, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown slot type %q", ErrInvalidSlotRef, slotType)
	}
	return nil, fmt.Errorf("%w: %s slot does not set its %s reference", ErrInvalidSlotRef, slotType, slotType)
}

// Encode is the inverse of Decode
func Encode(slot Slot) models.SlotRef {
	var ref models.SlotRef
	id := slot.RefID()
	switch slot.(type) {
	case ShowSlot:
		ref.ShowID = &id
	case FillerSlot:
		ref.FillerListID = &id
	case CustomShowSlot:
		ref.CustomShowID = &id
	case RedirectSlot:
		ref.RedirectChannelID = &id
	case SmartCollectionSlot:
		ref.SmartCollectionID = &id
	default:
		panic(fmt.Sprintf("schedule: unhandled slot variant %T", slot))
	}
	return ref
}

func countRefs(ref models.SlotRef) int {
	n := 0
	for _, id := range []*uuid.UUID{ref.ShowID, ref.CustomShowID, ref.FillerListID, ref.RedirectChannelID, ref.SmartCollectionID} {
		if id != nil {
			n++
		}
	}
	return n
}
