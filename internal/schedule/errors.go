package schedule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/models"
)

// DataIntegrityError reports a schedule slot whose declared reference cannot be
// resolved. The schedule is broken until the definition or the catalog is fixed.
type DataIntegrityError struct {
	ChannelID uuid.UUID
	SlotIndex int
	RefType   models.SlotType
	RefID     uuid.UUID
	Reason    string
}

func (e *DataIntegrityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schedule for channel %s is broken: slot %d: %s", e.ChannelID, e.SlotIndex, e.Reason)
	}
	return fmt.Sprintf("schedule for channel %s is broken: slot %d references missing %s %s",
		e.ChannelID, e.SlotIndex, e.RefType, e.RefID)
}

// IsDataIntegrity checks if an error is a DataIntegrityError
func IsDataIntegrity(err error) bool {
	var target *DataIntegrityError
	return errors.As(err, &target)
}

// AsDataIntegrity extracts a DataIntegrityError from an error chain
func AsDataIntegrity(err error) (*DataIntegrityError, bool) {
	var target *DataIntegrityError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// errMissingRef marks a reference absent from the bulk fetch results
var errMissingRef = errors.New("reference not found")
