package timeline

import "errors"

var (
	// ErrNothingScheduled is returned when no generated item covers the requested time,
	// typically because the channel's buffer has not been generated yet
	ErrNothingScheduled = errors.New("nothing scheduled at this time")
)

// IsNothingScheduled checks if the error is a nothing scheduled error
func IsNothingScheduled(err error) bool {
	return errors.Is(err, ErrNothingScheduled)
}
