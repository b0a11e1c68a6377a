package channel

import "errors"

// Custom channel service errors
var (
	// ErrDuplicateChannelName indicates a channel with the same name already exists
	ErrDuplicateChannelName = errors.New("channel name already exists")

	// ErrDuplicateChannelNumber indicates a channel with the same number already exists
	ErrDuplicateChannelNumber = errors.New("channel number already exists")

	// ErrInvalidChannelNumber indicates a channel number below 1
	ErrInvalidChannelNumber = errors.New("channel number must be at least 1")

	// ErrInvalidStartTime indicates the start time is more than 1 year in the future
	ErrInvalidStartTime = errors.New("start time cannot be more than 1 year in the future")

	// ErrChannelNotFound indicates the requested channel does not exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrScheduleNotFound indicates the channel has no schedule
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrInvalidSchedule indicates a schedule definition failed validation
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// IsDuplicateName checks if the error is a duplicate channel name error
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateChannelName)
}

// IsDuplicateNumber checks if the error is a duplicate channel number error
func IsDuplicateNumber(err error) bool {
	return errors.Is(err, ErrDuplicateChannelNumber)
}

// IsInvalidNumber checks if the error is an invalid channel number error
func IsInvalidNumber(err error) bool {
	return errors.Is(err, ErrInvalidChannelNumber)
}

// IsInvalidStartTime checks if the error is an invalid start time error
func IsInvalidStartTime(err error) bool {
	return errors.Is(err, ErrInvalidStartTime)
}

// IsChannelNotFound checks if the error is a channel not found error
func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

// IsScheduleNotFound checks if the error is a schedule not found error
func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}

// IsInvalidSchedule checks if the error is a schedule validation error
func IsInvalidSchedule(err error) bool {
	return errors.Is(err, ErrInvalidSchedule)
}
