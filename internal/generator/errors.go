package generator

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNoSchedule is returned when the channel has no schedule configured
	ErrNoSchedule = errors.New("channel has no schedule")

	// ErrNotInfinite is returned when generation is requested for a time schedule
	ErrNotInfinite = errors.New("schedule is not an infinite schedule")

	// ErrSweeperStopped is returned when starting a sweeper that was already stopped
	ErrSweeperStopped = errors.New("sweeper is stopped")
)

// FailureKind classifies the degradations a generation run can hit
type FailureKind string

// Failure kinds
const (
	// FailureResolution: a slot's content could not be resolved; the slot is skipped for the draw
	FailureResolution FailureKind = "resolution"
	// FailureExhaustion: no slot was eligible; the fallback item is emitted
	FailureExhaustion FailureKind = "exhaustion"
	// FailureTransaction: a batch commit failed and was rolled back
	FailureTransaction FailureKind = "transaction"
)

// TransactionFailure is returned when a batch commit fails. Nothing of the batch
// was persisted and the high-water mark is unchanged, so the next run retries it.
type TransactionFailure struct {
	ChannelID uuid.UUID
	Batch     int
	Err       error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("failed to commit batch %d for channel %s: %v", e.Batch, e.ChannelID, e.Err)
}

func (e *TransactionFailure) Unwrap() error {
	return e.Err
}

// IsTransactionFailure checks if an error is a TransactionFailure
func IsTransactionFailure(err error) bool {
	var target *TransactionFailure
	return errors.As(err, &target)
}

// IsNoSchedule checks if error is ErrNoSchedule
func IsNoSchedule(err error) bool {
	return errors.Is(err, ErrNoSchedule)
}

// IsNotInfinite checks if error is ErrNotInfinite
func IsNotInfinite(err error) bool {
	return errors.Is(err, ErrNotInfinite)
}
