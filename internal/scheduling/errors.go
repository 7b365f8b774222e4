package scheduling

import (
	"errors"
	"fmt"

	"appointment-booking/internal/data/entity"
)

var (
	ErrInvalidWindow             = errors.New("invalid booking window")
	ErrSlotUnavailable           = errors.New("slot is not available")
	ErrReservationTimeout        = errors.New("timed out waiting for reservation lock")
	ErrInvalidStateTransition    = errors.New("invalid booking state transition")
	ErrCancellationWindowExpired = errors.New("cancellation window has expired")
	ErrBookingNotFound           = errors.New("booking not found")
	ErrProviderNotFound          = errors.New("provider not found")
	ErrTemporary                 = errors.New("temporary failure, retry later")
)

// ValidationError is returned when a request breaks a business rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type StateTransitionError struct {
	From entity.BookingStatus
	To   entity.BookingStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// Temporary marks err as a transient persistence failure. Domain errors
// already in the chain are preserved.
func Temporary(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTemporary, err)
}
