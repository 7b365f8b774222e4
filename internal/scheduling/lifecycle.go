package scheduling

import "appointment-booking/internal/data/entity"

// EventKind names the notification emitted after a committed transition,
// or ahead of an upcoming booking for reminders.
type EventKind string

const (
	EventBookingCreated     EventKind = "booking.created"
	EventBookingConfirmed   EventKind = "booking.confirmed"
	EventBookingCancelled   EventKind = "booking.cancelled"
	EventBookingCompleted   EventKind = "booking.completed"
	EventBookingRescheduled EventKind = "booking.rescheduled"
	EventBookingReminder    EventKind = "booking.reminder"
)

var transitions = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPending: {
		entity.BookingStatusConfirmed,
		entity.BookingStatusCancelled,
	},
	entity.BookingStatusConfirmed: {
		entity.BookingStatusCompleted,
		entity.BookingStatusCancelled,
		entity.BookingStatusRescheduled,
	},
}

func CanTransition(from, to entity.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns a *StateTransitionError when the move is not allowed.
func Transition(from, to entity.BookingStatus) error {
	if !CanTransition(from, to) {
		return &StateTransitionError{From: from, To: to}
	}
	return nil
}

// ActionFor maps a target status to its history action.
func ActionFor(to entity.BookingStatus) entity.BookingAction {
	switch to {
	case entity.BookingStatusConfirmed:
		return entity.BookingActionConfirmed
	case entity.BookingStatusCancelled:
		return entity.BookingActionCancelled
	case entity.BookingStatusCompleted:
		return entity.BookingActionCompleted
	case entity.BookingStatusRescheduled:
		return entity.BookingActionRescheduled
	default:
		return entity.BookingActionCreated
	}
}

func EventFor(action entity.BookingAction) EventKind {
	switch action {
	case entity.BookingActionConfirmed:
		return EventBookingConfirmed
	case entity.BookingActionCancelled:
		return EventBookingCancelled
	case entity.BookingActionCompleted:
		return EventBookingCompleted
	case entity.BookingActionRescheduled:
		return EventBookingRescheduled
	default:
		return EventBookingCreated
	}
}
