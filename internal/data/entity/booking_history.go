package entity

import "github.com/google/uuid"

type BookingAction string

const (
	BookingActionCreated     BookingAction = "created"
	BookingActionConfirmed   BookingAction = "confirmed"
	BookingActionCancelled   BookingAction = "cancelled"
	BookingActionCompleted   BookingAction = "completed"
	BookingActionRescheduled BookingAction = "rescheduled"
)

// BookingHistory is one audit row per status change, written in the same
// transaction as the change itself.
type BookingHistory struct {
	BaseSimple
	BookingID      uuid.UUID      `db:"booking_id"`
	Action         BookingAction  `db:"action"`
	PreviousStatus *BookingStatus `db:"previous_status"`
	NewStatus      BookingStatus  `db:"new_status"`
	Actor          string         `db:"actor"`
	Reason         *string        `db:"reason"`
}
