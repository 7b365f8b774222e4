package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeCompleteBooking = "booking:complete"
	TypeRemindBooking   = "booking:remind"
	TypeSweepElapsed    = "booking:sweep_elapsed"
)

type CompletePayload struct {
	BookingID uuid.UUID `json:"booking_id"`
}

// NewCompleteTask fires at the booking's end. The task id is derived from
// the booking so re-confirming never queues a second task.
func NewCompleteTask(b *entity.Booking, queue string) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(CompletePayload{BookingID: b.ID})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal complete payload: %w", err)
	}

	task := asynq.NewTask(TypeCompleteBooking, payload)
	opts := []asynq.Option{
		asynq.ProcessAt(b.End()),
		asynq.TaskID("complete:" + b.ID.String()),
		asynq.MaxRetry(5),
		asynq.Retention(24 * time.Hour),
	}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return task, opts, nil
}

type ReminderPayload struct {
	BookingID uuid.UUID `json:"booking_id"`
	LeadHours float64   `json:"lead_hours"`
}

// NewReminderTask fires lead before the booking starts. Each lead gets its
// own task id so one booking can carry several reminders.
func NewReminderTask(b *entity.Booking, lead time.Duration, queue string) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(ReminderPayload{BookingID: b.ID, LeadHours: lead.Hours()})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal reminder payload: %w", err)
	}

	task := asynq.NewTask(TypeRemindBooking, payload)
	opts := []asynq.Option{
		asynq.ProcessAt(b.Start.Add(-lead)),
		asynq.TaskID(fmt.Sprintf("remind:%s:%dm", b.ID, int(lead.Minutes()))),
		asynq.MaxRetry(3),
		asynq.Retention(24 * time.Hour),
	}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return task, opts, nil
}

type SweepPayload struct {
	Limit int `json:"limit"`
}

func NewSweepTask(limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(SweepPayload{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal sweep payload: %w", err)
	}
	return asynq.NewTask(TypeSweepElapsed, payload, asynq.MaxRetry(0)), nil
}
