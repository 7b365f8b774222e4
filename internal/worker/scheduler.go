package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler queues the delayed work of confirmed bookings: reminders ahead
// of the start and the automatic completion at the end.
type Scheduler struct {
	client        Enqueuer
	queue         string
	reminderLeads []time.Duration
	now           func() time.Time
	log           *zap.Logger
}

func NewScheduler(client Enqueuer, queue string, reminderLeads []time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		client:        client,
		queue:         queue,
		reminderLeads: reminderLeads,
		now:           time.Now,
		log:           log.With(zap.String("component", "booking_scheduler")),
	}
}

func (s *Scheduler) ScheduleCompletion(ctx context.Context, b *entity.Booking) error {
	task, opts, err := NewCompleteTask(b, s.queue)
	if err != nil {
		return err
	}
	if err := s.enqueue(ctx, task, opts); err != nil {
		return fmt.Errorf("enqueue completion for booking %s: %w", b.ID, err)
	}
	return nil
}

// ScheduleReminders queues one reminder per configured lead. Leads whose
// time already passed are skipped.
func (s *Scheduler) ScheduleReminders(ctx context.Context, b *entity.Booking) error {
	now := s.now()

	var errs []error
	for _, lead := range s.reminderLeads {
		if !b.Start.Add(-lead).After(now) {
			continue
		}
		task, opts, err := NewReminderTask(b, lead, s.queue)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.enqueue(ctx, task, opts); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s reminder for booking %s: %w", lead, b.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Debug("Task scheduled",
		zap.String("type", task.Type()),
		zap.String("task_id", info.ID),
		zap.Time("process_at", info.NextProcessAt),
	)
	return nil
}
