package usecase

import (
	"context"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/metrics"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Intent is the notification payload handed to delivery after a transition
// has committed.
type Intent struct {
	Kind              scheduling.EventKind `json:"kind"`
	BookingID         uuid.UUID            `json:"booking_id"`
	BookingNumber     string               `json:"booking_number"`
	ProviderID        uuid.UUID            `json:"provider_id"`
	ClientID          uuid.UUID            `json:"client_id"`
	Start             time.Time            `json:"start"`
	End               time.Time            `json:"end"`
	Status            entity.BookingStatus `json:"status"`
	PreviousBookingID *uuid.UUID           `json:"previous_booking_id,omitempty"`
	OccurredAt        time.Time            `json:"occurred_at"`
}

type Deliverer interface {
	Deliver(ctx context.Context, intent Intent) error
}

// Notifier never fails the caller; delivery errors are logged and counted.
type Notifier interface {
	Emit(ctx context.Context, kind scheduling.EventKind, b *entity.Booking)
}

// JSONPublisher is satisfied by mq.Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// FollowUpScheduler queues the delayed work of a confirmed booking: the
// reminders before it starts and its completion once it ends.
type FollowUpScheduler interface {
	ScheduleCompletion(ctx context.Context, b *entity.Booking) error
	ScheduleReminders(ctx context.Context, b *entity.Booking) error
}

type notifier struct {
	deliverer Deliverer
	timeout   time.Duration
	now       Clock
	log       *zap.Logger
}

func NewNotifier(deliverer Deliverer, timeout time.Duration, now Clock, log *zap.Logger) Notifier {
	return &notifier{
		deliverer: deliverer,
		timeout:   timeout,
		now:       now,
		log:       log.With(zap.String("service", "notifier")),
	}
}

func (n *notifier) Emit(ctx context.Context, kind scheduling.EventKind, b *entity.Booking) {
	intent := Intent{
		Kind:              kind,
		BookingID:         b.ID,
		BookingNumber:     b.BookingNumber,
		ProviderID:        b.ProviderID,
		ClientID:          b.ClientID,
		Start:             b.Start,
		End:               b.End(),
		Status:            b.Status,
		PreviousBookingID: b.RescheduledFromID,
		OccurredAt:        n.now(),
	}

	// request cancellation must not drop a notification for a committed change
	ctx = context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.deliverer.Deliver(ctx, intent); err != nil {
		metrics.RecordNotification(string(kind), "failed")
		n.log.Error("Failed to deliver notification",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("booking_id", b.ID.String()),
		)
		return
	}
	metrics.RecordNotification(string(kind), "delivered")
}

type brokerDeliverer struct {
	publisher JSONPublisher
}

// NewBrokerDeliverer publishes intents with the event kind as routing key.
func NewBrokerDeliverer(publisher JSONPublisher) Deliverer {
	return &brokerDeliverer{publisher: publisher}
}

func (d *brokerDeliverer) Deliver(ctx context.Context, intent Intent) error {
	return d.publisher.PublishJSON(ctx, string(intent.Kind), intent)
}

type logDeliverer struct {
	log *zap.Logger
}

// NewLogDeliverer is used when no broker is configured.
func NewLogDeliverer(log *zap.Logger) Deliverer {
	return &logDeliverer{log: log.With(zap.String("service", "log_deliverer"))}
}

func (d *logDeliverer) Deliver(_ context.Context, intent Intent) error {
	d.log.Info("Notification",
		zap.String("kind", string(intent.Kind)),
		zap.String("booking_id", intent.BookingID.String()),
		zap.String("booking_number", intent.BookingNumber),
		zap.Time("start", intent.Start),
	)
	return nil
}
