package usecase

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/testfixtures"
	"appointment-booking/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingDeliverer struct {
	mu      sync.Mutex
	intents []Intent
	err     error
}

func (d *recordingDeliverer) Deliver(_ context.Context, intent Intent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
	return d.err
}

func (d *recordingDeliverer) kinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.intents))
	for i, in := range d.intents {
		out[i] = string(in.Kind)
	}
	return out
}

type recordingFollowUps struct {
	mu        sync.Mutex
	scheduled []*entity.Booking
	reminded  []*entity.Booking
}

func (c *recordingFollowUps) ScheduleCompletion(_ context.Context, b *entity.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, b)
	return nil
}

func (c *recordingFollowUps) ScheduleReminders(_ context.Context, b *entity.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reminded = append(c.reminded, b)
	return nil
}

func testPolicy() utils.BookingConfig {
	return utils.BookingConfig{
		MinLeadTime:               time.Hour,
		MaxAdvance:                30 * 24 * time.Hour,
		CancellationNotice:        time.Hour,
		MaxReschedules:            2,
		ReservationTimeout:        2 * time.Second,
		DefaultGranularityMinutes: 30,
		NotifyTimeout:             time.Second,
		SlotSearchHorizonDays:     28,
		MaxSlotRangeDays:          31,
		PendingTTL:                24 * time.Hour,
	}
}

type testEnv struct {
	fx        *testfixtures.Fixture
	svc       *Service
	deliverer *recordingDeliverer
	followUps *recordingFollowUps
}

func newTestEnv(t *testing.T, opts ...func(*utils.BookingConfig)) *testEnv {
	t.Helper()

	policy := testPolicy()
	for _, opt := range opts {
		opt(&policy)
	}

	fx := testfixtures.NewFixture("UTC")
	deliverer := &recordingDeliverer{}
	followUps := &recordingFollowUps{}
	svc := newService(fx.Store.Repository(), deliverer, followUps, policy, fx.Clock.Now, testLogger())

	return &testEnv{fx: fx, svc: svc, deliverer: deliverer, followUps: followUps}
}

func (e *testEnv) createRequest(start time.Time, minutes int) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		ProviderID:      e.fx.Provider.ID.String(),
		ClientID:        "9d5c4f3e-2b1a-4c8d-9e7f-6a5b4c3d2e1f",
		ServiceID:       e.fx.Service.ID.String(),
		Start:           start,
		DurationMinutes: minutes,
	}
}

func (e *testEnv) mustCreate(t *testing.T, start time.Time, minutes int) *entity.Booking {
	t.Helper()
	b, err := e.svc.Booking.CreateBooking(context.Background(), e.createRequest(start, minutes))
	require.NoError(t, err)
	return b
}

func (e *testEnv) mustConfirm(t *testing.T, b *entity.Booking) *entity.Booking {
	t.Helper()
	confirmed, err := e.svc.Booking.ConfirmBooking(context.Background(), b.ID.String())
	require.NoError(t, err)
	return confirmed
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
