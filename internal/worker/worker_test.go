package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBookingJobs struct {
	mock.Mock
}

func (m *mockBookingJobs) AutoComplete(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*entity.Booking)
	return b, args.Error(1)
}

func (m *mockBookingJobs) CompleteElapsed(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingJobs) ExpireStalePending(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingJobs) SendReminder(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) any {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value()
		}
	}
	return nil
}

func confirmedBooking() *entity.Booking {
	return &entity.Booking{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New()},
		Start:           time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          entity.BookingStatusConfirmed,
	}
}

func completeTask(t *testing.T, id uuid.UUID) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(CompletePayload{BookingID: id})
	require.NoError(t, err)
	return asynq.NewTask(TypeCompleteBooking, payload)
}

func TestNewCompleteTask(t *testing.T) {
	b := confirmedBooking()

	task, opts, err := NewCompleteTask(b, "bookings")
	require.NoError(t, err)

	assert.Equal(t, TypeCompleteBooking, task.Type())
	var p CompletePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, b.ID, p.BookingID)
	assert.Len(t, opts, 5)
}

func TestScheduler_ScheduleCompletion(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := NewScheduler(enq, "bookings", nil, zap.NewNop())

	require.NoError(t, s.ScheduleCompletion(context.Background(), confirmedBooking()))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeCompleteBooking, enq.tasks[0].Type())
}

func TestScheduler_DuplicateIsIgnored(t *testing.T) {
	s := NewScheduler(&fakeEnqueuer{err: asynq.ErrTaskIDConflict}, "", nil, zap.NewNop())
	assert.NoError(t, s.ScheduleCompletion(context.Background(), confirmedBooking()))
}

func TestScheduler_EnqueueFailure(t *testing.T) {
	s := NewScheduler(&fakeEnqueuer{err: errors.New("redis down")}, "", nil, zap.NewNop())
	assert.Error(t, s.ScheduleCompletion(context.Background(), confirmedBooking()))
}

func TestHandleCompleteTask(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"completed", nil, false},
		{"already cancelled", &scheduling.StateTransitionError{From: entity.BookingStatusCancelled, To: entity.BookingStatusCompleted}, false},
		{"gone", scheduling.ErrBookingNotFound, false},
		{"database down", scheduling.Temporary(errors.New("conn refused")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockBookingJobs{}
			c.On("AutoComplete", mock.Anything, id).Return(nil, tt.err)

			err := HandleCompleteTask(c, zap.NewNop())(context.Background(), completeTask(t, id))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			c.AssertExpectations(t)
		})
	}
}

func TestHandleCompleteTask_BadPayload(t *testing.T) {
	c := &mockBookingJobs{}
	err := HandleCompleteTask(c, zap.NewNop())(context.Background(), asynq.NewTask(TypeCompleteBooking, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
	c.AssertNotCalled(t, "AutoComplete", mock.Anything, mock.Anything)
}

func TestHandleSweepTask(t *testing.T) {
	c := &mockBookingJobs{}
	c.On("CompleteElapsed", mock.Anything, 25).Return(3, nil)
	c.On("ExpireStalePending", mock.Anything, 25).Return(1, nil)

	task, err := NewSweepTask(25)
	require.NoError(t, err)
	require.NoError(t, HandleSweepTask(c, 100, zap.NewNop())(context.Background(), task))

	c.On("CompleteElapsed", mock.Anything, 100).Return(0, nil)
	c.On("ExpireStalePending", mock.Anything, 100).Return(0, nil)
	require.NoError(t, HandleSweepTask(c, 100, zap.NewNop())(context.Background(), asynq.NewTask(TypeSweepElapsed, nil)))
	c.AssertExpectations(t)
}

func TestHandleSweepTask_ExpiresEvenWhenCompletionFails(t *testing.T) {
	c := &mockBookingJobs{}
	c.On("CompleteElapsed", mock.Anything, 100).Return(0, scheduling.Temporary(errors.New("conn refused")))
	c.On("ExpireStalePending", mock.Anything, 100).Return(2, nil)

	err := HandleSweepTask(c, 100, zap.NewNop())(context.Background(), asynq.NewTask(TypeSweepElapsed, nil))

	assert.ErrorIs(t, err, scheduling.ErrTemporary)
	c.AssertExpectations(t)
}

func TestNewReminderTask(t *testing.T) {
	b := confirmedBooking()

	task, opts, err := NewReminderTask(b, 2*time.Hour, "bookings")
	require.NoError(t, err)

	assert.Equal(t, TypeRemindBooking, task.Type())
	var p ReminderPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, b.ID, p.BookingID)
	assert.Equal(t, 2.0, p.LeadHours)
	assert.Equal(t, b.Start.Add(-2*time.Hour), optionValue(opts, asynq.ProcessAtOpt))
	assert.Equal(t, "remind:"+b.ID.String()+":120m", optionValue(opts, asynq.TaskIDOpt))
	assert.Equal(t, "bookings", optionValue(opts, asynq.QueueOpt))
}

func TestScheduler_ScheduleReminders(t *testing.T) {
	b := confirmedBooking() // starts 2026-03-03 10:00 UTC

	tests := []struct {
		name  string
		now   time.Time
		leads []string
	}{
		{"both ahead", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), []string{"1440m", "120m"}},
		{"day-before already passed", time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), []string{"120m"}},
		{"all passed", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &fakeEnqueuer{}
			s := NewScheduler(enq, "", []time.Duration{24 * time.Hour, 2 * time.Hour}, zap.NewNop())
			s.now = func() time.Time { return tt.now }

			require.NoError(t, s.ScheduleReminders(context.Background(), b))

			var got []string
			for _, opts := range enq.opts {
				id, _ := optionValue(opts, asynq.TaskIDOpt).(string)
				got = append(got, id[len("remind:"+b.ID.String()+":"):])
			}
			assert.Equal(t, tt.leads, got)
		})
	}
}

func TestScheduler_ScheduleRemindersEnqueueFailure(t *testing.T) {
	s := NewScheduler(&fakeEnqueuer{err: errors.New("redis down")}, "", []time.Duration{time.Hour}, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	assert.Error(t, s.ScheduleReminders(context.Background(), confirmedBooking()))
}

func reminderTask(t *testing.T, id uuid.UUID) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(ReminderPayload{BookingID: id, LeadHours: 2})
	require.NoError(t, err)
	return asynq.NewTask(TypeRemindBooking, payload)
}

func TestHandleReminderTask(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		sent    bool
		err     error
		wantErr bool
	}{
		{"sent", true, nil, false},
		{"booking no longer active", false, nil, false},
		{"gone", false, scheduling.ErrBookingNotFound, false},
		{"database down", false, scheduling.Temporary(errors.New("conn refused")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockBookingJobs{}
			c.On("SendReminder", mock.Anything, id).Return(tt.sent, tt.err)

			err := HandleReminderTask(c, zap.NewNop())(context.Background(), reminderTask(t, id))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			c.AssertExpectations(t)
		})
	}
}

func TestHandleReminderTask_BadPayload(t *testing.T) {
	c := &mockBookingJobs{}
	err := HandleReminderTask(c, zap.NewNop())(context.Background(), asynq.NewTask(TypeRemindBooking, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
	c.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
}
