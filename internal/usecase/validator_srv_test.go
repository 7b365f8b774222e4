package usecase

import (
	"context"
	"testing"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/scheduling"
	"appointment-booking/internal/testfixtures"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	closed := &entity.Provider{ID: uuid.New(), Name: "Tutup", Timezone: "UTC"}
	env.fx.Store.AddProvider(closed)
	foreign := &entity.ProviderService{
		ID:               uuid.New(),
		ProviderID:       closed.ID,
		AllowedDurations: []int{60},
		Price:            decimal.NewFromInt(1),
		IsActive:         true,
	}
	env.fx.Store.AddService(foreign)

	valid := CreateInput{
		ProviderID:      env.fx.Provider.ID,
		ServiceID:       env.fx.Service.ID,
		Start:           testfixtures.At(1, 10, 0),
		DurationMinutes: 60,
	}

	service, err := env.svc.Validator.ValidateCreate(ctx, valid, now)
	require.NoError(t, err)
	assert.Equal(t, env.fx.Service.ID, service.ID)

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		field  string
	}{
		{"not bookable", func(in *CreateInput) { in.ProviderID = closed.ID; in.ServiceID = foreign.ID }, "provider_id"},
		{"inside lead time", func(in *CreateInput) { in.Start = testfixtures.At(0, 7, 30) }, "start"},
		{"beyond max advance", func(in *CreateInput) { in.Start = testfixtures.At(40, 10, 0) }, "start"},
		{"service of another provider", func(in *CreateInput) { in.ServiceID = foreign.ID }, "service_id"},
		{"unknown service", func(in *CreateInput) { in.ServiceID = uuid.New() }, "service_id"},
		{"duration not offered", func(in *CreateInput) { in.DurationMinutes = 45 }, "duration_minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := env.svc.Validator.ValidateCreate(ctx, in, now)
			var vErr *scheduling.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		in := valid
		in.ProviderID = uuid.New()
		_, err := env.svc.Validator.ValidateCreate(ctx, in, now)
		assert.ErrorIs(t, err, scheduling.ErrProviderNotFound)
	})

	t.Run("past start", func(t *testing.T) {
		in := valid
		in.Start = testfixtures.At(-1, 10, 0)
		_, err := env.svc.Validator.ValidateCreate(ctx, in, now)
		assert.ErrorIs(t, err, scheduling.ErrInvalidWindow)
	})
}

func TestValidateCancellation(t *testing.T) {
	env := newTestEnv(t)
	b := &entity.Booking{Start: testfixtures.At(0, 9, 0), DurationMinutes: 60}

	assert.NoError(t, env.svc.Validator.ValidateCancellation(b, testfixtures.At(0, 8, 0)))
	assert.ErrorIs(t, env.svc.Validator.ValidateCancellation(b, testfixtures.At(0, 8, 55)), scheduling.ErrCancellationWindowExpired)
}

func TestValidateReschedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	b := &entity.Booking{
		ProviderID:      env.fx.Provider.ID,
		ServiceID:       env.fx.Service.ID,
		Start:           testfixtures.At(1, 10, 0),
		DurationMinutes: 60,
		Status:          entity.BookingStatusConfirmed,
	}

	assert.NoError(t, env.svc.Validator.ValidateReschedule(ctx, b, testfixtures.At(1, 12, 0), 60, now))

	var vErr *scheduling.ValidationError
	assert.ErrorAs(t, env.svc.Validator.ValidateReschedule(ctx, b, b.Start, 60, now), &vErr)

	b.RescheduleCount = 2
	require.ErrorAs(t, env.svc.Validator.ValidateReschedule(ctx, b, testfixtures.At(1, 12, 0), 60, now), &vErr)
	assert.Equal(t, "booking", vErr.Field)
}

func TestValidateConfirmation(t *testing.T) {
	env := newTestEnv(t)
	b := &entity.Booking{Start: testfixtures.At(0, 9, 0), DurationMinutes: 60}

	assert.NoError(t, env.svc.Validator.ValidateConfirmation(b, testfixtures.At(0, 8, 59)))
	var vErr *scheduling.ValidationError
	assert.ErrorAs(t, env.svc.Validator.ValidateConfirmation(b, testfixtures.At(0, 9, 0)), &vErr)
}
