package adaptor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/scheduling"
	"appointment-booking/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProviderService struct {
	mock.Mock
}

func (m *mockProviderService) CheckAvailability(ctx context.Context, req *request.AvailabilityRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *mockProviderService) NextSlot(ctx context.Context, req *request.NextSlotRequest) (*scheduling.Slot, error) {
	args := m.Called(ctx, req)
	slot, _ := args.Get(0).(*scheduling.Slot)
	return slot, args.Error(1)
}

func (m *mockProviderService) GetDayStats(ctx context.Context, req *request.DayStatsRequest) (*usecase.DayStats, error) {
	args := m.Called(ctx, req)
	stats, _ := args.Get(0).(*usecase.DayStats)
	return stats, args.Error(1)
}

type mockWorkingHours struct {
	mock.Mock
}

func (m *mockWorkingHours) GetOpenIntervals(ctx context.Context, providerID uuid.UUID, date time.Time) ([]scheduling.Window, error) {
	args := m.Called(ctx, providerID, date)
	windows, _ := args.Get(0).([]scheduling.Window)
	return windows, args.Error(1)
}

func (m *mockWorkingHours) GetSchedule(ctx context.Context, providerID string) (*entity.WorkingSchedule, error) {
	args := m.Called(ctx, providerID)
	s, _ := args.Get(0).(*entity.WorkingSchedule)
	return s, args.Error(1)
}

func (m *mockWorkingHours) SetSchedule(ctx context.Context, providerID string, req *request.SetScheduleRequest) (*entity.WorkingSchedule, error) {
	args := m.Called(ctx, providerID, req)
	s, _ := args.Get(0).(*entity.WorkingSchedule)
	return s, args.Error(1)
}

func providerRouter(bookings *mockBookingService, calendar *mockProviderService, hours *mockWorkingHours) http.Handler {
	h := NewProviderHandler(bookings, calendar, hours, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/providers/{id}/slots", h.ListSlots)
	r.Get("/api/providers/{id}/availability", h.CheckAvailability)
	r.Get("/api/providers/{id}/next-slot", h.NextSlot)
	r.Get("/api/providers/{id}/schedule", h.GetSchedule)
	r.Put("/api/providers/{id}/schedule", h.SetSchedule)
	r.Get("/api/providers/{id}/stats", h.DayStats)
	return r
}

func TestListSlots_SingleDayDefault(t *testing.T) {
	bookings := &mockBookingService{}
	start := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	bookings.On("ListAvailableSlots", mock.Anything, &request.ListSlotsRequest{
		ProviderID:      "p1",
		From:            "2026-03-03",
		To:              "2026-03-03",
		DurationMinutes: 60,
	}).Return([]scheduling.Slot{{Start: start, End: start.Add(time.Hour)}}, nil)

	rec := httptest.NewRecorder()
	providerRouter(bookings, &mockProviderService{}, &mockWorkingHours{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/p1/slots?from=2026-03-03&duration=60", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec).Data.([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "2026-03-03T09:00:00Z", data[0].(map[string]any)["start"])
	bookings.AssertExpectations(t)
}

func TestCheckAvailability_BadStart(t *testing.T) {
	rec := httptest.NewRecorder()
	providerRouter(&mockBookingService{}, &mockProviderService{}, &mockWorkingHours{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/p1/availability?start=tomorrow&duration=60", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAvailability(t *testing.T) {
	calendar := &mockProviderService{}
	calendar.On("CheckAvailability", mock.Anything, mock.Anything).Return(true, nil)

	rec := httptest.NewRecorder()
	providerRouter(&mockBookingService{}, calendar, &mockWorkingHours{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/p1/availability?start=2026-03-03T10:00:00Z&duration=30", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec).Data.(map[string]any)
	assert.Equal(t, true, data["available"])
	assert.Equal(t, "2026-03-03T10:30:00Z", data["end"])
}

func TestNextSlot_NoneFound(t *testing.T) {
	calendar := &mockProviderService{}
	calendar.On("NextSlot", mock.Anything, mock.Anything).Return(nil, nil)

	rec := httptest.NewRecorder()
	providerRouter(&mockBookingService{}, calendar, &mockWorkingHours{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/p1/next-slot?duration=60", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetSchedule_Rejected(t *testing.T) {
	hours := &mockWorkingHours{}
	hours.On("SetSchedule", mock.Anything, "p1", mock.Anything).Return(nil, scheduling.NewValidationError("schedule", "overlap"))

	rec := httptest.NewRecorder()
	body := `{"weekly":{"monday":[{"start":"09:00","end":"12:00"},{"start":"11:00","end":"13:00"}]}}`
	providerRouter(&mockBookingService{}, &mockProviderService{}, hours).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/providers/p1/schedule", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	hours.AssertExpectations(t)
}

func TestGetSchedule(t *testing.T) {
	hours := &mockWorkingHours{}
	id := uuid.New()
	hours.On("GetSchedule", mock.Anything, id.String()).Return(&entity.WorkingSchedule{
		ProviderID: id,
		Weekly:     map[time.Weekday][]entity.ClockInterval{time.Friday: {{StartMinute: 540, EndMinute: 1440}}},
	}, nil)

	rec := httptest.NewRecorder()
	providerRouter(&mockBookingService{}, &mockProviderService{}, hours).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/"+id.String()+"/schedule", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	weekly := decodeBody(t, rec).Data.(map[string]any)["weekly"].(map[string]any)
	friday := weekly["friday"].([]any)[0].(map[string]any)
	assert.Equal(t, "09:00", friday["start"])
	assert.Equal(t, "24:00", friday["end"])
}

func TestDayStats(t *testing.T) {
	calendar := &mockProviderService{}
	calendar.On("GetDayStats", mock.Anything, &request.DayStatsRequest{ProviderID: "p1", Date: "2026-03-03"}).
		Return(&usecase.DayStats{Date: "2026-03-03", OpenMinutes: 480, BookedMinutes: 120, FreeMinutes: 360, Bookings: 2, Utilization: 0.25}, nil)

	rec := httptest.NewRecorder()
	providerRouter(&mockBookingService{}, calendar, &mockWorkingHours{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/p1/stats?date=2026-03-03", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec).Data.(map[string]any)
	assert.Equal(t, 0.25, data["utilization"])
}
