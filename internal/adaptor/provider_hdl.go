package adaptor

import (
	"encoding/json"
	"net/http"
	"time"

	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProviderHandler struct {
	bookings usecase.BookingService
	calendar usecase.ProviderService
	hours    usecase.WorkingHoursService
	log      *zap.Logger
}

func NewProviderHandler(bookings usecase.BookingService, calendar usecase.ProviderService, hours usecase.WorkingHoursService, log *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		bookings: bookings,
		calendar: calendar,
		hours:    hours,
		log:      log.With(zap.String("handler", "provider")),
	}
}

// ListSlots handles GET /api/providers/{id}/slots?from=&to=&duration=&granularity=
func (h *ProviderHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListSlotsRequest{
		ProviderID:         chi.URLParam(r, "id"),
		From:               query.Get("from"),
		To:                 query.Get("to"),
		DurationMinutes:    utils.ParseInt(query.Get("duration"), 0),
		GranularityMinutes: utils.ParseInt(query.Get("granularity"), 0),
	}
	if req.To == "" {
		req.To = req.From
	}

	slots, err := h.bookings.ListAvailableSlots(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list slots")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewSlotResponses(slots))
}

// CheckAvailability handles GET /api/providers/{id}/availability?start=&duration=
func (h *ProviderHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, ok := parseTimeParam(w, query.Get("start"), "start")
	if !ok {
		return
	}

	req := &request.AvailabilityRequest{
		ProviderID:      chi.URLParam(r, "id"),
		Start:           start,
		DurationMinutes: utils.ParseInt(query.Get("duration"), 0),
	}

	available, err := h.calendar.CheckAvailability(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", response.AvailabilityResponse{
		Available: available,
		Start:     start,
		End:       start.Add(time.Duration(req.DurationMinutes) * time.Minute),
	})
}

// NextSlot handles GET /api/providers/{id}/next-slot?from=&duration=&granularity=
func (h *ProviderHandler) NextSlot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.NextSlotRequest{
		ProviderID:         chi.URLParam(r, "id"),
		DurationMinutes:    utils.ParseInt(query.Get("duration"), 0),
		GranularityMinutes: utils.ParseInt(query.Get("granularity"), 0),
	}
	if raw := query.Get("from"); raw != "" {
		from, ok := parseTimeParam(w, raw, "from")
		if !ok {
			return
		}
		req.From = from
	}

	slot, err := h.calendar.NextSlot(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "find next slot")
		return
	}
	if slot == nil {
		utils.ResponseNotFound(w, "No free slot within the search horizon")
		return
	}

	utils.ResponseSuccess(w, "success", response.SlotResponse{Start: slot.Start, End: slot.End})
}

// ListBookings handles GET /api/providers/{id}/bookings?page=&per_page=
func (h *ProviderHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.bookings.ListProviderBookings(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list provider bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetSchedule handles GET /api/providers/{id}/schedule
func (h *ProviderHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.hours.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get schedule")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewScheduleResponse(schedule))
}

// SetSchedule handles PUT /api/providers/{id}/schedule
func (h *ProviderHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var req request.SetScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	schedule, err := h.hours.SetSchedule(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "set schedule")
		return
	}

	utils.ResponseSuccess(w, "Schedule updated", response.NewScheduleResponse(schedule))
}

// DayStats handles GET /api/providers/{id}/stats?date=
func (h *ProviderHandler) DayStats(w http.ResponseWriter, r *http.Request) {
	req := &request.DayStatsRequest{
		ProviderID: chi.URLParam(r, "id"),
		Date:       r.URL.Query().Get("date"),
	}

	stats, err := h.calendar.GetDayStats(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "get day stats")
		return
	}

	utils.ResponseSuccess(w, "success", response.DayStatsResponse{
		Date:          stats.Date,
		OpenMinutes:   stats.OpenMinutes,
		BookedMinutes: stats.BookedMinutes,
		FreeMinutes:   stats.FreeMinutes,
		Bookings:      stats.Bookings,
		Utilization:   stats.Utilization,
	})
}

func parseTimeParam(w http.ResponseWriter, raw, name string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		utils.ResponseBadRequest(w, name+" must be an RFC 3339 timestamp", nil)
		return time.Time{}, false
	}
	return t, true
}
