package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireProvider(
	r chi.Router,
	providerHandler *adaptor.ProviderHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/providers/{id}", func(r chi.Router) {
		// ==================== CALENDAR ====================
		// GET /api/providers/{id}/slots?from=YYYY-MM-DD&to=YYYY-MM-DD&duration=60
		r.Get("/slots", providerHandler.ListSlots)
		r.Get("/availability", providerHandler.CheckAvailability)
		r.Get("/next-slot", providerHandler.NextSlot)
		r.Get("/stats", providerHandler.DayStats)

		// GET /api/providers/{id}/bookings?page=1&per_page=10
		r.Get("/bookings", providerHandler.ListBookings)

		// ==================== WORKING HOURS ====================
		r.Get("/schedule", providerHandler.GetSchedule)
		r.With(middleware.RateLimit(config.RateLimit, log)).Put("/schedule", providerHandler.SetSchedule)
	})
}
