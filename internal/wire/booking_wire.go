package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		// ==================== READ ROUTES ====================
		// GET /api/bookings/{id} - Booking detail
		r.Get("/{id}", bookingHandler.GetBooking)

		// GET /api/bookings/{id}/history - Status change audit trail
		r.Get("/{id}/history", bookingHandler.GetBookingHistory)

		// ==================== MUTATING ROUTES (rate limited) ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(config.RateLimit, log))

			// POST /api/bookings - Reserve a slot as a pending booking
			r.Post("/", bookingHandler.CreateBooking)

			r.Post("/{id}/confirm", bookingHandler.ConfirmBooking)
			r.Post("/{id}/cancel", bookingHandler.CancelBooking)
			r.Post("/{id}/complete", bookingHandler.CompleteBooking)

			// POST /api/bookings/{id}/reschedule - Move a confirmed booking, returns the new booking
			r.Post("/{id}/reschedule", bookingHandler.RescheduleBooking)
		})
	})
}
