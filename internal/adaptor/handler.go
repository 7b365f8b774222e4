package adaptor

import (
	"errors"
	"net/http"

	"appointment-booking/internal/scheduling"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Provider *ProviderHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Provider: NewProviderHandler(service.Booking, service.Provider, service.WorkingHours, log),
	}
}

// writeServiceError maps domain errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		vErr  *scheduling.ValidationError
		stErr *scheduling.StateTransitionError
	)

	switch {
	case errors.As(err, &vErr):
		log.Warn(operation+" validation failed", zap.Error(err))
		var details map[string]string
		if vErr.Field != "" {
			details = map[string]string{vErr.Field: vErr.Reason}
		}
		utils.ResponseUnprocessable(w, err.Error(), details)

	case errors.Is(err, scheduling.ErrInvalidWindow):
		log.Warn(operation+" failed - invalid window", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, scheduling.ErrBookingNotFound), errors.Is(err, scheduling.ErrProviderNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, scheduling.ErrSlotUnavailable):
		log.Warn(operation+" failed - slot taken", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.As(err, &stErr):
		log.Warn(operation+" failed - invalid state",
			zap.String("from", string(stErr.From)),
			zap.String("to", string(stErr.To)),
		)
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, scheduling.ErrCancellationWindowExpired):
		log.Warn(operation+" failed - too late to cancel", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error(), nil)

	case errors.Is(err, scheduling.ErrReservationTimeout), errors.Is(err, scheduling.ErrTemporary):
		log.Warn(operation+" failed - retry later", zap.Error(err))
		utils.ResponseServiceUnavailable(w, err.Error())

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
