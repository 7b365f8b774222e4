package response

import (
	"time"

	"appointment-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID                 string          `json:"id"`
	BookingNumber      string          `json:"booking_number"`
	ProviderID         string          `json:"provider_id"`
	ClientID           string          `json:"client_id"`
	ServiceID          string          `json:"service_id"`
	Start              time.Time       `json:"start"`
	End                time.Time       `json:"end"`
	DurationMinutes    int             `json:"duration_minutes"`
	Status             string          `json:"status"`
	Price              decimal.Decimal `json:"price"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	RescheduledFromID  *string         `json:"rescheduled_from_id,omitempty"`
	RescheduleCount    int             `json:"reschedule_count"`
	StatusChangedAt    time.Time       `json:"status_changed_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func NewBookingResponse(b *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID.String(),
		BookingNumber:      b.BookingNumber,
		ProviderID:         b.ProviderID.String(),
		ClientID:           b.ClientID.String(),
		ServiceID:          b.ServiceID.String(),
		Start:              b.Start,
		End:                b.End(),
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		Price:              b.Price,
		CancellationReason: b.CancellationReason,
		RescheduleCount:    b.RescheduleCount,
		StatusChangedAt:    b.StatusChangedAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.RescheduledFromID != nil {
		from := b.RescheduledFromID.String()
		resp.RescheduledFromID = &from
	}
	return resp
}

type BookingHistoryResponse struct {
	Action         string    `json:"action"`
	PreviousStatus *string   `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	Actor          string    `json:"actor"`
	Reason         *string   `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewBookingHistoryResponses(items []*entity.BookingHistory) []BookingHistoryResponse {
	out := make([]BookingHistoryResponse, 0, len(items))
	for _, h := range items {
		row := BookingHistoryResponse{
			Action:    string(h.Action),
			NewStatus: string(h.NewStatus),
			Actor:     h.Actor,
			Reason:    h.Reason,
			CreatedAt: h.CreatedAt,
		}
		if h.PreviousStatus != nil {
			prev := string(*h.PreviousStatus)
			row.PreviousStatus = &prev
		}
		out = append(out, row)
	}
	return out
}
