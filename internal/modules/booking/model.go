// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"tripbot/internal/modules/pricing"
)

type Status string

const (
	StatusConfirmed     Status = "confirmed"
	StatusPaymentFailed Status = "payment_failed"
	StatusCancelled     Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailure PaymentStatus = "failure"
)

type Payment struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	Message       string        `json:"message"`
}

type Booking struct {
	Reference     string                `json:"booking_reference"`
	SessionID     string                `json:"session_id"`
	TravelerName  string                `json:"traveler_name"`
	TravelerEmail string                `json:"traveler_email"`
	Destination   string                `json:"destination"`
	DepartureDate string                `json:"departure_date"`
	ReturnDate    string                `json:"return_date,omitempty"`
	Fields        map[string]string     `json:"collected_fields"`
	Cost          pricing.CostBreakdown `json:"cost_breakdown"`
	Payment       Payment               `json:"payment"`
	Status        Status                `json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
	CancelledAt   *time.Time            `json:"cancelled_at,omitempty"`
}

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusConfirmed:     {StatusCancelled},
	StatusPaymentFailed: {StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
