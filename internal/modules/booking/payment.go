// README: Mock payment gateway with deterministic outcomes.
package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tripbot/internal/types"
)

type PaymentRequest struct {
	Reference string
	Email     string
	Amount    types.Money
}

type PaymentGateway interface {
	Charge(ctx context.Context, req PaymentRequest) (Payment, error)
}

// MockPayments approves any positive amount up to Limit. The transaction id
// is derived from the booking reference so retries give the same result.
type MockPayments struct {
	Limit types.Money
}

func (m MockPayments) Charge(_ context.Context, req PaymentRequest) (Payment, error) {
	txn := "TXN-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.Reference)).String()[:12]
	if !req.Amount.IsPositive() {
		return Payment{Status: PaymentFailure, TransactionID: txn, Message: "amount must be positive"}, nil
	}
	if m.Limit.Amount.IsPositive() && req.Amount.Amount.GreaterThan(m.Limit.Amount) {
		return Payment{
			Status:        PaymentFailure,
			TransactionID: txn,
			Message:       fmt.Sprintf("amount %s exceeds the card limit of %s", req.Amount, m.Limit),
		}, nil
	}
	return Payment{Status: PaymentSuccess, TransactionID: txn, Message: "payment captured"}, nil
}
