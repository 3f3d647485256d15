package policies

import (
	"context"

	"staybook/internal/domain/shared/money"
)

// PaymentIntent is the gateway handle for collecting a booking total.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentsPort is the narrow contract the booking engine consumes from the
// payment provider. Failures surface as external-service errors; the
// provider's own ledger is out of scope.
type PaymentsPort interface {
	CreatePaymentIntent(ctx context.Context, amount money.Money, metadata map[string]string) (PaymentIntent, error)
	ConfirmPayment(ctx context.Context, paymentIntentID string) (bool, error)
	RefundPayment(ctx context.Context, paymentIntentID string, amount money.Money, reason string) (string, error)
	CreateTransfer(ctx context.Context, destinationAccount string, amount money.Money, bookingID string) (string, error)
}
