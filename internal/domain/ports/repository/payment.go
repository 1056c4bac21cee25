package repository

import "context"

// PaymentMarkRepository records payment confirmations delivered by the payment callback.
type PaymentMarkRepository interface {
	MarkPaid(ctx context.Context, userID int64, orderID string) error
	// HasPaid reports whether a confirmation exists without removing it.
	HasPaid(ctx context.Context, userID int64) (bool, error)
	// ConsumePaid reports whether a confirmation exists and removes it, so one
	// payment unlocks exactly one quota reset.
	ConsumePaid(ctx context.Context, userID int64) (bool, error)
}
