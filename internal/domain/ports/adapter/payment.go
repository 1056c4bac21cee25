package adapter

import "context"

// PaymentGateway is the hex port for payment confirmation. Calls may be slow;
// callers bound them with a context deadline.
type PaymentGateway interface {
	Name() string
	IsPaid(ctx context.Context, userID int64) (bool, error)
}

// PaymentSettler is implemented by gateways whose confirmations are single-use.
// Settle is called once the quota reset for a confirmed payment is stored.
type PaymentSettler interface {
	Settle(ctx context.Context, userID int64) error
}

// PaymentLinks builds the external pay URLs shown with the payment options.
type PaymentLinks interface {
	AdsgramURL(userID int64) string
	TonURL(userID int64) string
}

// AdNotifier shows an ad impression for a user. Failures are logged, never surfaced.
type AdNotifier interface {
	ShowAd(ctx context.Context, userID int64) error
}
