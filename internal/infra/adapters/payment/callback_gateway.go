package payment

import (
	"context"
	"fmt"

	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

var (
	_ adapter.PaymentGateway = (*CallbackGateway)(nil)
	_ adapter.PaymentSettler = (*CallbackGateway)(nil)
)

// CallbackGateway reads confirmations posted to the payment callback endpoint.
// A confirmation stays until Settle, so a failed reset can be retried.
type CallbackGateway struct {
	marks repository.PaymentMarkRepository
}

func NewCallbackGateway(marks repository.PaymentMarkRepository) *CallbackGateway {
	return &CallbackGateway{marks: marks}
}

func (g *CallbackGateway) Name() string { return "callback" }

func (g *CallbackGateway) IsPaid(ctx context.Context, userID int64) (bool, error) {
	ok, err := g.marks.HasPaid(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("read payment mark: %w", err)
	}
	return ok, nil
}

func (g *CallbackGateway) Settle(ctx context.Context, userID int64) error {
	if _, err := g.marks.ConsumePaid(ctx, userID); err != nil {
		return fmt.Errorf("consume payment mark: %w", err)
	}
	return nil
}
