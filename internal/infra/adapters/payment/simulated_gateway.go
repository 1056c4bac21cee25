package payment

import (
	"context"
	"time"

	"telegram-horoscope-bot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SimulatedGateway)(nil)

// SimulatedGateway reports every user as paid after a fixed delay.
// It stands in for a real ledger check in development and demos.
type SimulatedGateway struct {
	delay time.Duration
}

func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{delay: delay}
}

func (g *SimulatedGateway) Name() string { return "simulated" }

func (g *SimulatedGateway) IsPaid(ctx context.Context, _ int64) (bool, error) {
	if g.delay <= 0 {
		return true, nil
	}
	t := time.NewTimer(g.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
