package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

var _ repository.PaymentMarkRepository = (*PaymentMarkRepo)(nil)

// PaymentMarkRepo stores payment confirmations until the user checks them.
type PaymentMarkRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewPaymentMarkRepo(client RedisClient, ttl time.Duration) *PaymentMarkRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PaymentMarkRepo{client: client, ttl: ttl}
}

func paymentKey(userID int64) string {
	return fmt.Sprintf("payment:paid:%d", userID)
}

func (r *PaymentMarkRepo) MarkPaid(ctx context.Context, userID int64, orderID string) error {
	if userID <= 0 {
		return domain.ErrInvalidArgument
	}
	return r.client.Set(ctx, paymentKey(userID), orderID, r.ttl)
}

func (r *PaymentMarkRepo) HasPaid(ctx context.Context, userID int64) (bool, error) {
	_, err := r.client.Get(ctx, paymentKey(userID))
	if errors.Is(err, ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PaymentMarkRepo) ConsumePaid(ctx context.Context, userID int64) (bool, error) {
	_, err := r.client.GetDel(ctx, paymentKey(userID))
	if errors.Is(err, ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
