package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-horoscope-bot/internal/domain/model"
)

// DayClaim lets exactly one replica run a once-per-day job.
type DayClaim struct {
	client RedisClient
	name   string
}

func NewDayClaim(client RedisClient, name string) *DayClaim {
	return &DayClaim{client: client, name: name}
}

// Claim reports whether the caller won day. The marker outlives the day so a
// late replica cannot claim it again.
func (c *DayClaim) Claim(ctx context.Context, day model.Date) (bool, error) {
	key := fmt.Sprintf("job:%s:%s", c.name, day)
	return c.client.SetNX(ctx, key, "1", 48*time.Hour)
}
