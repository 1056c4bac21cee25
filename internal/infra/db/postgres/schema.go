package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
  user_id                BIGINT PRIMARY KEY,
  username               TEXT        NOT NULL DEFAULT '',
  chosen_sign            TEXT        NOT NULL DEFAULT '',
  daily_horoscopes_given INTEGER     NOT NULL DEFAULT 0 CHECK (daily_horoscopes_given >= 0),
  last_horoscope_date    DATE,
  created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS users_with_sign_idx ON users (user_id) WHERE chosen_sign <> '';
`

// EnsureSchema creates the tables the bot needs. It is idempotent and runs at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
