package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/domain/zodiac"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `user_id, username, chosen_sign, daily_horoscopes_given, last_horoscope_date, created_at, updated_at`

func scanUser(row pgx.Row) (*model.UserRecord, error) {
	var (
		u    model.UserRecord
		sign string
		last *time.Time
	)
	if err := row.Scan(&u.UserID, &u.Username, &sign, &u.DailyHoroscopesGiven, &last, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ChosenSign = zodiac.Sign(sign)
	if last != nil {
		u.LastHoroscopeDate = model.DateOf(*last)
	}
	return &u, nil
}

func (r *PostgresUserRepo) Get(ctx context.Context, userID int64) (*model.UserRecord, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id=$1;`
	u, err := scanUser(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

// Upsert is one INSERT ... ON CONFLICT statement: absent rows get defaults,
// present rows keep every column whose patch field is nil.
func (r *PostgresUserRepo) Upsert(ctx context.Context, userID int64, patch model.UserPatch) error {
	if userID <= 0 {
		return domain.ErrInvalidArgument
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	const q = `
INSERT INTO users (user_id, username, chosen_sign, daily_horoscopes_given, last_horoscope_date)
VALUES ($1, COALESCE($2::text, ''), COALESCE($3::text, ''), COALESCE($4::int, 0), $5::date)
ON CONFLICT (user_id) DO UPDATE SET
  username               = COALESCE($2::text, users.username),
  chosen_sign            = COALESCE($3::text, users.chosen_sign),
  daily_horoscopes_given = COALESCE($4::int, users.daily_horoscopes_given),
  last_horoscope_date    = COALESCE($5::date, users.last_horoscope_date),
  updated_at             = now();
`
	var sign *string
	if patch.ChosenSign != nil {
		s := string(*patch.ChosenSign)
		sign = &s
	}
	var last *time.Time
	if patch.LastHoroscopeDate != nil && !patch.LastHoroscopeDate.IsZero() {
		t := patch.LastHoroscopeDate.Time()
		last = &t
	}
	if _, err := r.pool.Exec(ctx, q, userID, patch.Username, sign, patch.DailyHoroscopesGiven, last); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
			return domain.ErrInvalidArgument
		}
		return fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return nil
}

func (r *PostgresUserRepo) ListWithSign(ctx context.Context, offset, limit int) ([]*model.UserRecord, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE chosen_sign <> '' ORDER BY user_id OFFSET $1 LIMIT NULLIF($2::int, 0);`
	rows, err := r.pool.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*model.UserRecord, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
