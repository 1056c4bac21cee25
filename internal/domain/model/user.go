package model

import (
	"time"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/zodiac"
)

// UserRecord is the durable per-user state: sign preference and the daily counter.
type UserRecord struct {
	UserID               int64       `json:"user_id"`
	Username             string      `json:"username,omitempty"`
	ChosenSign           zodiac.Sign `json:"chosen_sign,omitempty"`
	DailyHoroscopesGiven int         `json:"daily_horoscopes_given"`
	LastHoroscopeDate    Date        `json:"last_horoscope_date"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// EffectiveCount is the only valid way to read the counter: it is 0 once the
// stored date is behind today, whatever number was stored.
func (u *UserRecord) EffectiveCount(today Date) int {
	if u == nil {
		return 0
	}
	if u.LastHoroscopeDate.Before(today) {
		return 0
	}
	if u.DailyHoroscopesGiven < 0 {
		return 0
	}
	return u.DailyHoroscopesGiven
}

// IsStale reports whether the counter belongs to an earlier day and must be reset.
func (u *UserRecord) IsStale(today Date) bool {
	return u != nil && !u.LastHoroscopeDate.IsZero() && u.LastHoroscopeDate.Before(today)
}

// UserPatch carries the fields to merge on upsert; nil fields are left untouched.
type UserPatch struct {
	Username             *string
	ChosenSign           *zodiac.Sign
	DailyHoroscopesGiven *int
	LastHoroscopeDate    *Date
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *UserRecord) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.ChosenSign != nil {
		u.ChosenSign = *p.ChosenSign
	}
	if p.DailyHoroscopesGiven != nil {
		u.DailyHoroscopesGiven = *p.DailyHoroscopesGiven
	}
	if p.LastHoroscopeDate != nil {
		u.LastHoroscopeDate = *p.LastHoroscopeDate
	}
}

func (p UserPatch) Validate() error {
	if p.DailyHoroscopesGiven != nil && *p.DailyHoroscopesGiven < 0 {
		return domain.ErrInvalidArgument
	}
	if p.ChosenSign != nil && *p.ChosenSign != "" && !p.ChosenSign.Valid() {
		return domain.ErrInvalidArgument
	}
	return nil
}

// CounterPatch sets the counter and its day marker together.
func CounterPatch(count int, day Date) UserPatch {
	return UserPatch{DailyHoroscopesGiven: &count, LastHoroscopeDate: &day}
}

func SignPatch(s zodiac.Sign) UserPatch {
	return UserPatch{ChosenSign: &s}
}
