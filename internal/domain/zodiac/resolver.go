package zodiac

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidFormat       = errors.New("birth date must look like DD.MM.YYYY")
	ErrInvalidCalendarDate = errors.New("birth date does not exist in the calendar")
)

var birthDateRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)

// ParseBirthDate parses D.M.YYYY or DD.MM.YYYY.
// Day must be 1-31 and month 1-12, otherwise ErrInvalidFormat.
// Combinations that do not exist (30.02) fail with ErrInvalidCalendarDate.
func ParseBirthDate(text string) (day, month, year int, err error) {
	m := birthDateRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, 0, 0, ErrInvalidFormat
	}
	day, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	year, _ = strconv.Atoi(m[3])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return 0, 0, 0, ErrInvalidFormat
	}

	// time.Date normalizes overflow (30.02 -> 01.03), so a round trip detects impossible dates.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return 0, 0, 0, ErrInvalidCalendarDate
	}
	return day, month, year, nil
}

type boundary struct {
	sign                 Sign
	startMonth, startDay int
	endMonth, endDay     int
}

// signTable covers the whole year; Capricorn wraps over the new year.
var signTable = []boundary{
	{Aries, 3, 21, 4, 19},
	{Taurus, 4, 20, 5, 20},
	{Gemini, 5, 21, 6, 20},
	{Cancer, 6, 21, 7, 22},
	{Leo, 7, 23, 8, 22},
	{Virgo, 8, 23, 9, 22},
	{Libra, 9, 23, 10, 22},
	{Scorpio, 10, 23, 11, 21},
	{Sagittarius, 11, 22, 12, 21},
	{Capricorn, 12, 22, 1, 19},
	{Aquarius, 1, 20, 2, 18},
	{Pisces, 2, 19, 3, 20},
}

func (b boundary) contains(day, month int) bool {
	v := month*100 + day
	start := b.startMonth*100 + b.startDay
	end := b.endMonth*100 + b.endDay
	if start <= end {
		return v >= start && v <= end
	}
	return v >= start || v <= end
}

// ResolveSign maps a calendar day to its sign. Every valid (day, month) pair
// matches exactly one row of signTable; the Capricorn fallback is unreachable
// for calendar-valid input.
func ResolveSign(day, month int) Sign {
	for _, b := range signTable {
		if b.contains(day, month) {
			return b.sign
		}
	}
	return Capricorn
}
