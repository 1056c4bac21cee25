package model

import "strings"

// Period is the requested horoscope time frame.
type Period string

const (
	PeriodToday    Period = "today"
	PeriodTomorrow Period = "tomorrow"
	PeriodWeek     Period = "week"
)

var Periods = []Period{PeriodToday, PeriodTomorrow, PeriodWeek}

func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodTomorrow, PeriodWeek:
		return true
	}
	return false
}

// Category is the requested horoscope aspect.
type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryLove     Category = "love"
	CategoryBusiness Category = "business"
	CategoryHealth   Category = "health"
)

var Categories = []Category{CategoryGeneral, CategoryLove, CategoryBusiness, CategoryHealth}

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryLove, CategoryBusiness, CategoryHealth:
		return true
	}
	return false
}

// Callback payloads.
const (
	PeriodPrefix   = "date_"
	CategoryPrefix = "type_"
	SignPrefix     = "sign_"

	PayloadSignByDate   = "sign_by_date"
	PayloadCheckPayment = "check_payment"
	PayloadStartOver    = "start_over"
)

func PeriodPayload(p Period) string     { return PeriodPrefix + string(p) }
func CategoryPayload(c Category) string { return CategoryPrefix + string(c) }

// ParsePeriodPayload accepts "date_<period>" with a known period only.
func ParsePeriodPayload(payload string) (Period, bool) {
	rest, ok := strings.CutPrefix(payload, PeriodPrefix)
	if !ok {
		return "", false
	}
	p := Period(rest)
	return p, p.Valid()
}

// ParseCategoryPayload accepts "type_<category>" with a known category only.
func ParseCategoryPayload(payload string) (Category, bool) {
	rest, ok := strings.CutPrefix(payload, CategoryPrefix)
	if !ok {
		return "", false
	}
	c := Category(rest)
	return c, c.Valid()
}
