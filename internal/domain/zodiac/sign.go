// Package zodiac holds the Western tropical zodiac signs and the birth-date resolver.
package zodiac

import "strings"

// Sign is the stable key of a zodiac sign (used in payloads and storage).
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

// All lists the signs in keyboard order.
var All = []Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

var labels = map[Sign]string{
	Aries:       "♈ Овен",
	Taurus:      "♉ Телец",
	Gemini:      "♊ Близнецы",
	Cancer:      "♋ Рак",
	Leo:         "♌ Лев",
	Virgo:       "♍ Дева",
	Libra:       "♎ Весы",
	Scorpio:     "♏ Скорпион",
	Sagittarius: "♐ Стрелец",
	Capricorn:   "♑ Козерог",
	Aquarius:    "♒ Водолей",
	Pisces:      "♓ Рыбы",
}

// Label is the button text shown to users.
func (s Sign) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

func (s Sign) Valid() bool {
	_, ok := labels[s]
	return ok
}

func (s Sign) String() string { return string(s) }

// ParseSign accepts either a sign key ("leo") or its label ("♌ Лев").
func ParseSign(s string) (Sign, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if k := Sign(strings.ToLower(s)); k.Valid() {
		return k, true
	}
	for k, l := range labels {
		if l == s {
			return k, true
		}
	}
	return "", false
}
