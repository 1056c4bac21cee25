//go:build !integration

package model

import (
	"testing"
	"time"

	"telegram-horoscope-bot/internal/domain/zodiac"
)

func TestDateIn_DayBoundaryFollowsZone(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*3600)
	instant := time.Date(2026, 5, 31, 22, 30, 0, 0, time.UTC)
	if got := DateIn(instant, time.UTC); got != (Date{2026, time.May, 31}) {
		t.Fatalf("UTC date = %v", got)
	}
	if got := DateIn(instant, moscow); got != (Date{2026, time.June, 1}) {
		t.Fatalf("MSK date = %v", got)
	}
	if got := DateIn(instant, nil); got != (Date{2026, time.May, 31}) {
		t.Fatalf("nil zone date = %v", got)
	}
}

func TestDate_OrderingAndText(t *testing.T) {
	a := Date{2025, time.December, 31}
	b := a.AddDays(1)
	if b != (Date{2026, time.January, 1}) {
		t.Fatalf("AddDays = %v", b)
	}
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Fatal("Before ordering wrong")
	}
	if (Date{}).String() != "" || !(Date{}).IsZero() {
		t.Fatal("zero date must render empty")
	}

	var d Date
	if err := d.UnmarshalText([]byte("2026-02-28")); err != nil || d != (Date{2026, time.February, 28}) {
		t.Fatalf("UnmarshalText = %v, %v", d, err)
	}
	if err := d.UnmarshalText([]byte("28.02.2026")); err == nil {
		t.Fatal("foreign layout accepted")
	}
	txt, _ := b.MarshalText()
	if string(txt) != "2026-01-01" {
		t.Fatalf("MarshalText = %s", txt)
	}
}

func TestUserRecord_EffectiveCount(t *testing.T) {
	today := Date{2026, time.March, 10}
	tests := []struct {
		name  string
		rec   *UserRecord
		want  int
		stale bool
	}{
		{"nil record", nil, 0, false},
		{"never used", &UserRecord{}, 0, false},
		{"today", &UserRecord{DailyHoroscopesGiven: 2, LastHoroscopeDate: today}, 2, false},
		{"yesterday", &UserRecord{DailyHoroscopesGiven: 2, LastHoroscopeDate: today.AddDays(-1)}, 0, true},
		{"negative stored", &UserRecord{DailyHoroscopesGiven: -4, LastHoroscopeDate: today}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.EffectiveCount(today); got != tt.want {
				t.Errorf("EffectiveCount = %d, want %d", got, tt.want)
			}
			if got := tt.rec.IsStale(today); got != tt.stale {
				t.Errorf("IsStale = %v, want %v", got, tt.stale)
			}
		})
	}
}

func TestUserPatch(t *testing.T) {
	u := &UserRecord{UserID: 9}
	day := Date{2026, time.April, 2}
	CounterPatch(1, day).Apply(u)
	SignPatch(zodiac.Libra).Apply(u)
	if u.DailyHoroscopesGiven != 1 || u.LastHoroscopeDate != day || u.ChosenSign != zodiac.Libra {
		t.Fatalf("patched = %+v", u)
	}

	if err := CounterPatch(-1, day).Validate(); err == nil {
		t.Fatal("negative counter accepted")
	}
	if err := SignPatch("ophiuchus").Validate(); err == nil {
		t.Fatal("unknown sign accepted")
	}
	if err := SignPatch("").Validate(); err != nil {
		t.Fatalf("clearing the sign rejected: %v", err)
	}
}

func TestEvent_IsStartAndInput(t *testing.T) {
	tests := []struct {
		ev   Event
		want bool
	}{
		{TextEvent(1, "/start"), true},
		{TextEvent(1, "  /START payload"), true},
		{TextEvent(1, "/start@HoroBot"), true},
		{TextEvent(1, "/stop"), false},
		{TextEvent(1, ""), false},
		{CallbackEvent(1, "/start"), false},
	}
	for _, tt := range tests {
		if got := tt.ev.IsStart(); got != tt.want {
			t.Errorf("IsStart(%+v) = %v", tt.ev, got)
		}
	}
	if got := CallbackEvent(1, " date_today ").Input(); got != "date_today" {
		t.Fatalf("Input = %q", got)
	}
}

func TestReply_Payloads(t *testing.T) {
	r := Reply{Buttons: [][]Button{
		{{Label: "a", Payload: "x"}, {Label: "pay", URL: "https://pay"}},
		{{Label: "b", Payload: "y"}},
	}}
	got := r.Payloads()
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("Payloads = %v", got)
	}
}

func TestPayloadParsing(t *testing.T) {
	for _, p := range Periods {
		got, ok := ParsePeriodPayload(PeriodPayload(p))
		if !ok || got != p {
			t.Errorf("period %s round trip failed", p)
		}
	}
	for _, c := range Categories {
		got, ok := ParseCategoryPayload(CategoryPayload(c))
		if !ok || got != c {
			t.Errorf("category %s round trip failed", c)
		}
	}
	for _, bad := range []string{"date_", "date_yesterday", "today", "type_date_today"} {
		if _, ok := ParsePeriodPayload(bad); ok {
			t.Errorf("ParsePeriodPayload(%q) accepted", bad)
		}
	}
	if _, ok := ParseCategoryPayload("type_money"); ok {
		t.Error("unknown category accepted")
	}
}

func TestStateEncoding(t *testing.T) {
	states := []State{
		Idle{},
		ChoosingSign{},
		WaitingForBirthDate{},
		ChoosingDate{Sign: zodiac.Pisces},
		ChoosingType{Sign: zodiac.Aries, Period: PeriodWeek},
		WaitingForPayment{},
	}
	for _, s := range states {
		b, err := EncodeState(s)
		if err != nil {
			t.Fatalf("EncodeState(%v): %v", s, err)
		}
		got, err := DecodeState(b)
		if err != nil || got != s {
			t.Fatalf("DecodeState(%s) = %v, %v", b, got, err)
		}
	}

	if b, _ := EncodeState(nil); string(b) != `{"step":"idle"}` {
		t.Fatalf("nil state encodes as %s", b)
	}
	if s, err := DecodeState(nil); err != nil || s != (Idle{}) {
		t.Fatalf("empty blob = %v, %v", s, err)
	}
	for _, bad := range []string{
		`{"step":"choosing_date"}`,
		`{"step":"choosing_type","sign":"leo","period":"month"}`,
		`{"step":"flying"}`,
		`not json`,
	} {
		if _, err := DecodeState([]byte(bad)); err == nil {
			t.Errorf("DecodeState(%s) accepted", bad)
		}
	}
}
