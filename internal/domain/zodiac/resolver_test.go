package zodiac

import (
	"errors"
	"testing"
	"time"
)

func TestResolveSign_Boundaries(t *testing.T) {
	cases := []struct {
		day, month int
		want       Sign
	}{
		{21, 3, Aries},
		{19, 4, Aries},
		{20, 4, Taurus},
		{20, 5, Taurus},
		{21, 5, Gemini},
		{20, 6, Gemini},
		{21, 6, Cancer},
		{22, 7, Cancer},
		{23, 7, Leo},
		{22, 8, Leo},
		{23, 8, Virgo},
		{22, 9, Virgo},
		{23, 9, Libra},
		{22, 10, Libra},
		{23, 10, Scorpio},
		{21, 11, Scorpio},
		{22, 11, Sagittarius},
		{21, 12, Sagittarius},
		{22, 12, Capricorn},
		{31, 12, Capricorn},
		{1, 1, Capricorn},
		{19, 1, Capricorn},
		{20, 1, Aquarius},
		{18, 2, Aquarius},
		{19, 2, Pisces},
		{29, 2, Pisces},
		{20, 3, Pisces},
	}
	for _, c := range cases {
		if got := ResolveSign(c.day, c.month); got != c.want {
			t.Errorf("ResolveSign(%d, %d) = %s, want %s", c.day, c.month, got, c.want)
		}
	}
}

// Every day of a leap year must match exactly one row, and every sign must be used.
func TestResolveSign_PartitionsYear(t *testing.T) {
	seen := map[Sign]int{}
	d := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Year() == 2024 {
		matches := 0
		for _, b := range signTable {
			if b.contains(d.Day(), int(d.Month())) {
				matches++
				seen[b.sign]++
			}
		}
		if matches != 1 {
			t.Fatalf("%s matched %d signs, want exactly 1", d.Format("02.01"), matches)
		}
		d = d.AddDate(0, 0, 1)
	}
	if len(seen) != 12 {
		t.Fatalf("expected all 12 signs to be reachable, got %d", len(seen))
	}
	total := 0
	for _, n := range seen {
		total += n
	}
	if total != 366 {
		t.Fatalf("expected 366 days covered, got %d", total)
	}
}

func TestParseBirthDate(t *testing.T) {
	t.Run("valid two-digit form", func(t *testing.T) {
		d, m, y, err := ParseBirthDate("01.01.2000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 1 || m != 1 || y != 2000 {
			t.Fatalf("got %d.%d.%d", d, m, y)
		}
		if s := ResolveSign(d, m); s != Capricorn {
			t.Fatalf("expected capricorn, got %s", s)
		}
	})

	t.Run("valid one-digit form", func(t *testing.T) {
		d, m, _, err := ParseBirthDate("5.7.1990")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 5 || m != 7 {
			t.Fatalf("got %d.%d", d, m)
		}
	})

	t.Run("leap day", func(t *testing.T) {
		if _, _, _, err := ParseBirthDate("29.02.2000"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	invalidCalendar := []string{"30.02.2000", "29.02.2001", "31.04.1999", "31.06.2010"}
	for _, in := range invalidCalendar {
		if _, _, _, err := ParseBirthDate(in); !errors.Is(err, ErrInvalidCalendarDate) {
			t.Errorf("ParseBirthDate(%q) err = %v, want ErrInvalidCalendarDate", in, err)
		}
	}

	invalidFormat := []string{"1/1/2000", "", "01.01.00", "001.01.2000", "00.01.2000", "32.01.2000", "10.13.2000", "10.0.2000", "a.b.cdef", "01.01.2000 extra"}
	for _, in := range invalidFormat {
		if _, _, _, err := ParseBirthDate(in); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseBirthDate(%q) err = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestParseSign(t *testing.T) {
	if s, ok := ParseSign("Leo"); !ok || s != Leo {
		t.Fatalf("key lookup failed: %v %v", s, ok)
	}
	if s, ok := ParseSign("♑ Козерог"); !ok || s != Capricorn {
		t.Fatalf("label lookup failed: %v %v", s, ok)
	}
	if _, ok := ParseSign("dragon"); ok {
		t.Fatal("unknown sign must not parse")
	}
	for _, s := range All {
		if got, ok := ParseSign(s.Label()); !ok || got != s {
			t.Errorf("label round trip failed for %s", s)
		}
	}
}
