package content

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/zodiac"
)

//go:embed horoscopes.yaml
var horoscopesYAML []byte

var _ adapter.ContentProvider = (*StaticProvider)(nil)

type table struct {
	Header     string                       `yaml:"header"`
	Fallback   string                       `yaml:"fallback"`
	Periods    map[string]string            `yaml:"periods"`
	Categories map[string]string            `yaml:"categories"`
	Texts      map[string]map[string]string `yaml:"texts"`
}

// StaticProvider serves the built-in text table keyed by (period, category).
// The sign only appears in the header.
type StaticProvider struct {
	t table
}

func NewStaticProvider() (*StaticProvider, error) {
	return newStaticProviderFromBytes(horoscopesYAML)
}

func newStaticProviderFromBytes(b []byte) (*StaticProvider, error) {
	var t table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse horoscope table: %w", err)
	}
	if t.Fallback == "" {
		t.Fallback = "Гороскоп пока недоступен."
	}
	return &StaticProvider{t: t}, nil
}

func (s *StaticProvider) GetHoroscope(_ context.Context, sign zodiac.Sign, period model.Period, category model.Category) string {
	return s.Header(sign, period, category) + "\n\n" + s.Body(period, category)
}

// Header is the first line of every horoscope, shared with the AI providers.
func (s *StaticProvider) Header(sign zodiac.Sign, period model.Period, category model.Category) string {
	return fmt.Sprintf(s.t.Header, sign.Label(), s.periodLabel(period), s.categoryLabel(category))
}

// Body returns the table text or the fallback for unknown combinations.
func (s *StaticProvider) Body(period model.Period, category model.Category) string {
	if txt, ok := s.t.Texts[string(period)][string(category)]; ok && txt != "" {
		return txt
	}
	return s.t.Fallback
}

func (s *StaticProvider) periodLabel(p model.Period) string {
	if l, ok := s.t.Periods[string(p)]; ok {
		return l
	}
	return string(p)
}

func (s *StaticProvider) categoryLabel(c model.Category) string {
	if l, ok := s.t.Categories[string(c)]; ok {
		return l
	}
	return string(c)
}
