package content

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/zodiac"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
)

var _ adapter.ContentProvider = (*AIProvider)(nil)

const systemPrompt = "Ты астролог. Пиши короткие доброжелательные гороскопы на русском языке, " +
	"без медицинских и финансовых советов, не больше пяти предложений."

// AIProvider generates horoscope bodies with a Generator and always answers:
// on error, timeout or a saturated limiter it serves the static table.
type AIProvider struct {
	gen      Generator
	static   *StaticProvider
	budget   *Budget
	timeout  time.Duration
	sem      chan struct{}
	maxToken int
	log      *zerolog.Logger
}

func NewAIProvider(gen Generator, static *StaticProvider, budget *Budget, maxTokens int, timeout time.Duration, maxConcurrent int, logger *zerolog.Logger) *AIProvider {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &AIProvider{
		gen:      gen,
		static:   static,
		budget:   budget,
		timeout:  timeout,
		sem:      make(chan struct{}, maxConcurrent),
		maxToken: maxTokens,
		log:      logging.Component(logger, "content."+gen.Name()),
	}
}

func (p *AIProvider) GetHoroscope(ctx context.Context, sign zodiac.Sign, period model.Period, category model.Category) string {
	header := p.static.Header(sign, period, category)
	body, err := p.generate(ctx, sign, period, category)
	if err != nil {
		metrics.IncContentFallback(p.gen.Name())
		logging.With(ctx, p.log).Warn().Err(err).
			Str("sign", string(sign)).Str("period", string(period)).Str("category", string(category)).
			Msg("content provider failed; serving static text")
		body = p.static.Body(period, category)
	}
	return header + "\n\n" + body
}

func (p *AIProvider) generate(ctx context.Context, sign zodiac.Sign, period model.Period, category model.Category) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("wait for slot: %w", ctx.Err())
	}
	defer func() { <-p.sem }()

	prompt := fmt.Sprintf("Составь гороскоп для знака %s на %s. Аспект: %s.",
		sign.Label(), p.static.periodLabel(period), p.static.categoryLabel(category))

	start := time.Now()
	text, tokens, err := p.gen.Generate(ctx, systemPrompt, prompt, p.maxToken)
	lat := time.Since(start).Milliseconds()
	if err != nil {
		metrics.ObserveContentCall(p.gen.Name(), p.gen.Model(), lat, 0, false)
		return "", err
	}
	text = p.budget.Clamp(text)
	if text == "" {
		metrics.ObserveContentCall(p.gen.Name(), p.gen.Model(), lat, 0, false)
		return "", fmt.Errorf("%s returned empty text", p.gen.Name())
	}
	if tokens == 0 && p.budget != nil {
		tokens = p.budget.Count(text)
	}
	metrics.ObserveContentCall(p.gen.Name(), p.gen.Model(), lat, tokens, true)
	return text, nil
}
