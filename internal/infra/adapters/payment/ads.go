package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/infra/logging"
)

var (
	_ adapter.AdNotifier = (*AdsgramNotifier)(nil)
	_ adapter.AdNotifier = (*LogNotifier)(nil)
)

// AdsgramNotifier requests an ad impression for a user from the AdsGram API.
type AdsgramNotifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAdsgramNotifier(baseURL, apiKey string, timeout time.Duration) (*AdsgramNotifier, error) {
	if apiKey == "" {
		return nil, errors.New("adsgram api key empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid adsgram url: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AdsgramNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (a *AdsgramNotifier) ShowAd(ctx context.Context, userID int64) error {
	q := url.Values{}
	q.Set("tgid", strconv.FormatInt(userID, 10))
	q.Set("blockid", a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/advbot?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("adsgram http %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier only records the impression; used when no AdsGram key is configured.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logging.Component(logger, "ads")}
}

func (n *LogNotifier) ShowAd(ctx context.Context, userID int64) error {
	logging.With(ctx, n.log).Info().Int64("user_id", userID).Msg("ad impression (log only)")
	return nil
}
