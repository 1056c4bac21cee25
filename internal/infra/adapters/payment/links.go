package payment

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"telegram-horoscope-bot/internal/domain/ports/adapter"
)

var _ adapter.PaymentLinks = (*Links)(nil)

// Links builds the AdsGram and TON pay URLs. Each AdsGram URL carries a
// fresh order id so repeated offers are distinguishable on the provider side.
type Links struct {
	adsgramPayURL string
	adsgramKey    string
	tonWallet     string
	tonNano       int64
	newID         func() string
}

func NewLinks(adsgramPayURL, adsgramKey, tonWallet string, tonNano int64) *Links {
	return &Links{
		adsgramPayURL: adsgramPayURL,
		adsgramKey:    adsgramKey,
		tonWallet:     tonWallet,
		tonNano:       tonNano,
		newID:         func() string { return ulid.Make().String() },
	}
}

// OrderID formats the order id embedded in the AdsGram URL.
func (l *Links) OrderID(userID int64) string {
	return fmt.Sprintf("adsgram_%d_%s", userID, l.newID())
}

// ParseOrderID extracts the user id from an order id built by OrderID.
func ParseOrderID(orderID string) (int64, bool) {
	rest, ok := strings.CutPrefix(orderID, "adsgram_")
	if !ok {
		return 0, false
	}
	idPart, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (l *Links) AdsgramURL(userID int64) string {
	q := url.Values{}
	q.Set("api_key", l.adsgramKey)
	q.Set("amount", "1")
	q.Set("order_id", l.OrderID(userID))
	return l.adsgramPayURL + "?" + q.Encode()
}

func (l *Links) TonURL(_ int64) string {
	return fmt.Sprintf("https://ton.org/invoice/%s?amount=%d", url.PathEscape(l.tonWallet), l.tonNano)
}

// TonAmount renders the TON amount for button labels, e.g. "0.05".
func (l *Links) TonAmount() string {
	return FormatNanoTON(l.tonNano)
}

// FormatNanoTON renders nano-TON as a decimal TON amount without trailing zeros.
func FormatNanoTON(nano int64) string {
	whole := nano / 1_000_000_000
	frac := nano % 1_000_000_000
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%09d", whole, frac)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}
