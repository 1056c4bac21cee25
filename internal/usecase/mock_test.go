//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/domain/zodiac"
)

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu      sync.Mutex
	Users   map[int64]model.UserRecord
	Upserts []model.UserPatch

	GetErr    error
	UpsertErr error
	// FailUpsertN fails the N-th upsert (1-based) with UpsertErr; 0 fails all when UpsertErr is set.
	FailUpsertN int
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{Users: map[int64]model.UserRecord{}}
}

func (m *MockUserRepo) Get(_ context.Context, userID int64) (*model.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	u, ok := m.Users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *MockUserRepo) Upsert(_ context.Context, userID int64, patch model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil && (m.FailUpsertN == 0 || m.FailUpsertN == len(m.Upserts)+1) {
		m.Upserts = append(m.Upserts, model.UserPatch{})
		return m.UpsertErr
	}
	m.Upserts = append(m.Upserts, patch)
	u, ok := m.Users[userID]
	if !ok {
		u = model.UserRecord{UserID: userID, CreatedAt: time.Now()}
	}
	patch.Apply(&u)
	u.UpdatedAt = time.Now()
	m.Users[userID] = u
	return nil
}

func (m *MockUserRepo) ListWithSign(_ context.Context, offset, limit int) ([]*model.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	ids := make([]int64, 0, len(m.Users))
	for id, u := range m.Users {
		if u.ChosenSign != "" {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if offset >= len(ids) {
		return nil, nil
	}
	end := min(offset+limit, len(ids))
	out := make([]*model.UserRecord, 0, end-offset)
	for _, id := range ids[offset:end] {
		u := m.Users[id]
		out = append(out, &u)
	}
	return out, nil
}

func (m *MockUserRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return 0, m.GetErr
	}
	return len(m.Users), nil
}

// Snapshot copies the quota-relevant fields of a user (zero value if absent).
func (m *MockUserRepo) Snapshot(userID int64) (zodiac.Sign, int, model.Date, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[userID]
	return u.ChosenSign, u.DailyHoroscopesGiven, u.LastHoroscopeDate, ok
}

// ---- Mock SessionRepository ----

type MockSessionRepo struct {
	mu     sync.Mutex
	States map[int64]model.State
	SetErr error // fails Set and Clear
	GetErr error
	Clears int
}

var _ repository.SessionRepository = (*MockSessionRepo)(nil)

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{States: map[int64]model.State{}}
}

func (m *MockSessionRepo) Get(_ context.Context, userID int64) (model.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if s, ok := m.States[userID]; ok {
		return s, nil
	}
	return model.Idle{}, nil
}

func (m *MockSessionRepo) Set(_ context.Context, userID int64, s model.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.States[userID] = s
	return nil
}

func (m *MockSessionRepo) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clears++
	if m.SetErr != nil {
		return m.SetErr
	}
	delete(m.States, userID)
	return nil
}

func (m *MockSessionRepo) State(userID int64) model.State {
	s, _ := m.Get(context.Background(), userID)
	return s
}

// =============================
// Adapters
// =============================

type StubContent struct {
	mu    sync.Mutex
	Calls int
}

var _ adapter.ContentProvider = (*StubContent)(nil)

func (s *StubContent) GetHoroscope(_ context.Context, sign zodiac.Sign, period model.Period, category model.Category) string {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	return string(sign) + "/" + string(period) + "/" + string(category)
}

type MockGateway struct {
	mu     sync.Mutex
	Paid   bool
	Err    error
	Delay  time.Duration
	Checks int
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) IsPaid(ctx context.Context, _ int64) (bool, error) {
	g.mu.Lock()
	g.Checks++
	paid, err, delay := g.Paid, g.Err, g.Delay
	g.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return paid, err
}

// MockSettlingGateway hands out single-use confirmations.
type MockSettlingGateway struct {
	MockGateway
	SettleErr error
	Settled   int
}

var _ adapter.PaymentSettler = (*MockSettlingGateway)(nil)

func (g *MockSettlingGateway) Settle(_ context.Context, _ int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SettleErr != nil {
		return g.SettleErr
	}
	g.Settled++
	g.Paid = false
	return nil
}

type StubLinks struct{}

var _ adapter.PaymentLinks = StubLinks{}

func (StubLinks) AdsgramURL(userID int64) string { return "https://adsgram.test/pay" }
func (StubLinks) TonURL(userID int64) string     { return "https://ton.test/invoice" }

type MockAds struct {
	mu    sync.Mutex
	Shown []int64
	Err   error
}

var _ adapter.AdNotifier = (*MockAds)(nil)

func (a *MockAds) ShowAd(_ context.Context, userID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Shown = append(a.Shown, userID)
	return a.Err
}

func (a *MockAds) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Shown)
}

// MockTelegramBot records outbound messages.
type MockTelegramBot struct {
	mu      sync.Mutex
	Sent    map[int64]string
	Replies []model.Reply

	SendMessageFunc func(ctx context.Context, chatID int64, text string) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Sent == nil {
		m.Sent = map[int64]string{}
	}
	m.Sent[chatID] = text
	return nil
}

func (m *MockTelegramBot) SendReply(_ context.Context, r model.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, r)
	return nil
}

// ---- Lockers ----

type MockLocker struct {
	mu    sync.Mutex
	Err   error
	Held  int
	Calls int
}

var _ adapter.UserLocker = (*MockLocker)(nil)

func (l *MockLocker) Lock(_ context.Context, _ int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls++
	if l.Err != nil {
		return nil, l.Err
	}
	l.Held++
	return func() {
		l.mu.Lock()
		l.Held--
		l.mu.Unlock()
	}, nil
}

// =============================
// Helpers
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fixedClock returns a settable clock.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
