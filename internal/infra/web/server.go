package web

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
	"telegram-horoscope-bot/internal/usecase"
)

// Server exposes health, metrics, the admin API and the payment callback.
type Server struct {
	statsUC        usecase.StatsUseCase
	dispatchUC     usecase.DispatchUseCase
	marks          repository.PaymentMarkRepository // nil disables the payment callback
	auth           *AuthManager
	callbackSecret string
	log            *zerolog.Logger

	dispatching atomic.Bool
}

func NewServer(
	statsUC usecase.StatsUseCase,
	dispatchUC usecase.DispatchUseCase,
	marks repository.PaymentMarkRepository,
	auth *AuthManager,
	callbackSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:        statsUC,
		dispatchUC:     dispatchUC,
		marks:          marks,
		auth:           auth,
		callbackSecret: callbackSecret,
		log:            logging.Component(logger, "web"),
	}
}

// Router builds the HTTP routes. Work started by a request that outlives it
// (a manual dispatch) runs on base. A non-empty webhookPath mounts the
// Telegram webhook there; the path itself is the shared secret.
func (s *Server) Router(base context.Context, webhookPath string, webhook http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	if webhookPath != "" && webhook != nil {
		r.Method(http.MethodPost, webhookPath, webhook)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.marks != nil {
			r.With(Timeout(10*time.Second)).Post("/payment/callback", paymentCallbackHandler(s.marks, s.callbackSecret, s.log))
		}
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware, Timeout(15*time.Second))
			r.Get("/stats", statsHandler(s.statsUC))
			r.Get("/users/{id}", userGetHandler(s.statsUC))
			r.Post("/dispatch", s.dispatchHandler(base))
		})
	})
	return r
}

// Serve runs an http.Server on addr until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info().Msg("http server stopped")
		return nil
	}
}
