package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/infra/adapters/payment"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
	"telegram-horoscope-bot/internal/usecase"
)

const callbackSecretHeader = "X-Callback-Secret"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := statsUC.Totals(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "failed to get totals")
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

func userGetHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		view, err := statsUC.User(r.Context(), id)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, view)
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusServiceUnavailable, "failed to get user")
		}
	}
}

// dispatchHandler starts a manual daily dispatch on base and answers 202 at once.
// A second request while one is running gets 409.
func (s *Server) dispatchHandler(base context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.dispatching.CompareAndSwap(false, true) {
			writeError(w, http.StatusConflict, "dispatch already running")
			return
		}
		tid := logging.TraceID(r.Context())
		go func() {
			defer s.dispatching.Store(false)
			ctx := logging.WithTraceID(base, tid)
			n, err := s.dispatchUC.Dispatch(ctx, "manual")
			l := logging.With(ctx, s.log)
			if err != nil {
				l.Error().Err(err).Int("queued", n).Msg("manual dispatch failed")
				return
			}
			l.Info().Int("queued", n).Msg("manual dispatch finished")
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}

type paymentCallbackRequest struct {
	OrderID string `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status"`
}

// paymentCallbackHandler records a provider confirmation; the next
// "check payment" of that user then succeeds once.
func paymentCallbackHandler(marks repository.PaymentMarkRepository, secret string, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logging.With(r.Context(), logger)
		got := r.Header.Get(callbackSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			metrics.IncPaymentCallback("unauthorized")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req paymentCallbackRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			metrics.IncPaymentCallback("bad_request")
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Status != "" && req.Status != "paid" {
			metrics.IncPaymentCallback("ignored")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		if req.UserID <= 0 {
			id, ok := payment.ParseOrderID(req.OrderID)
			if !ok {
				metrics.IncPaymentCallback("bad_request")
				writeError(w, http.StatusBadRequest, "unknown user")
				return
			}
			req.UserID = id
		}

		if err := marks.MarkPaid(r.Context(), req.UserID, req.OrderID); err != nil {
			metrics.IncPaymentCallback("error")
			l.Error().Err(err).Int64("tg_id", req.UserID).Str("order_id", req.OrderID).Msg("failed to record payment")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		metrics.IncPaymentCallback("ok")
		l.Info().Int64("tg_id", req.UserID).Str("order_id", req.OrderID).Msg("payment recorded")
		writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
	}
}
