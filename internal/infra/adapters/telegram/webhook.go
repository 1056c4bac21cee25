package telegram

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookHandler accepts updates pushed by Telegram. Handling continues on the
// dispatcher after the response, so base must outlive the request.
// Mount it under a hard-to-guess path: it performs no authentication.
func (r *RealTelegramBotAdapter) WebhookHandler(base context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var up tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(&up); err != nil {
			r.log.Warn().Err(err).Msg("bad webhook payload")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.Dispatch(base, up)
		w.WriteHeader(http.StatusOK)
	})
}
