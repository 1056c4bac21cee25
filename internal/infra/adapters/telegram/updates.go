package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-horoscope-bot/internal/domain/model"
)

// inbound is an event plus the callback query id to answer, if any.
type inbound struct {
	ev         model.Event
	callbackID string
}

func toInbound(up tgbotapi.Update) (inbound, bool) {
	switch {
	case up.CallbackQuery != nil:
		q := up.CallbackQuery
		if q.From == nil || q.From.ID == 0 {
			return inbound{}, false
		}
		ev := model.CallbackEvent(q.From.ID, q.Data)
		ev.Username = q.From.UserName
		if q.Message != nil && q.Message.Chat != nil {
			ev.ChatID = q.Message.Chat.ID
		}
		return inbound{ev: ev, callbackID: q.ID}, true

	case up.Message != nil:
		m := up.Message
		if m.From == nil || m.From.ID == 0 || m.Text == "" {
			return inbound{}, false
		}
		ev := model.TextEvent(m.From.ID, m.Text)
		ev.Username = m.From.UserName
		if m.Chat != nil {
			ev.ChatID = m.Chat.ID
		}
		return inbound{ev: ev}, true
	}
	return inbound{}, false
}

func inlineKeyboard(rows [][]model.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Label)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Payload != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Payload))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
