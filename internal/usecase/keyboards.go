package usecase

import (
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/zodiac"
)

func (uc *conversationUC) signPrompt(text string) model.Reply {
	rows := make([][]model.Button, 0, len(zodiac.All)/3+1)
	for i := 0; i < len(zodiac.All); i += 3 {
		row := make([]model.Button, 0, 3)
		for _, s := range zodiac.All[i:min(i+3, len(zodiac.All))] {
			row = append(row, model.Button{Label: s.Label(), Payload: model.SignPrefix + string(s)})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []model.Button{{Label: uc.Tr.T("sign_by_date_button"), Payload: model.PayloadSignByDate}})
	return model.Reply{Text: text, Buttons: rows}
}

func (uc *conversationUC) periodPrompt(text string) model.Reply {
	row := make([]model.Button, 0, len(model.Periods))
	for _, p := range model.Periods {
		row = append(row, model.Button{Label: uc.Tr.T("period_" + string(p)), Payload: model.PeriodPayload(p)})
	}
	return model.Reply{Text: text, Buttons: [][]model.Button{row}}
}

func (uc *conversationUC) categoryPrompt(text string) model.Reply {
	var rows [][]model.Button
	for i, c := range model.Categories {
		if i%2 == 0 {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], model.Button{
			Label:   uc.Tr.T("category_" + string(c)),
			Payload: model.CategoryPayload(c),
		})
	}
	return model.Reply{Text: text, Buttons: rows}
}

func (uc *conversationUC) paymentPrompt(userID int64, text string) model.Reply {
	var rows [][]model.Button
	if uc.Links != nil {
		rows = append(rows,
			[]model.Button{{Label: uc.Tr.T("pay_adsgram"), URL: uc.Links.AdsgramURL(userID)}},
			[]model.Button{{Label: uc.Tr.T("pay_ton", uc.cfg.TonAmount), URL: uc.Links.TonURL(userID)}},
		)
	}
	rows = append(rows, []model.Button{{Label: uc.Tr.T("pay_check"), Payload: model.PayloadCheckPayment}})
	return model.Reply{Text: text, Buttons: rows}
}
