package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/nutrition_bot/internal/service"
)

// replyKeyboard переводит кнопки ответа в клавиатуру Telegram
func (b *Bot) replyKeyboard(lang string, rows [][]service.Button) interface{} {
	if len(rows) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}

	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(b.buttonText(lang, btn)))
		}
		keyboard = append(keyboard, tgbotapi.NewKeyboardButtonRow(buttons...))
	}

	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.ResizeKeyboard = true
	return markup
}

// buttonText подпись кнопки, для предустановок "70 кг"
func (b *Bot) buttonText(lang string, btn service.Button) string {
	label := b.catalog.Get(lang, btn.Key)
	if btn.Value != "" {
		return btn.Value + " " + label
	}
	return label
}
