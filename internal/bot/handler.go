package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/ivanoskov/nutrition_bot/internal/service"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	// Клавиатуры обычные, не inline: все ответы приходят текстом
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	return b.handleMessage(ctx, update.UpdateID, update.Message)
}

// handleMessage после сохранения перехода не возвращает ошибок отправки:
// повторная доставка того же обновления применила бы ввод второй раз.
func (b *Bot) handleMessage(ctx context.Context, updateID int, message *tgbotapi.Message) error {
	started := time.Now()
	logger := b.logger.With(
		"request_id", uuid.NewString(),
		"update_id", updateID,
		"user_id", message.From.ID,
		"chat_id", message.Chat.ID,
	)
	if b.delivered(message.From.ID, updateID) {
		logger.Info("duplicate update skipped")
		b.observe("duplicate", started)
		return nil
	}
	lang := b.catalog.Match(message.From.LanguageCode)

	out, err := b.intake.Handle(ctx, message.From.ID, b.resolveInput(lang, message))
	if err != nil {
		b.observe("error", started)
		logger.Error("failed to handle message", "err", err)
		b.sendText(message.Chat.ID, b.catalog.Get(lang, service.KeyInternalError), nil)
		return fmt.Errorf("failed to handle message: %w", err)
	}

	b.markDelivered(message.From.ID, updateID)
	b.record(logger, out)
	if out.Reply.Err != nil {
		b.observe("rejected", started)
	} else {
		b.observe("ok", started)
	}

	b.sendOutcome(logger, message.Chat.ID, lang, out)
	return nil
}

// delivered сообщает, обработано ли уже обновление с таким номером.
// Номера обновлений Telegram растут, нулевой номер не проверяется.
func (b *Bot) delivered(userID int64, updateID int) bool {
	if updateID <= 0 {
		return false
	}
	b.seenMu.Lock()
	defer b.seenMu.Unlock()
	return updateID <= b.lastUpdate[userID]
}

func (b *Bot) markDelivered(userID int64, updateID int) {
	if updateID <= 0 {
		return
	}
	b.seenMu.Lock()
	defer b.seenMu.Unlock()
	if updateID > b.lastUpdate[userID] {
		b.lastUpdate[userID] = updateID
	}
}

// resolveInput переводит подпись кнопки в ключ. Свободный текст (возраст,
// вес) передается как есть, кроме текста, совпадающего с именем ключа:
// набранное вручную "navigation.skip" не должно работать как кнопка.
func (b *Bot) resolveInput(lang string, message *tgbotapi.Message) string {
	if message.IsCommand() && message.Command() == service.CmdRestart {
		return service.CmdRestartTG
	}
	if key, ok := b.catalog.Resolve(lang, message.Text); ok {
		return key
	}
	if b.catalog.HasKey(strings.TrimSpace(message.Text)) {
		return ""
	}
	return message.Text
}

func (b *Bot) record(logger *slog.Logger, out *service.Outcome) {
	if out.Reply.Err != nil {
		logger.Info("input rejected",
			"state", out.From.String(),
			"reason", out.Reply.Err.Reason(),
		)
	} else if out.From != out.To {
		logger.Debug("state changed", "from", out.From.String(), "to", out.To.String())
	}

	if b.metrics == nil {
		return
	}
	b.metrics.Transitions.WithLabelValues(out.From.String(), out.To.String()).Inc()
	if out.Reply.Err != nil {
		b.metrics.Rejections.WithLabelValues(out.Reply.Err.Reason()).Inc()
	}
	if c := out.Reply.Calculation; c != nil {
		b.metrics.Calculations.WithLabelValues(string(c.Option)).Inc()
	}
}

func (b *Bot) observe(outcome string, started time.Time) {
	if b.metrics == nil {
		return
	}
	b.metrics.Updates.WithLabelValues(outcome).Inc()
	b.metrics.HandleSeconds.Observe(time.Since(started).Seconds())
}

func (b *Bot) sendOutcome(logger *slog.Logger, chatID int64, lang string, out *service.Outcome) {
	if err := b.sendText(chatID, b.renderText(lang, out), b.replyKeyboard(lang, out.Reply.Keyboard)); err != nil {
		logger.Error("failed to send reply", "err", err)
		return
	}

	if c := out.Reply.Calculation; c != nil && b.charts != nil {
		b.sendChart(logger, chatID, lang, c)
	}
}

func (b *Bot) sendText(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// sendChart отправляет график к расчету. Ошибка графика не мешает ответу.
func (b *Bot) sendChart(logger *slog.Logger, chatID int64, lang string, c *service.Calculation) {
	png, name, err := b.renderChart(lang, c)
	if err != nil {
		logger.Warn("failed to render chart", "option", string(c.Option), "err", err)
		return
	}
	if png == nil {
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	if _, err := b.api.Send(photo); err != nil {
		logger.Warn("failed to send chart", "option", string(c.Option), "err", err)
	}
}
