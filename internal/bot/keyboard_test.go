package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/nutrition_bot/internal/service"
)

func TestReplyKeyboard(t *testing.T) {
	f := newFixture(t, nil)

	markup, ok := f.bot.replyKeyboard("en", [][]service.Button{
		{{Key: service.CmdSkip}, {Key: service.CmdBack}},
		{{Key: "metric.kg", Value: "70"}},
	}).(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)

	assert.True(t, markup.ResizeKeyboard)
	require.Len(t, markup.Keyboard, 2)
	assert.Equal(t, f.catalog.Get("en", service.CmdSkip), markup.Keyboard[0][0].Text)
	assert.Equal(t, "70 "+f.catalog.Get("en", "metric.kg"), markup.Keyboard[1][0].Text)
}

func TestReplyKeyboardRemovedWhenEmpty(t *testing.T) {
	f := newFixture(t, nil)

	remove, ok := f.bot.replyKeyboard("en", nil).(tgbotapi.ReplyKeyboardRemove)
	require.True(t, ok)
	assert.True(t, remove.RemoveKeyboard)
}
