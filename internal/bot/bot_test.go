package bot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/nutrition_bot/internal/charts"
	"github.com/ivanoskov/nutrition_bot/internal/i18n"
	"github.com/ivanoskov/nutrition_bot/internal/metrics"
	"github.com/ivanoskov/nutrition_bot/internal/model"
	"github.com/ivanoskov/nutrition_bot/internal/repository"
	"github.com/ivanoskov/nutrition_bot/internal/service"
	"github.com/ivanoskov/nutrition_bot/internal/session"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	// failures число следующих отправок, которые завершатся ошибкой
	failures int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, errors.New("telegram 502")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	return tgbotapi.MessageConfig{}
}

func (f *fakeSender) photos() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.sent {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			n++
		}
	}
	return n
}

type fixture struct {
	bot     *Bot
	sender  *fakeSender
	store   *repository.MemoryStore
	catalog *i18n.Catalog
	reg     *prometheus.Registry
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, repo service.Repository) *fixture {
	t.Helper()
	catalog, err := i18n.Load("ru")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	if repo == nil {
		repo = store
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sender := &fakeSender{}

	b := New(sender, service.NewIntake(repo, session.NewManager()), catalog,
		WithMetrics(m),
		WithCharts(charts.NewChartGenerator()),
	)
	return &fixture{bot: b, sender: sender, store: store, catalog: catalog, reg: reg, metrics: m}
}

func textUpdate(userID int64, lang, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, LanguageCode: lang},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

// send отправляет текст и возвращает ответ бота
func (f *fixture) send(t *testing.T, lang, text string) tgbotapi.MessageConfig {
	t.Helper()
	require.NoError(t, f.bot.handleUpdate(context.Background(), textUpdate(1, lang, text)))
	return f.sender.last()
}

func keyboardTexts(t *testing.T, msg tgbotapi.MessageConfig) []string {
	t.Helper()
	markup, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok, "reply keyboard expected")
	var texts []string
	for _, row := range markup.Keyboard {
		for _, btn := range row {
			texts = append(texts, btn.Text)
		}
	}
	return texts
}

func TestConversationInEnglish(t *testing.T) {
	f := newFixture(t, nil)
	en := func(key string) string { return f.catalog.Get("en", key) }

	msg := f.send(t, "en", "/start")
	assert.Contains(t, msg.Text, en("welcome"))
	assert.Contains(t, msg.Text, en("param.sex.question"))
	assert.Contains(t, keyboardTexts(t, msg), en("param.sex.male"))

	msg = f.send(t, "en", en("param.sex.male"))
	assert.Equal(t, en("param.age.question"), msg.Text)

	msg = f.send(t, "en", "12")
	assert.Equal(t, en("error.invalid_age_range.young"), msg.Text)

	msg = f.send(t, "en", "30")
	assert.Equal(t, en("param.weight.question"), msg.Text)
	assert.Contains(t, keyboardTexts(t, msg), "80 "+en("metric.kg"))

	f.send(t, "en", "80 "+en("metric.kg"))
	msg = f.send(t, "en", "180 "+en("metric.cm"))
	assert.Equal(t, en("param.activity.question"), msg.Text)

	msg = f.send(t, "en", en("param.activity.moderate"))
	assert.Contains(t, msg.Text, en("summary.title"))
	assert.Contains(t, msg.Text, en("calculation.menu.title"))
	assert.Contains(t, msg.Text, "80 "+en("metric.kg"))
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)

	msg = f.send(t, "en", en("calculation.water"))
	assert.Contains(t, msg.Text, "*2.40*")
	assert.Contains(t, keyboardTexts(t, msg), en("info.button.water"))

	msg = f.send(t, "en", en("calculation.calories"))
	assert.Contains(t, msg.Text, "*2759*")

	msg = f.send(t, "en", en("calculation.macros"))
	assert.Contains(t, msg.Text, "*207*")
	assert.Contains(t, msg.Text, "*92*")
	assert.Contains(t, msg.Text, "*276*")
	assert.Equal(t, 2, f.sender.photos())

	state, err := f.store.GetState(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateMenuReady, state)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues("too_young")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Calculations.WithLabelValues("macros")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Updates.WithLabelValues("rejected")))
}

func TestFallbackLanguage(t *testing.T) {
	f := newFixture(t, nil)

	msg := f.send(t, "de", "/start")
	assert.Contains(t, msg.Text, f.catalog.Get("ru", "welcome"))

	// Русская подпись принимается и у пользователя с английским интерфейсом
	msg = f.send(t, "en", f.catalog.Get("ru", "param.sex.female"))
	assert.Equal(t, f.catalog.Get("en", "param.age.question"), msg.Text)
}

func TestSkipShowsOnlySetFieldsInSummary(t *testing.T) {
	f := newFixture(t, nil)
	ru := func(key string) string { return f.catalog.Get("ru", key) }

	f.send(t, "ru", "/start")
	f.send(t, "ru", ru("navigation.skip"))
	f.send(t, "ru", "25")
	f.send(t, "ru", ru("navigation.skip"))
	f.send(t, "ru", ru("navigation.skip"))
	msg := f.send(t, "ru", ru("navigation.skip"))

	assert.Contains(t, msg.Text, ru("param.age.title")+": 25")
	assert.NotContains(t, msg.Text, ru("param.weight.title"))

	msg = f.send(t, "ru", ru("calculation.water"))
	assert.Equal(t, ru("error.missing_data"), msg.Text)
}

type brokenRepo struct {
	*repository.MemoryStore
}

func (brokenRepo) GetState(ctx context.Context, userID int64) (model.State, error) {
	return model.StateIdle, errors.New("connection refused")
}

func TestStorageErrorRepliesInternal(t *testing.T) {
	f := newFixture(t, brokenRepo{repository.NewMemoryStore()})

	err := f.bot.handleUpdate(context.Background(), textUpdate(1, "en", "/start"))
	require.Error(t, err)
	assert.Equal(t, f.catalog.Get("en", "error.internal"), f.sender.last().Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Updates.WithLabelValues("error")))
}

func TestHandleWebhook(t *testing.T) {
	f := newFixture(t, nil)

	body, err := json.Marshal(textUpdate(7, "en", "/start"))
	require.NoError(t, err)
	require.NoError(t, f.bot.HandleWebhook(context.Background(), body))

	state, err := f.store.GetState(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingSex, state)

	assert.Error(t, f.bot.HandleWebhook(context.Background(), []byte("{")))
	assert.NoError(t, f.bot.HandleWebhook(context.Background(), []byte(`{"update_id":1}`)))
}

func TestDispatchUpdates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, text := range []string{"/start", f.catalog.Get("ru", "param.sex.male"), "40", "70", "170"} {
		f.bot.Dispatch(ctx, textUpdate(3, "ru", text))
	}
	f.bot.Dispatch(ctx, tgbotapi.Update{})
	f.bot.Wait()

	p, err := f.store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 40, *p.Age)
	assert.Equal(t, 70, *p.WeightKg)
	assert.Equal(t, 170, *p.HeightCm)

	state, err := f.store.GetState(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingActivity, state)
	assert.True(t, strings.Contains(f.sender.last().Text, f.catalog.Get("ru", "param.activity.question")))
}

func TestStartWithoutClient(t *testing.T) {
	f := newFixture(t, nil)
	assert.Error(t, f.bot.Start(context.Background()))
}

func webhookBody(t *testing.T, updateID int, userID int64, text string) []byte {
	t.Helper()
	update := textUpdate(userID, "en", text)
	update.UpdateID = updateID
	body, err := json.Marshal(update)
	require.NoError(t, err)
	return body
}

func TestRedeliveryAfterFailedReplyAppliesOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, 1, model.NewProfile(1)))
	require.NoError(t, f.store.SetState(ctx, 1, model.StateAwaitingAge))

	f.sender.failures = 1
	body := webhookBody(t, 100, 1, "30")
	require.NoError(t, f.bot.HandleWebhook(ctx, body))
	require.NoError(t, f.bot.HandleWebhook(ctx, body))

	p, err := f.store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.Age)
	assert.Equal(t, 30, *p.Age)
	assert.Nil(t, p.WeightKg)

	state, err := f.store.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingWeight, state)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Updates.WithLabelValues("duplicate")))

	// Следующее обновление обрабатывается как обычно
	require.NoError(t, f.bot.HandleWebhook(ctx, webhookBody(t, 101, 1, "80")))
	p, err = f.store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.WeightKg)
	assert.Equal(t, 80, *p.WeightKg)
}

func TestStorageErrorAllowsRedelivery(t *testing.T) {
	f := newFixture(t, brokenRepo{repository.NewMemoryStore()})
	body := webhookBody(t, 5, 1, "/start")

	require.Error(t, f.bot.HandleWebhook(context.Background(), body))
	require.Error(t, f.bot.HandleWebhook(context.Background(), body))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Updates.WithLabelValues("duplicate")))
}

func TestTypedKeyNamesAreNotCommands(t *testing.T) {
	f := newFixture(t, nil)
	en := func(key string) string { return f.catalog.Get("en", key) }
	ctx := context.Background()

	f.send(t, "en", "/start")
	f.send(t, "en", en("param.sex.male"))

	msg := f.send(t, "en", service.CmdSkip)
	assert.Equal(t, en("error.invalid_number"), msg.Text)

	msg = f.send(t, "en", service.CmdRestart)
	assert.Equal(t, en("error.invalid_number"), msg.Text)

	state, err := f.store.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingAge, state)

	// Подпись кнопки по-прежнему работает
	msg = f.send(t, "en", en("navigation.skip"))
	assert.Equal(t, en("param.weight.question"), msg.Text)
}

func TestIdleRejectionShowsError(t *testing.T) {
	f := newFixture(t, nil)

	msg := f.send(t, "en", "hello")
	assert.Contains(t, msg.Text, f.catalog.Get("en", "error.invalid_option"))
	assert.Contains(t, msg.Text, f.catalog.Get("en", "welcome"))
}
