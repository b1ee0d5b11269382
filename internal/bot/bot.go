package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/nutrition_bot/internal/charts"
	"github.com/ivanoskov/nutrition_bot/internal/i18n"
	"github.com/ivanoskov/nutrition_bot/internal/logging"
	"github.com/ivanoskov/nutrition_bot/internal/metrics"
	"github.com/ivanoskov/nutrition_bot/internal/service"
)

// Sender отправляет сообщения в Telegram. *tgbotapi.BotAPI подходит без обертки.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api        Sender
	poller     *tgbotapi.BotAPI
	intake     *service.Intake
	catalog    *i18n.Catalog
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	charts     *charts.ChartGenerator
	logger     *slog.Logger

	seenMu     sync.Mutex
	lastUpdate map[int64]int
}

type Option func(*Bot)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithMetrics включает счетчики обновлений и переходов
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

// WithCharts включает отправку графиков после расчета калорий и БЖУ
func WithCharts(g *charts.ChartGenerator) Option {
	return func(b *Bot) {
		b.charts = g
	}
}

// NewBot подключается к Telegram по токену
func NewBot(token string, intake *service.Intake, catalog *i18n.Catalog, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	b := New(api, intake, catalog, opts...)
	b.poller = api
	return b, nil
}

// New создает бота поверх готового отправителя. Без *tgbotapi.BotAPI
// бот работает только через HandleWebhook.
func New(api Sender, intake *service.Intake, catalog *i18n.Catalog, opts ...Option) *Bot {
	b := &Bot{
		api:        api,
		intake:     intake,
		catalog:    catalog,
		logger:     logging.NewNop(),
		lastUpdate: make(map[int64]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.dispatcher = NewDispatcher(b.logger)
	return b
}

// Start запускает бота в режиме long polling и блокируется до отмены ctx.
// Перед возвратом дожидается обработки уже принятых обновлений.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("long polling requires a telegram client")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.poller.GetUpdatesChan(u)
	defer b.dispatcher.Wait()

	b.logger.Info("bot started", "username", b.poller.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.poller.StopReceivingUpdates()
			b.logger.Info("bot stopping, draining updates", "active_users", b.dispatcher.Active())
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.Dispatch(ctx, update)
		}
	}
}

// Dispatch ставит обновление в очередь его пользователя. Обновления одного
// пользователя обрабатываются по порядку, разных пользователей параллельно.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	userID, ok := updateUserID(update)
	if !ok {
		return
	}

	// Принятое обновление обрабатывается до конца и при остановке
	jobCtx := context.WithoutCancel(ctx)
	b.dispatcher.Submit(userID, func() {
		if err := b.handleUpdate(jobCtx, update); err != nil {
			b.logger.Error("error handling update", "update_id", update.UpdateID, "user_id", userID, "err", err)
		}
	})
}

// Wait дожидается пустых очередей
func (b *Bot) Wait() {
	b.dispatcher.Wait()
}

// HandleWebhook точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("failed to decode update: %w", err)
	}

	return b.handleUpdate(ctx, update)
}

func updateUserID(update tgbotapi.Update) (int64, bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, false
	}
	return update.Message.From.ID, true
}
