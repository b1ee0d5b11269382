package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ivanoskov/nutrition_bot/internal/bot"
	"github.com/ivanoskov/nutrition_bot/internal/charts"
	"github.com/ivanoskov/nutrition_bot/internal/config"
	"github.com/ivanoskov/nutrition_bot/internal/i18n"
	"github.com/ivanoskov/nutrition_bot/internal/logging"
	"github.com/ivanoskov/nutrition_bot/internal/repository"
	"github.com/ivanoskov/nutrition_bot/internal/service"
	"github.com/ivanoskov/nutrition_bot/internal/session"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	Body string `json:"body"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

var (
	initOnce sync.Once
	instance *bot.Bot
	initErr  error
)

// setup собирает бота один раз на экземпляр функции. Состояние между
// вызовами живет во внешнем хранилище, поэтому память здесь не годится.
func setup() (*bot.Bot, error) {
	initOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			initErr = err
			return
		}
		if err := cfg.RequireToken(); err != nil {
			initErr = err
			return
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))
		if cfg.StorageBackend == config.BackendMemory {
			logger.Warn("memory storage loses conversation state between invocations")
		}

		store, err := repository.Open(cfg, logger)
		if err != nil {
			initErr = fmt.Errorf("failed to open storage: %w", err)
			return
		}

		locks := session.NewManager(session.WithLogger(logger))
		if rs, ok := store.(*repository.RedisStore); ok {
			locks = session.NewManager(
				session.WithLogger(logger),
				session.WithLocker(session.NewRedisLocker(rs.Client(), "nutrition:"), 30*time.Second),
			)
		}

		catalog, err := i18n.Load(cfg.DefaultLocale)
		if err != nil {
			initErr = err
			return
		}

		instance, initErr = bot.NewBot(cfg.TelegramToken, service.NewIntake(store, locks), catalog,
			bot.WithLogger(logger),
			bot.WithCharts(charts.NewChartGenerator()),
		)
	})
	return instance, initErr
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	b, err := setup()
	if err != nil {
		return errorResponse(err)
	}

	// Обработка webhook-обновления
	if err := b.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		slog.Error("webhook update failed", "err", err)
		return errorResponse(err)
	}

	return &Response{
		StatusCode: http.StatusOK,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: http.StatusInternalServerError,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Точка входа для локального тестирования
}
