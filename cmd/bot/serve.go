package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ivanoskov/nutrition_bot/internal/admin"
	"github.com/ivanoskov/nutrition_bot/internal/bot"
	"github.com/ivanoskov/nutrition_bot/internal/charts"
	"github.com/ivanoskov/nutrition_bot/internal/config"
	"github.com/ivanoskov/nutrition_bot/internal/i18n"
	"github.com/ivanoskov/nutrition_bot/internal/logging"
	"github.com/ivanoskov/nutrition_bot/internal/metrics"
	"github.com/ivanoskov/nutrition_bot/internal/repository"
	"github.com/ivanoskov/nutrition_bot/internal/service"
	"github.com/ivanoskov/nutrition_bot/internal/session"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot in long polling mode",
	Long:  `Starts long polling, the admin HTTP API and, for memory storage, periodic snapshots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireToken(); err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	locks := newLockManager(store, logger)

	catalog, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	intake := service.NewIntake(store, locks)
	b, err := bot.NewBot(cfg.TelegramToken, intake, catalog,
		bot.WithLogger(logger),
		bot.WithMetrics(m),
		bot.WithCharts(charts.NewChartGenerator()),
	)
	if err != nil {
		return err
	}

	// Снимки пишутся до тех пор, пока бот не обработает последние обновления
	saveCtx, stopSaving := context.WithCancel(context.Background())
	var saving sync.WaitGroup
	if snapshots, ok := store.(repository.Snapshotter); ok && cfg.StorageBackend == config.BackendMemory {
		saving.Add(1)
		go func() {
			defer saving.Done()
			repository.Autosave(saveCtx, snapshots, repository.NewFileSnapshots(cfg.SnapshotPath),
				cfg.SnapshotInterval, logger, m.SnapshotSaved)
		}()
	}

	srv := startAdmin(cfg, store, locks, reg, logger)

	runErr := b.Start(ctx)

	stopSaving()
	saving.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin server shutdown did not complete", "err", err)
			srv.Close()
		}
	}

	logger.Info("bot stopped")
	return runErr
}

// newLockManager включает распределенную блокировку, если данные лежат в Redis
func newLockManager(store repository.Store, logger *slog.Logger) *session.Manager {
	if rs, ok := store.(*repository.RedisStore); ok {
		return session.NewManager(
			session.WithLogger(logger),
			session.WithLocker(session.NewRedisLocker(rs.Client(), "nutrition:"), 30*time.Second),
		)
	}
	return session.NewManager(session.WithLogger(logger))
}

func startAdmin(cfg *config.Config, store repository.Store, locks *session.Manager, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	if cfg.AdminAddr == "" {
		logger.Info("admin API disabled")
		return nil
	}
	if cfg.DefaultAdminCredentials() {
		logger.Warn("admin API uses default credentials, set ADMIN_USERNAME and ADMIN_PASSWORD")
	}

	srv := &http.Server{
		Addr: cfg.AdminAddr,
		Handler: admin.NewHandler(store, locks, reg, admin.Credentials{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("admin API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin API stopped", "err", err)
		}
	}()
	return srv
}
