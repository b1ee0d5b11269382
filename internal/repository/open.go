package repository

import (
	"fmt"
	"log/slog"

	"github.com/ivanoskov/nutrition_bot/internal/config"
)

// Open создает хранилище, выбранное в конфигурации. Снимок для памяти
// загружается здесь, автосохранение запускает вызывающий код.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		store := NewMemoryStore()
		snap, err := NewFileSnapshots(cfg.SnapshotPath).Load()
		if err != nil {
			// Работаем с пустым хранилищем, файл перезапишется при следующем сохранении
			logger.Error("failed to load snapshot, starting empty", "path", cfg.SnapshotPath, "err", err)
			return store, nil
		}
		store.Restore(snap)
		logger.Info("snapshot loaded", "path", cfg.SnapshotPath, "users", len(snap.Users), "states", len(snap.UserStates))
		return store, nil
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case config.BackendRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case config.BackendSupabase:
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
