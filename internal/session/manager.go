// Package session сериализует операции над данными одного пользователя:
// чтение, расчет перехода и запись выполняются под замком его ID,
// разные пользователи друг друга не блокируют.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ivanoskov/nutrition_bot/internal/logging"
)

// UnlockFunc освобождает распределенную блокировку
type UnlockFunc func(ctx context.Context) error

// DistributedLocker блокировка между несколькими экземплярами бота
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager хранит мьютексы пользователей и удаляет их, когда на них никто не ссылается
type Manager struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry

	locker  DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

type Option func(*Manager)

// WithLocker включает распределенную блокировку
func WithLocker(locker DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		m.lockTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:   make(map[int64]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(userID int64) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[userID]
	if !ok {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// Active число пользователей, для которых сейчас удерживается или ожидается замок
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// WithLock выполняет fn под замком пользователя
func (m *Manager) WithLock(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, strconv.FormatInt(userID, 10), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
