package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendSupabase = "supabase"
)

type Config struct {
	TelegramToken string

	StorageBackend   string
	SnapshotPath     string
	SnapshotInterval time.Duration
	SQLitePath       string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SupabaseURL      string
	SupabaseKey      string

	AdminAddr     string
	AdminUsername string
	AdminPassword string

	DefaultLocale string
	LogLevel      string
}

// LoadConfig читает .env (если файл есть) и переменные окружения
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	interval, err := parseDuration("SNAPSHOT_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		SnapshotPath:     getEnv("SNAPSHOT_PATH", "bot-users.json"),
		SnapshotInterval: interval,
		SQLitePath:       getEnv("SQLITE_PATH", "data/bot.db"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_KEY"),
		AdminAddr:        getEnv("ADMIN_ADDR", ":8080"),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "admin123"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "ru"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет настройки выбранного хранилища
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
		if c.SnapshotPath == "" {
			return errors.New("SNAPSHOT_PATH is required for memory storage")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for sqlite storage")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for redis storage")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required for supabase storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// RequireToken нужен командам, которые подключаются к Telegram
func (c *Config) RequireToken() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	return nil
}

// DefaultAdminCredentials сообщает, что пароль администратора не меняли
func (c *Config) DefaultAdminCredentials() bool {
	return c.AdminUsername == "admin" && c.AdminPassword == "admin123"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env value", "key", key, "value", v)
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
