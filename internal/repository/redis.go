package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	backend "github.com/redis/go-redis/v9"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// RedisStore хранит профиль и состояние пользователя отдельными ключами,
// множество prefix+"users" служит индексом для ListAll.
type RedisStore struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisStore)

// WithPrefix задает префикс ключей
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "nutrition:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client возвращает клиент, например для распределенной блокировки
func (s *RedisStore) Client() *backend.Client {
	return s.client
}

func (s *RedisStore) profileKey(userID int64) string {
	return s.prefix + "profile:" + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) stateKey(userID int64) string {
	return s.prefix + "state:" + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "users"
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (model.Profile, error) {
	val, err := s.client.Get(ctx, s.profileKey(userID)).Result()
	if errors.Is(err, backend.Nil) {
		return model.Profile{}, model.ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to get profile from redis: %w", err)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return model.Profile{}, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	p.UserID = userID
	if err := p.Validate(); err != nil {
		return model.Profile{}, fmt.Errorf("user %d: %w", userID, err)
	}
	return p, nil
}

func (s *RedisStore) GetOrCreate(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewProfile(userID), nil
	}
	return p, err
}

func (s *RedisStore) Save(ctx context.Context, userID int64, profile model.Profile) error {
	profile.UserID = userID
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.profileKey(userID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save profile to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Exists(ctx, s.profileKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check profile in redis: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]model.Profile, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.profileKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	profiles := make([]model.Profile, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile %d: %w", ids[i], err)
		}
		p.UserID = ids[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("user %d: %w", ids[i], err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, model.ErrInvalidValue) {
		p, err = model.NewProfile(userID), nil
	}
	if err != nil {
		return model.Profile{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.profileKey(userID), s.stateKey(userID))
	pipe.SRem(ctx, s.indexKey(), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return model.Profile{}, fmt.Errorf("failed to delete user from redis: %w", err)
	}
	return p, nil
}

func (s *RedisStore) GetState(ctx context.Context, userID int64) (model.State, error) {
	val, err := s.client.Get(ctx, s.stateKey(userID)).Result()
	if errors.Is(err, backend.Nil) {
		return model.StateIdle, model.ErrNotFound
	}
	if err != nil {
		return model.StateIdle, fmt.Errorf("failed to get state from redis: %w", err)
	}
	return parseStoredState(val), nil
}

func (s *RedisStore) SetState(ctx context.Context, userID int64, state model.State) error {
	if err := s.client.Set(ctx, s.stateKey(userID), state.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to set state in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
