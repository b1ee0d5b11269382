package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

type memoryEntry struct {
	mu      sync.Mutex
	profile *model.Profile
	state   *model.State
}

// MemoryStore хранит данные в памяти. У каждого пользователя своя запись со своим
// мьютексом, поэтому операции с разными пользователями не блокируют друг друга.
type MemoryStore struct {
	entries sync.Map // int64 -> *memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) entry(userID int64) *memoryEntry {
	e, _ := s.entries.LoadOrStore(userID, &memoryEntry{})
	return e.(*memoryEntry)
}

func (s *MemoryStore) lookup(userID int64) (*memoryEntry, bool) {
	e, ok := s.entries.Load(userID)
	if !ok {
		return nil, false
	}
	return e.(*memoryEntry), true
}

func (s *MemoryStore) Get(ctx context.Context, userID int64) (model.Profile, error) {
	e, ok := s.lookup(userID)
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == nil {
		return model.Profile{}, model.ErrNotFound
	}
	return e.profile.Clone(), nil
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return model.NewProfile(userID), nil
	}
	return p, err
}

func (s *MemoryStore) Save(ctx context.Context, userID int64, profile model.Profile) error {
	profile = profile.Clone()
	profile.UserID = userID

	e := s.entry(userID)
	e.mu.Lock()
	e.profile = &profile
	e.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, userID int64) (bool, error) {
	_, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	s.entries.Range(func(_, v any) bool {
		e := v.(*memoryEntry)
		e.mu.Lock()
		if e.profile != nil {
			profiles = append(profiles, e.profile.Clone())
		}
		e.mu.Unlock()
		return true
	})
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].UserID < profiles[j].UserID
	})
	return profiles, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID int64) (model.Profile, error) {
	v, ok := s.entries.LoadAndDelete(userID)
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	e := v.(*memoryEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == nil {
		return model.Profile{}, model.ErrNotFound
	}
	return *e.profile, nil
}

func (s *MemoryStore) GetState(ctx context.Context, userID int64) (model.State, error) {
	e, ok := s.lookup(userID)
	if !ok {
		return model.StateIdle, model.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return model.StateIdle, model.ErrNotFound
	}
	return *e.state, nil
}

func (s *MemoryStore) SetState(ctx context.Context, userID int64, state model.State) error {
	e := s.entry(userID)
	e.mu.Lock()
	e.state = &state
	e.mu.Unlock()
	return nil
}

// Snapshot копирует все профили и состояния
func (s *MemoryStore) Snapshot() *model.Snapshot {
	snap := model.NewSnapshot()
	snap.SavedAt = time.Now().UTC()
	s.entries.Range(func(k, v any) bool {
		userID := k.(int64)
		e := v.(*memoryEntry)
		e.mu.Lock()
		if e.profile != nil {
			snap.Users[userID] = e.profile.Clone()
		}
		if e.state != nil {
			snap.UserStates[userID] = *e.state
		}
		e.mu.Unlock()
		return true
	})
	return snap
}

// Restore заменяет содержимое хранилища снимком
func (s *MemoryStore) Restore(snap *model.Snapshot) {
	s.entries.Range(func(k, _ any) bool {
		s.entries.Delete(k)
		return true
	})
	if snap == nil {
		return
	}
	for userID, p := range snap.Users {
		p = p.Clone()
		p.UserID = userID
		s.entries.Store(userID, &memoryEntry{profile: &p})
	}
	for userID, state := range snap.UserStates {
		state := state
		e := s.entry(userID)
		e.mu.Lock()
		e.state = &state
		e.mu.Unlock()
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
