package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

const (
	profilesTable = "profiles"
	statesTable   = "user_states"
)

// SupabaseStore хранит данные в таблицах profiles и user_states через PostgREST
type SupabaseStore struct {
	client *supabase.Client
	logger *slog.Logger
}

type supabaseStateRow struct {
	stateRow
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSupabaseStore(url, key string, logger *slog.Logger) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}

	return &SupabaseStore{
		client: client,
		logger: logger,
	}, nil
}

func (r *SupabaseStore) Get(ctx context.Context, userID int64) (model.Profile, error) {
	data, _, err := r.client.From(profilesTable).
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return model.Profile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if len(rows) == 0 {
		return model.Profile{}, model.ErrNotFound
	}
	return rows[0].toModel()
}

func (r *SupabaseStore) GetOrCreate(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := r.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return model.NewProfile(userID), nil
	}
	return p, err
}

func (r *SupabaseStore) Save(ctx context.Context, userID int64, profile model.Profile) error {
	row := newProfileRow(userID, profile)
	_, _, err := r.client.From(profilesTable).Insert(row, true, "user_id", "", "").Execute()
	if err != nil {
		r.logger.Error("supabase save profile failed", "user_id", userID, "err", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *SupabaseStore) Exists(ctx context.Context, userID int64) (bool, error) {
	_, err := r.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *SupabaseStore) ListAll(ctx context.Context) ([]model.Profile, error) {
	data, count, err := r.client.From(profilesTable).
		Select("*", "exact", false).
		Order("user_id", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	r.logger.Debug("supabase profiles listed", "count", count)

	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	profiles := make([]model.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r *SupabaseStore) Delete(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := r.Get(ctx, userID)
	if errors.Is(err, model.ErrInvalidValue) {
		p, err = model.NewProfile(userID), nil
	}
	if err != nil {
		return model.Profile{}, err
	}

	id := strconv.FormatInt(userID, 10)
	if _, _, err := r.client.From(profilesTable).Delete("", "").Eq("user_id", id).Execute(); err != nil {
		return model.Profile{}, fmt.Errorf("failed to delete profile: %w", err)
	}
	if _, _, err := r.client.From(statesTable).Delete("", "").Eq("user_id", id).Execute(); err != nil {
		return model.Profile{}, fmt.Errorf("failed to delete state: %w", err)
	}
	return p, nil
}

func (r *SupabaseStore) GetState(ctx context.Context, userID int64) (model.State, error) {
	data, _, err := r.client.From(statesTable).
		Select("user_id,state", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return model.StateIdle, fmt.Errorf("failed to get state: %w", err)
	}

	var rows []stateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return model.StateIdle, fmt.Errorf("failed to parse state: %w", err)
	}
	if len(rows) == 0 {
		return model.StateIdle, model.ErrNotFound
	}
	return parseStoredState(rows[0].State), nil
}

func (r *SupabaseStore) SetState(ctx context.Context, userID int64, state model.State) error {
	row := supabaseStateRow{
		stateRow:  stateRow{UserID: userID, State: state.String()},
		UpdatedAt: time.Now().UTC(),
	}
	_, _, err := r.client.From(statesTable).Insert(row, true, "user_id", "", "").Execute()
	if err != nil {
		r.logger.Error("supabase set state failed", "user_id", userID, "err", err)
		return fmt.Errorf("failed to set state: %w", err)
	}
	return nil
}

func (r *SupabaseStore) Close() error {
	return nil
}
