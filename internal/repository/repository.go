package repository

import (
	"context"
	"fmt"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// ErrNotFound возвращается, если пользователя нет в хранилище
var ErrNotFound = model.ErrNotFound

// Store хранилище профилей и состояний пользователей.
// Get, GetState и Delete возвращают ErrNotFound, если пользователя нет.
type Store interface {
	// Профили
	Get(ctx context.Context, userID int64) (model.Profile, error)
	GetOrCreate(ctx context.Context, userID int64) (model.Profile, error)
	Save(ctx context.Context, userID int64, profile model.Profile) error
	Exists(ctx context.Context, userID int64) (bool, error)
	ListAll(ctx context.Context) ([]model.Profile, error)
	Delete(ctx context.Context, userID int64) (model.Profile, error)

	// Состояния
	GetState(ctx context.Context, userID int64) (model.State, error)
	SetState(ctx context.Context, userID int64, state model.State) error

	Close() error
}

// Snapshotter хранилище, которое умеет выгружать и загружать полный снимок
type Snapshotter interface {
	Snapshot() *model.Snapshot
	Restore(snap *model.Snapshot)
}

// profileRow плоское представление профиля для SQL и PostgREST
type profileRow struct {
	UserID   int64   `json:"user_id"`
	Sex      *string `json:"sex"`
	Age      *int    `json:"age"`
	WeightKg *int    `json:"weight_kg"`
	HeightCm *int    `json:"height_cm"`
	Activity *string `json:"activity"`
}

type stateRow struct {
	UserID int64  `json:"user_id"`
	State  string `json:"state"`
}

func newProfileRow(userID int64, p model.Profile) profileRow {
	row := profileRow{
		UserID:   userID,
		Age:      p.Age,
		WeightKg: p.WeightKg,
		HeightCm: p.HeightCm,
	}
	if p.Sex != nil {
		s := string(*p.Sex)
		row.Sex = &s
	}
	if p.Activity != nil {
		a := string(*p.Activity)
		row.Activity = &a
	}
	return row
}

// toModel отклоняет строки со значениями, которые автомат не мог сохранить
func (r profileRow) toModel() (model.Profile, error) {
	p := model.NewProfile(r.UserID)
	if r.Sex != nil {
		p = p.WithSex(model.Sex(*r.Sex))
	}
	if r.Age != nil {
		p = p.WithAge(*r.Age)
	}
	if r.WeightKg != nil {
		p = p.WithWeight(*r.WeightKg)
	}
	if r.HeightCm != nil {
		p = p.WithHeight(*r.HeightCm)
	}
	if r.Activity != nil {
		p = p.WithActivity(model.ActivityLevel(*r.Activity))
	}
	if err := p.Validate(); err != nil {
		return model.Profile{}, fmt.Errorf("user %d: %w", r.UserID, err)
	}
	return p, nil
}

// parseStoredState не считает неизвестное имя ошибкой хранилища:
// StateInvalid обрабатывает автомат.
func parseStoredState(name string) model.State {
	state, _ := model.ParseState(name)
	return state
}
