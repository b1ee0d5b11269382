package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivanoskov/nutrition_bot/internal/model"
	"github.com/ivanoskov/nutrition_bot/internal/session"
)

// Repository определяет доступ к профилям и состояниям пользователей
type Repository interface {
	GetOrCreate(ctx context.Context, userID int64) (model.Profile, error)
	Save(ctx context.Context, userID int64, profile model.Profile) error
	GetState(ctx context.Context, userID int64) (model.State, error)
	SetState(ctx context.Context, userID int64, state model.State) error
}

// Outcome результат обработки одного сообщения
type Outcome struct {
	From    model.State
	To      model.State
	Profile model.Profile
	Reply   Reply
}

// Intake связывает автомат с хранилищем: для каждого сообщения читает
// состояние и профиль, вычисляет переход и сохраняет результат под замком пользователя.
type Intake struct {
	repo    Repository
	machine *Machine
	locks   *session.Manager
}

// NewIntake создает новый экземпляр Intake
func NewIntake(repo Repository, locks *session.Manager) *Intake {
	if locks == nil {
		locks = session.NewManager()
	}
	return &Intake{
		repo:    repo,
		machine: NewMachine(),
		locks:   locks,
	}
}

// Handle обрабатывает текст пользователя. Ошибки ввода возвращаются в Reply.Err,
// error означает только сбой хранилища.
func (s *Intake) Handle(ctx context.Context, userID int64, text string) (*Outcome, error) {
	var out *Outcome
	err := s.locks.WithLock(ctx, userID, func(ctx context.Context) error {
		state, err := s.repo.GetState(ctx, userID)
		if errors.Is(err, model.ErrNotFound) {
			state = model.StateIdle
		} else if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}

		profile, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}

		next, updated, reply := s.machine.Advance(state, profile, text)

		if err := s.repo.Save(ctx, userID, updated); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		if err := s.repo.SetState(ctx, userID, next); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}

		out = &Outcome{From: state, To: next, Profile: updated, Reply: reply}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
