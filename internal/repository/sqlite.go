package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteStore хранит профили и состояния в файле SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Debug("sqlite store ready", "path", path)

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID int64) (model.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, sex, age, weight_kg, height_cm, activity FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, model.ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to get profile %d: %w", userID, err)
	}
	return p, nil
}

func (s *SQLiteStore) GetOrCreate(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewProfile(userID), nil
	}
	return p, err
}

func (s *SQLiteStore) Save(ctx context.Context, userID int64, profile model.Profile) error {
	r := newProfileRow(userID, profile)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, sex, age, weight_kg, height_cm, activity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sex = excluded.sex,
			age = excluded.age,
			weight_kg = excluded.weight_kg,
			height_cm = excluded.height_cm,
			activity = excluded.activity`,
		r.UserID, r.Sex, r.Age, r.WeightKg, r.HeightCm, r.Activity)
	if err != nil {
		s.logger.Error("sqlite save profile failed", "user_id", userID, "err", err)
		return fmt.Errorf("failed to save profile %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check profile %d: %w", userID, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, sex, age, weight_kg, height_cm, activity FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile rows: %w", err)
	}
	return profiles, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID int64) (model.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT user_id, sex, age, weight_kg, height_cm, activity FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, model.ErrNotFound
	}
	if errors.Is(err, model.ErrInvalidValue) {
		p, err = model.NewProfile(userID), nil
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to get profile %d: %w", userID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return model.Profile{}, fmt.Errorf("failed to delete profile %d: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_states WHERE user_id = ?`, userID); err != nil {
		return model.Profile{}, fmt.Errorf("failed to delete state %d: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Profile{}, fmt.Errorf("failed to commit delete: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetState(ctx context.Context, userID int64) (model.State, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM user_states WHERE user_id = ?`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StateIdle, model.ErrNotFound
	}
	if err != nil {
		return model.StateIdle, fmt.Errorf("failed to get state %d: %w", userID, err)
	}
	return parseStoredState(name), nil
}

func (s *SQLiteStore) SetState(ctx context.Context, userID int64, state model.State) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_states (user_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		userID, state.String(), time.Now().UTC())
	if err != nil {
		s.logger.Error("sqlite set state failed", "user_id", userID, "err", err)
		return fmt.Errorf("failed to set state %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var (
		r                   profileRow
		sex, activity       sql.NullString
		age, weight, height sql.NullInt64
	)
	if err := row.Scan(&r.UserID, &sex, &age, &weight, &height, &activity); err != nil {
		return model.Profile{}, err
	}
	if sex.Valid {
		r.Sex = &sex.String
	}
	if activity.Valid {
		r.Activity = &activity.String
	}
	if age.Valid {
		v := int(age.Int64)
		r.Age = &v
	}
	if weight.Valid {
		v := int(weight.Int64)
		r.WeightKg = &v
	}
	if height.Valid {
		v := int(height.Int64)
		r.HeightCm = &v
	}
	return r.toModel()
}
