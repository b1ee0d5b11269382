package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// FileSnapshots читает и пишет снимок хранилища в JSON-файл
type FileSnapshots struct {
	Path string
}

func NewFileSnapshots(path string) *FileSnapshots {
	if path == "" {
		path = "bot-users.json"
	}
	return &FileSnapshots{Path: path}
}

// Load читает снимок. Если файла нет, возвращает пустой снимок.
func (f *FileSnapshots) Load() (*model.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap := model.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Users == nil {
		snap.Users = make(map[int64]model.Profile)
	}
	for id, p := range snap.Users {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot: user %d: %w", id, err)
		}
	}
	if snap.UserStates == nil {
		snap.UserStates = make(map[int64]model.State)
	}
	return snap, nil
}

// Save записывает снимок атомарно: временный файл, fsync, rename.
func (f *FileSnapshots) Save(snap *model.Snapshot) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "tmp-"+filepath.Base(f.Path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Autosave сохраняет снимок store каждые interval и еще раз при отмене ctx.
// Ошибки записи только логируются: бот продолжает работать на данных в памяти.
func Autosave(ctx context.Context, store Snapshotter, files *FileSnapshots, interval time.Duration, logger *slog.Logger, onSave func(error)) {
	save := func() {
		snap := store.Snapshot()
		err := files.Save(snap)
		if err != nil {
			logger.Error("snapshot save failed", "path", files.Path, "err", err)
		} else {
			logger.Info("snapshot saved", "path", files.Path, "users", len(snap.Users), "states", len(snap.UserStates))
		}
		if onSave != nil {
			onSave(err)
		}
	}

	if interval <= 0 {
		<-ctx.Done()
		save()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			save()
			return
		case <-ticker.C:
			save()
		}
	}
}
