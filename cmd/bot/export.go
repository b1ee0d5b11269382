package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivanoskov/nutrition_bot/internal/logging"
	"github.com/ivanoskov/nutrition_bot/internal/model"
	"github.com/ivanoskov/nutrition_bot/internal/repository"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print all profiles and states as a JSON snapshot",
	Long: `Reads every profile and conversation state from the configured storage
and writes them in the snapshot format used by the memory backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))
		store, err := repository.Open(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		snap, err := exportSnapshot(cmd.Context(), store)
		if err != nil {
			return err
		}

		if output != "" {
			return repository.NewFileSnapshots(output).Save(snap)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Write the snapshot to a file instead of stdout")
}

func exportSnapshot(ctx context.Context, store repository.Store) (*model.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if snapshots, ok := store.(repository.Snapshotter); ok {
		return snapshots.Snapshot(), nil
	}

	profiles, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	snap := model.NewSnapshot()
	snap.SavedAt = time.Now().UTC()
	for _, p := range profiles {
		snap.Users[p.UserID] = p
		state, err := store.GetState(ctx, p.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get state %d: %w", p.UserID, err)
		}
		snap.UserStates[p.UserID] = state
	}
	return snap, nil
}
