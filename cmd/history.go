package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList shows recent export records, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	limit := int(cmd.Int("limit"))
	useJSON := cmd.Bool("json")

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := repositories.NewExportHistoryRepository(db)
	records, err := repo.List(limit)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No export history yet. Run: spx export --all\n")
		return nil
	}

	r.writePlainHeader("Export History")
	for _, rec := range records {
		r.writePlain("%s  %-10s %-8s %s", rec.CreatedAt.Format("2006-01-02 15:04"), rec.Status, rec.Format, rec.PlaylistName)
		if rec.TrackCount > 0 {
			r.writePlain(" (%d tracks)", rec.TrackCount)
		}
		if rec.Error != "" {
			r.writePlain("\n    error: %s", rec.Error)
		}
		r.writePlain("\n")
	}

	return nil
}

// HistoryPurge deletes export records older than the given number of days.
func (r *Runner) HistoryPurge(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	days := int(cmd.Int("days"))
	if days < 0 {
		return fmt.Errorf("%w: --days must be non-negative", shared.ErrInvalidFlag)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := repositories.NewExportHistoryRepository(db)
	cutoff := time.Now().AddDate(0, 0, -days)

	removed, err := repo.PurgeOlderThan(cutoff)
	if err != nil {
		return err
	}

	r.writePlain("✓ Removed %d records older than %d days\n", removed, days)
	return nil
}
