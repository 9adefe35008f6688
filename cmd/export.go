package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export runs a batch export of the given playlists.
//
// Playlist IDs come from positional arguments, or from the account listing
// with --all. Ctrl+C cancels the batch: in-flight jobs finish their current
// step and everything unstarted is marked cancelled.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	// The limiter is built with the client, so the override applies first.
	if v := cmd.Float("rate"); v > 0 {
		config.Export.RateLimit = v
	}

	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	ids := cmd.StringArgs("ids")
	if cmd.Bool("all") {
		playlists, err := client.UserPlaylists(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		ids = ids[:0]
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: pass playlist IDs or use --all", shared.ErrMissingArgument)
	}

	opts, err := r.batchOpts(cmd, config)
	if err != nil {
		return err
	}

	engine := tasks.NewExportEngine(client, r.logger)
	if db, dbErr := shared.NewDatabase(config.Database.Path); dbErr == nil {
		defer db.Close()
		if migErr := shared.RunMigrations(db); migErr == nil {
			engine.SetRecorder(repositories.NewExportHistoryRepository(db))
		} else {
			r.logger.Warn("skipping export history", "error", migErr)
		}
	} else {
		r.logger.Warn("skipping export history", "error", dbErr)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("Exporting %d playlists as %s...\n\n", len(ids), opts.Format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.RunBatch(runCtx, progressCh, ids, opts)
	close(progressCh)
	<-printerDone

	if result == nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(batchSummary(result, opts), true)
	}

	r.writePlainHeader("Export Complete")
	r.writePlain("Succeeded: %d\n", result.Succeeded())
	r.writePlain("Failed: %d\n", result.Failed())
	r.writePlain("Cancelled: %d\n", result.Cancelled())
	r.writePlain("Duration: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))

	for _, job := range result.Jobs {
		switch job.Status {
		case models.StatusDone:
			for _, f := range job.Files {
				r.writePlain("  ✓ %s → %s\n", jobName(job), f)
			}
			if len(job.Files) == 0 {
				r.writePlain("  ✓ %s (%d tracks delivered)\n", jobName(job), job.TrackCount)
			}
		case models.StatusFailed:
			r.writePlain("  ✗ %s: %v\n", jobName(job), job.Err)
		case models.StatusCancelled:
			r.writePlain("  • %s: cancelled\n", jobName(job))
		}
	}

	if errors.Is(runCtx.Err(), context.Canceled) {
		r.writePlain("\nExport interrupted.\n")
	}

	return err
}

// batchOpts merges flag overrides over the configured export defaults.
func (r *Runner) batchOpts(cmd *cli.Command, config *shared.Config) (tasks.BatchOpts, error) {
	formatName := cmd.String("format")
	if formatName == "" {
		formatName = config.Export.Format
	}
	if formatName == "" {
		formatName = "json"
	}

	format, err := formatter.ParseFormat(formatName)
	if err != nil {
		return tasks.BatchOpts{}, err
	}

	opts := tasks.BatchOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		WebhookURL: cmd.String("webhook-url"),
		NumWorkers: int(cmd.Int("workers")),
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.Export.OutputDir
	}
	if opts.WebhookURL == "" {
		opts.WebhookURL = config.Export.WebhookURL
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = config.Export.Workers
	}

	if format.Webhook() && opts.WebhookURL == "" {
		return tasks.BatchOpts{}, fmt.Errorf("%w: discord format requires --webhook-url or export.webhook_url", shared.ErrMissingArgument)
	}

	return opts, nil
}

type jobSummary struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name,omitempty"`
	Status       string   `json:"status"`
	TrackCount   int      `json:"track_count"`
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type exportSummary struct {
	Format    string       `json:"format"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Cancelled int          `json:"cancelled"`
	Jobs      []jobSummary `json:"jobs"`
}

func batchSummary(result *models.BatchResult, opts tasks.BatchOpts) exportSummary {
	summary := exportSummary{
		Format:    opts.Format.String(),
		Succeeded: result.Succeeded(),
		Failed:    result.Failed(),
		Cancelled: result.Cancelled(),
	}
	for _, job := range result.Jobs {
		js := jobSummary{
			PlaylistID:   job.PlaylistID,
			PlaylistName: job.PlaylistName,
			Status:       job.Status.String(),
			TrackCount:   job.TrackCount,
			Files:        job.Files,
		}
		if job.Err != nil {
			js.Error = job.Err.Error()
		}
		summary.Jobs = append(summary.Jobs, js)
	}
	return summary
}

func jobName(job models.JobResult) string {
	if job.PlaylistName != "" {
		return job.PlaylistName
	}
	return job.PlaylistID
}
