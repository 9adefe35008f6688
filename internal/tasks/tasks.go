// package tasks implements the batch export engine.
//
// The core abstraction is [ExportEngine], which drives a bounded worker pool
// over per-playlist export jobs: fetch, render, deliver. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/TUI
// layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/sink"
)

const (
	defaultWorkers = 4
	maxWorkers     = 10
)

// Recorder persists completed batch outcomes. Implemented by the
// repositories package; recording failures are logged, never fatal.
type Recorder interface {
	RecordBatch(batchID, format string, result *models.BatchResult) error
}

// BatchOpts contains configuration for one batch export.
type BatchOpts struct {
	Format     formatter.Format // Output format, dispatched once at batch start
	OutputDir  string           // Output directory for file formats (default: spx_export_{epoch})
	WebhookURL string           // Destination for the discord format
	NumWorkers int              // Concurrent workers (default 4, cap 10)

	// MaxMessageLen overrides the discord chunk size bound. Zero keeps the default.
	MaxMessageLen int
}

// ExportEngine orchestrates batch playlist exports.
type ExportEngine struct {
	client   services.Playlister
	logger   *log.Logger
	recorder Recorder
}

// NewExportEngine creates an engine backed by the given playlist fetcher.
func NewExportEngine(client services.Playlister, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{client: client, logger: logger}
}

// SetRecorder attaches an export history recorder.
func (e *ExportEngine) SetRecorder(r Recorder) { e.recorder = r }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls a worker.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RunBatch exports the given playlists with bounded concurrency.
//
// Job outcomes in the returned [models.BatchResult] preserve the caller's
// playlist order regardless of completion order, and RunBatch returns only
// after every job reaches a terminal state. Cancelling ctx stops new work:
// unstarted jobs are marked Cancelled while in-flight steps finish cleanly.
// An authentication failure aborts the whole batch; every other error is
// contained to its job.
func (e *ExportEngine) RunBatch(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts BatchOpts) (*models.BatchResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: playlist client not initialized", shared.ErrNotAuthenticated)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no playlists selected", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.NumWorkers > len(ids) {
		opts.NumWorkers = len(ids)
	}

	serializer, err := e.newSerializer(opts)
	if err != nil {
		return nil, err
	}

	out, err := e.newSink(opts)
	if err != nil {
		return nil, err
	}

	batchID := shared.GenerateID()
	logger := shared.WithLogger(e.logger, "batch", batchID)
	logger.Info("starting batch export",
		"playlists", len(ids), "workers", opts.NumWorkers, "format", opts.Format.String())

	result := &models.BatchResult{
		Jobs:      make([]models.JobResult, len(ids)),
		StartedAt: time.Now(),
	}
	for i, id := range ids {
		result.Jobs[i] = models.JobResult{PlaylistID: id, Status: models.StatusPending}
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var authFailed atomic.Bool

	// Playlist metadata is resolved sequentially in caller order before any
	// worker starts, so artifact names are fixed up front and a name
	// collision always resolves the same way regardless of which worker
	// finishes first.
	names := make([]string, len(ids))
	playlists := make([]*models.PlaylistSummary, len(ids))
	registry := newNameRegistry()
	for idx := range result.Jobs {
		job := &result.Jobs[idx]

		if batchCtx.Err() != nil || authFailed.Load() {
			job.Status = models.StatusCancelled
			e.sendProgress(progress, cancelledUpdate(jobID(idx), job.PlaylistID, idx+1, len(ids)))
			continue
		}

		playlist, err := e.client.Playlist(batchCtx, job.PlaylistID)
		if err != nil {
			e.finishWithError(progress, jobID(idx), idx, len(ids), job, err)
			if errors.Is(job.Err, shared.ErrAuthFailed) {
				authFailed.Store(true)
				cancel()
			}
			continue
		}

		job.PlaylistName = playlist.Name
		playlists[idx] = playlist
		names[idx] = registry.claim(shared.SanitizeFilename(playlist.Name), job.PlaylistID)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				job := &result.Jobs[idx]
				if job.Status != models.StatusPending {
					continue
				}

				// Cancellation and auth aborts are observed before a job starts;
				// a job already past this point finishes its current step.
				if batchCtx.Err() != nil || authFailed.Load() {
					job.Status = models.StatusCancelled
					e.sendProgress(progress, cancelledUpdate(jobID(idx), job.PlaylistID, idx+1, len(ids)))
					continue
				}

				e.exportOne(batchCtx, progress, idx, len(ids), job, playlists[idx], serializer, out, names[idx])

				if errors.Is(job.Err, shared.ErrAuthFailed) {
					authFailed.Store(true)
					cancel()
				}
			}
		}()
	}

	for idx := range ids {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	result.FinishedAt = time.Now()

	if e.recorder != nil {
		if err := e.recorder.RecordBatch(batchID, opts.Format.String(), result); err != nil {
			logger.Warn("failed to record export history", "error", err)
		}
	}

	if authFailed.Load() {
		return result, fmt.Errorf("%w: batch aborted", shared.ErrAuthFailed)
	}
	return result, nil
}

// exportOne drives a single job through fetch, render, and deliver. The job
// is owned by exactly one worker for its lifetime, so status writes need no
// locking.
func (e *ExportEngine) exportOne(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	idx, total int,
	job *models.JobResult,
	playlist *models.PlaylistSummary,
	serializer formatter.Serializer,
	out sink.Sink,
	name string,
) {
	id := jobID(idx)

	job.Status = models.StatusFetching
	e.sendProgress(progress, fetchingUpdate(id, job.PlaylistID, idx+1, total))

	tracks, err := e.client.PlaylistTracks(ctx, job.PlaylistID, func(fetched, declared int) {
		e.sendProgress(progress, pageUpdate(id, job.PlaylistID, idx+1, total, fetched, declared))
	})
	if err != nil {
		e.finishWithError(progress, id, idx, total, job, err)
		return
	}
	job.TrackCount = len(tracks)

	job.Status = models.StatusRendering
	e.sendProgress(progress, renderingUpdate(id, job.PlaylistID, playlist.Name, idx+1, total))

	payload, err := serializer.Render(*playlist, tracks)
	if err != nil {
		e.finishWithError(progress, id, idx, total, job, err)
		return
	}

	job.Status = models.StatusDelivering
	e.sendProgress(progress, deliveringUpdate(id, job.PlaylistID, playlist.Name, idx+1, total))

	files, err := out.Deliver(ctx, name, payload)
	if err != nil {
		e.finishWithError(progress, id, idx, total, job, err)
		return
	}

	job.Files = files
	job.Status = models.StatusDone
	e.logger.Info("playlist exported", "playlist", playlist.Name, "tracks", len(tracks), "files", len(files))
	e.sendProgress(progress, doneUpdate(id, job.PlaylistID, playlist.Name, idx+1, total, len(tracks)))
}

// finishWithError marks a job terminal. Context cancellation maps to
// Cancelled; everything else to Failed with the error retained verbatim.
func (e *ExportEngine) finishWithError(progress chan<- ProgressUpdate, id string, idx, total int, job *models.JobResult, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		job.Status = models.StatusCancelled
		e.sendProgress(progress, cancelledUpdate(id, job.PlaylistID, idx+1, total))
		return
	}

	job.Status = models.StatusFailed
	job.Err = err
	e.logger.Error("playlist export failed", "playlist", job.PlaylistID, "error", err)
	e.sendProgress(progress, failedUpdate(id, job.PlaylistID, idx+1, total, err))
}

func (e *ExportEngine) newSerializer(opts BatchOpts) (formatter.Serializer, error) {
	if opts.Format == formatter.FormatDiscord && opts.MaxMessageLen > 0 {
		return &formatter.DiscordSerializer{MaxMessageLen: opts.MaxMessageLen}, nil
	}
	return formatter.New(opts.Format)
}

func (e *ExportEngine) newSink(opts BatchOpts) (sink.Sink, error) {
	if opts.Format.Webhook() {
		return sink.NewWebhookSink(opts.WebhookURL, nil)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = fmt.Sprintf("spx_export_%d", time.Now().Unix())
	}
	return sink.NewFileSink(dir)
}

func jobID(idx int) string {
	return fmt.Sprintf("job-%d", idx+1)
}

// nameRegistry hands out collision-free artifact base names within a batch.
// Claims happen in caller order during the metadata pass; when two playlists
// sanitize to the same name, the later claimant is suffixed with its
// playlist ID.
type nameRegistry struct {
	taken map[string]bool
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{taken: make(map[string]bool)}
}

func (r *nameRegistry) claim(base, playlistID string) string {
	name := base
	if r.taken[name] && playlistID != "" {
		name = base + "_" + playlistID
	}
	for i := 2; r.taken[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	r.taken[name] = true
	return name
}
