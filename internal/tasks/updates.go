package tasks

import (
	"fmt"

	"github.com/desertthunder/spx/internal/models"
)

// ProgressUpdate represents a progress event during a batch export.
//
// Used to send real-time updates to the CLI or TUI layer for display.
// Events for a single job arrive strictly ordered: Fetching before Rendering
// before Delivering before a terminal status.
type ProgressUpdate struct {
	JobID      string           // Stable identifier for the job within the batch
	PlaylistID string           // Playlist this event belongs to
	Status     models.JobStatus // Job status at the time of the event
	Step       int              // Current step within the batch (1-based job index)
	Total      int              // Total jobs in the batch
	Fraction   float64          // Per-job completion fraction in [0, 1]
	Message    string           // Human-readable message for display
}

func fetchingUpdate(jobID, playlistID string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusFetching,
		Step:       step,
		Total:      total,
		Message:    fmt.Sprintf("[%d/%d] Fetching tracks...", step, total),
	}
}

func pageUpdate(jobID, playlistID string, step, total, fetched, declared int) ProgressUpdate {
	fraction := 0.0
	if declared > 0 {
		fraction = float64(fetched) / float64(declared)
		if fraction > 1 {
			fraction = 1
		}
	}
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusFetching,
		Step:       step,
		Total:      total,
		Fraction:   fraction,
		Message:    fmt.Sprintf("[%d/%d] Fetched %d/%d tracks", step, total, fetched, declared),
	}
}

func renderingUpdate(jobID, playlistID, name string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusRendering,
		Step:       step,
		Total:      total,
		Fraction:   1,
		Message:    fmt.Sprintf("[%d/%d] Rendering: %s", step, total, name),
	}
}

func deliveringUpdate(jobID, playlistID, name string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusDelivering,
		Step:       step,
		Total:      total,
		Fraction:   1,
		Message:    fmt.Sprintf("[%d/%d] Delivering: %s", step, total, name),
	}
}

func doneUpdate(jobID, playlistID, name string, step, total, tracks int) ProgressUpdate {
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusDone,
		Step:       step,
		Total:      total,
		Fraction:   1,
		Message:    fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, name, tracks),
	}
}

func failedUpdate(jobID, playlistID string, step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusFailed,
		Step:       step,
		Total:      total,
		Message:    fmt.Sprintf("[%d/%d] ✗ %v", step, total, err),
	}
}

func cancelledUpdate(jobID, playlistID string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		JobID:      jobID,
		PlaylistID: playlistID,
		Status:     models.StatusCancelled,
		Step:       step,
		Total:      total,
		Message:    fmt.Sprintf("[%d/%d] Cancelled", step, total),
	}
}
