package models

import (
	"strings"
	"time"
)

// JobStatus enumerates the states an export job moves through.
//
// Transitions are linear: Pending → Fetching → Rendering → Delivering → Done,
// with Failed and Cancelled as alternative terminal states.
type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusFetching
	StatusRendering
	StatusDelivering
	StatusDone
	StatusFailed
	StatusCancelled
)

func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFetching:
		return "fetching"
	case StatusRendering:
		return "rendering"
	case StatusDelivering:
		return "delivering"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return ""
	}
}

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCancelled
}

// PlaylistSummary represents a playlist as returned by a listing call.
// Immutable once fetched.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// Track represents a single playlist entry.
//
// Position is 1-based, derived from fetch order and stable across pages.
// Text fields carry the service's original Unicode unmodified.
type Track struct {
	Position   int      `json:"position"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms"`
	AddedAt    string   `json:"added_at,omitempty"`
	ISRC       string   `json:"isrc,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// ArtistLine joins the ordered artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// JobResult is the per-playlist outcome of a batch export.
type JobResult struct {
	PlaylistID   string
	PlaylistName string
	Status       JobStatus
	TrackCount   int
	Files        []string
	Err          error
}

// BatchResult aggregates job outcomes for one batch.
//
// Jobs preserves the caller-supplied playlist order regardless of
// completion order. Read-only once produced.
type BatchResult struct {
	Jobs       []JobResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded counts jobs that reached StatusDone.
func (b *BatchResult) Succeeded() int { return b.countStatus(StatusDone) }

// Failed counts jobs that reached StatusFailed.
func (b *BatchResult) Failed() int { return b.countStatus(StatusFailed) }

// Cancelled counts jobs that reached StatusCancelled.
func (b *BatchResult) Cancelled() int { return b.countStatus(StatusCancelled) }

func (b *BatchResult) countStatus(s JobStatus) int {
	n := 0
	for _, j := range b.Jobs {
		if j.Status == s {
			n++
		}
	}
	return n
}

// ExportRecord is a persisted row of export history.
type ExportRecord struct {
	ID           string
	BatchID      string
	PlaylistID   string
	PlaylistName string
	Format       string
	Status       string
	Error        string
	FileCount    int
	TrackCount   int
	CreatedAt    time.Time
}
