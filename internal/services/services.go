package services

import (
	"context"

	"github.com/desertthunder/spx/internal/models"
)

// PageFunc receives cumulative progress after each fetched page of tracks.
type PageFunc func(fetched, total int)

// Playlister is the surface of the remote service the export engine consumes.
type Playlister interface {
	// Playlist retrieves a playlist's summary by ID.
	Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error)

	// PlaylistTracks retrieves a playlist's complete ordered track list,
	// hiding pagination and transient rate limiting from the caller.
	// The fetch is all-or-nothing: a partial list is never returned.
	PlaylistTracks(ctx context.Context, playlistID string, onPage PageFunc) ([]models.Track, error)
}

// Lister enumerates the authenticated user's playlists.
type Lister interface {
	UserPlaylists(ctx context.Context) ([]models.PlaylistSummary, error)
}
