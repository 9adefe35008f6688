// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
)

// MockPlaylister is a test double for [services.Playlister] serving canned
// playlists and tracks, with per-playlist error injection.
type MockPlaylister struct {
	mu        sync.Mutex
	Playlists map[string]*models.PlaylistSummary
	Tracks    map[string][]models.Track

	PlaylistErr map[string]error // returned by Playlist for matching IDs
	TracksErr   map[string]error // returned by PlaylistTracks for matching IDs

	// Started receives the playlist ID when a fetch begins, when non-nil.
	Started chan string
	// Gate blocks PlaylistTracks until closed, when non-nil.
	Gate chan struct{}
	// Delay holds per-playlist track fetch delays for skewing completion order.
	Delay map[string]time.Duration

	fetchCalls []string
}

// NewMockPlaylister builds a mock with empty canned data.
func NewMockPlaylister() *MockPlaylister {
	return &MockPlaylister{
		Playlists:   map[string]*models.PlaylistSummary{},
		Tracks:      map[string][]models.Track{},
		PlaylistErr: map[string]error{},
		TracksErr:   map[string]error{},
		Delay:       map[string]time.Duration{},
	}
}

// AddPlaylist registers a playlist and its tracks.
func (m *MockPlaylister) AddPlaylist(p models.PlaylistSummary, tracks []models.Track) {
	m.Playlists[p.ID] = &p
	m.Tracks[p.ID] = tracks
}

func (m *MockPlaylister) Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.PlaylistErr[playlistID]; err != nil {
		return nil, err
	}
	if p, ok := m.Playlists[playlistID]; ok {
		return p, nil
	}
	return nil, errors.New("unknown playlist")
}

func (m *MockPlaylister) PlaylistTracks(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
	if m.Started != nil {
		m.Started <- playlistID
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d := m.Delay[playlistID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.fetchCalls = append(m.fetchCalls, playlistID)
	m.mu.Unlock()

	if err := m.TracksErr[playlistID]; err != nil {
		return nil, err
	}

	tracks := m.Tracks[playlistID]
	if onPage != nil {
		onPage(len(tracks), len(tracks))
	}
	return tracks, nil
}

// FetchCalls returns the playlist IDs fetched so far.
func (m *MockPlaylister) FetchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetchCalls...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
