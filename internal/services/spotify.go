// Spotify API implementation of [Playlister] and [Lister].
// Response types based on https://developer.spotify.com/documentation/web-api/reference/

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// trackPageSize is the service maximum for /playlists/{id}/tracks.
	trackPageSize = 100
	// listPageSize is the service maximum for /me/playlists.
	listPageSize = 50

	maxRateLimitRetries = 5
	maxTransientRetries = 3
	defaultRetryAfter   = time.Second
	baseBackoff         = 500 * time.Millisecond
)

// OAuthConfig builds the [oauth2.Config] for the Spotify authorization code flow.
func OAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name string `json:"name"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []spotifyArtist `json:"artists"`
	Album        spotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalIDs  externalIDs     `json:"external_ids"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

type playlistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *spotifyTrack `json:"track"`
}

type trackPage struct {
	Items  []playlistItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

type spotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       owner             `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
}

type playlistPage struct {
	Items  []spotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// SpotifyClient talks to the Spotify Web API on behalf of an authenticated
// session. The token source is read-only shared state: the client reads the
// current credential before every request and never mutates it, so one client
// is safe to share across export workers.
type SpotifyClient struct {
	baseURL    string
	source     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	pageSize   int

	// sleep is swappable in tests so retry paths run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// SpotifyClientOpts configures a [SpotifyClient].
type SpotifyClientOpts struct {
	BaseURL    string             // defaults to the public API
	Source     oauth2.TokenSource // required: the session provider
	HTTPClient *http.Client
	Limiter    *rate.Limiter // defaults to 5 req/s
	Logger     *log.Logger
	PageSize   int // defaults to the service maximum of 100
}

// NewSpotifyClient creates a client bound to the given session.
func NewSpotifyClient(opts SpotifyClientOpts) (*SpotifyClient, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: token source required", shared.ErrNotAuthenticated)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(5), 1)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PageSize <= 0 || opts.PageSize > trackPageSize {
		opts.PageSize = trackPageSize
	}

	return &SpotifyClient{
		baseURL:    opts.BaseURL,
		source:     opts.Source,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
		pageSize:   opts.PageSize,
		sleep:      sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// doRequest performs one authenticated GET against the API and decodes the
// JSON response into result. Errors are mapped onto the shared taxonomy.
func (c *SpotifyClient) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.source.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", shared.ErrPlaylistNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &shared.RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrTransient, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// retryAfter parses the Retry-After header of a 429 response.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// UserProfile identifies the authenticated account.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// CurrentUser retrieves the authenticated user's profile. Used to verify
// that a stored session is still accepted by the service.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.doRequest(ctx, "/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UserPlaylists retrieves all playlists for the authenticated user.
func (c *SpotifyClient) UserPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	var all []models.PlaylistSummary
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", listPageSize, offset)

		var page playlistPage
		if err := c.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, summaryFrom(sp))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += listPageSize
	}

	return all, nil
}

// Playlist retrieves a playlist's summary by ID.
func (c *SpotifyClient) Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error) {
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,description,owner,public,tracks.total", playlistID)

	var sp spotifyPlaylist
	if err := c.doRequest(ctx, endpoint, &sp); err != nil {
		return nil, err
	}

	summary := summaryFrom(sp)
	return &summary, nil
}

// PlaylistTracks retrieves the complete ordered track list for a playlist.
//
// Pages of pageSize items are requested from offset 0 until a short page
// arrives or the declared total is reached. Rate-limit responses retry the
// same page after the service-suggested delay; transient failures retry with
// exponential backoff. Exhausted retries fail the whole fetch.
func (c *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string, onPage PageFunc) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0
	total := -1
	skipped := 0

	for {
		page, err := c.trackPage(ctx, playlistID, offset)
		if err != nil {
			return nil, err
		}

		if total < 0 {
			total = page.Total
		}

		for _, item := range page.Items {
			if item.Track == nil {
				// Local files and removed tracks arrive as null entries.
				skipped++
				continue
			}
			tracks = append(tracks, trackFrom(len(tracks)+1, item))
		}

		if onPage != nil {
			onPage(len(tracks), total)
		}

		offset += c.pageSize
		if len(page.Items) < c.pageSize || (total >= 0 && offset >= total) {
			break
		}

		// Cancellation is observed at page boundaries only, never mid-request.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if skipped > 0 {
		c.logger.Info("skipped unplayable playlist entries", "playlist", playlistID, "skipped", skipped)
	}
	if total >= 0 && len(tracks)+skipped != total {
		c.logger.Warn("track count changed during fetch",
			"playlist", playlistID, "declared", total, "fetched", len(tracks)+skipped)
	}

	return tracks, nil
}

// trackPage fetches one page, retrying the same offset on recoverable errors.
// Never skips or duplicates a page: the offset only advances in the caller.
func (c *SpotifyClient) trackPage(ctx context.Context, playlistID string, offset int) (*trackPage, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, c.pageSize, offset)

	rateAttempts := 0
	transientAttempts := 0

	for {
		var page trackPage
		err := c.doRequest(ctx, endpoint, &page)
		if err == nil {
			return &page, nil
		}

		var rl *shared.RateLimitError
		switch {
		case errors.As(err, &rl) && rateAttempts < maxRateLimitRetries:
			rateAttempts++
			delay := rl.RetryAfter
			if delay <= 0 {
				delay = defaultRetryAfter
			}
			c.logger.Warn("rate limited, retrying page",
				"playlist", playlistID, "offset", offset, "attempt", rateAttempts, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		case errors.Is(err, shared.ErrTransient) && transientAttempts < maxTransientRetries:
			transientAttempts++
			delay := baseBackoff << (transientAttempts - 1)
			c.logger.Warn("transient failure, retrying page",
				"playlist", playlistID, "offset", offset, "attempt", transientAttempts, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
}

func summaryFrom(sp spotifyPlaylist) models.PlaylistSummary {
	return models.PlaylistSummary{
		ID:          sp.ID,
		Name:        sp.Name,
		Owner:       sp.Owner.DisplayName,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}
}

func trackFrom(position int, item playlistItem) models.Track {
	t := item.Track

	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	url := t.ExternalURLs.Spotify
	if url == "" && t.ID != "" {
		url = "https://open.spotify.com/track/" + t.ID
	}

	return models.Track{
		Position:   position,
		Title:      t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		AddedAt:    item.AddedAt,
		ISRC:       t.ExternalIDs.ISRC,
		URL:        url,
	}
}
