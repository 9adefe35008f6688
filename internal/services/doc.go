// Package services provides the Spotify Web API client and the OAuth session
// source used by the export engine.
//
// [SpotifyClient] implements [Playlister] and [Lister]: playlist listing,
// summary lookup, and the paginated track fetcher with bounded retry on
// rate-limit and transient failures. [NewSession] wraps an [oauth2.TokenSource]
// so refreshed credentials are persisted back to the config file.
package services
