// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for batch playlist export:
//  1. [PlaylistListView] : Browse and multi-select Spotify playlists
//  2. [FormatView] : Pick the export format
//  3. [ExportView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-playlist outcomes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the ExportEngine, providing non-blocking status reporting during batch runs.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
