package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = formatItem{}
)

// playlistItem wraps [models.PlaylistSummary] to implement [list.Item].
// The checked flag marks playlists picked for the batch.
type playlistItem struct {
	playlist models.PlaylistSummary
	checked  bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }

func (i playlistItem) Title() string {
	box := "[ ]"
	if i.checked {
		box = styles.picked.Render("[x]")
	}
	return fmt.Sprintf("%s %s", box, i.playlist.Name)
}

func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • by %s", desc, i.playlist.Owner)
	}
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// formatItem wraps [formatter.Format] to implement [list.Item].
type formatItem struct {
	format formatter.Format
}

func (i formatItem) FilterValue() string { return i.format.String() }
func (i formatItem) Title() string       { return i.format.String() }

func (i formatItem) Description() string {
	switch i.format {
	case formatter.FormatCSV:
		return "Spreadsheet-friendly, one row per track"
	case formatter.FormatJSON:
		return "Full playlist document with metadata"
	case formatter.FormatText:
		return "Human-readable track listing"
	case formatter.FormatMarkdown:
		return "Markdown table for docs and gists"
	case formatter.FormatDiscord:
		return "Post to a Discord webhook in chunks"
	default:
		return ""
	}
}
