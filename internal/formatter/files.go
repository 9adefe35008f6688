package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// csvColumns is the fixed, documented column order for tabular exports.
var csvColumns = []string{"position", "title", "artists", "album", "duration_ms", "added_at", "isrc", "url"}

// CSVSerializer renders one quoted/escaped row per track with a leading
// comment row naming the playlist and export time.
type CSVSerializer struct {
	Now func() time.Time
}

func (s *CSVSerializer) Render(playlist models.PlaylistSummary, tracks []models.Track) (*Payload, error) {
	if err := validate(tracks); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s, exported %s\n", playlist.Name, timestamp(s.Now).Format(time.RFC3339))

	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, fmt.Errorf("%w: header: %v", shared.ErrSerialize, err)
	}

	for _, t := range tracks {
		record := []string{
			strconv.Itoa(t.Position),
			t.Title,
			strings.Join(t.Artists, "; "),
			t.Album,
			strconv.Itoa(t.DurationMS),
			t.AddedAt,
			t.ISRC,
			t.URL,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", shared.ErrSerialize, t.Position, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSerialize, err)
	}

	return &Payload{Ext: FormatCSV.Ext(), Chunks: [][]byte{buf.Bytes()}}, nil
}

// jsonExport is the structured-data document. Field names are stable across
// versions; parsers depend on them.
type jsonExport struct {
	ExportedAt string         `json:"exported_at"`
	Playlist   jsonPlaylist   `json:"playlist"`
	Tracks     []models.Track `json:"tracks"`
}

type jsonPlaylist struct {
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// JSONSerializer renders the playlist and tracks as an indented JSON document.
type JSONSerializer struct {
	Now func() time.Time
}

func (s *JSONSerializer) Render(playlist models.PlaylistSummary, tracks []models.Track) (*Payload, error) {
	if err := validate(tracks); err != nil {
		return nil, err
	}

	doc := jsonExport{
		ExportedAt: timestamp(s.Now).Format(time.RFC3339),
		Playlist: jsonPlaylist{
			Name:        playlist.Name,
			Owner:       playlist.Owner,
			Description: playlist.Description,
			TrackCount:  len(tracks),
		},
		Tracks: tracks,
	}
	if doc.Tracks == nil {
		doc.Tracks = []models.Track{}
	}

	data, err := shared.MarshalJSON(doc, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSerialize, err)
	}

	return &Payload{Ext: FormatJSON.Ext(), Chunks: [][]byte{append(data, '\n')}}, nil
}

// TextSerializer renders a human-readable listing, one track per entry,
// original Unicode text unmodified.
type TextSerializer struct {
	Now func() time.Time
}

func (s *TextSerializer) Render(playlist models.PlaylistSummary, tracks []models.Track) (*Payload, error) {
	if err := validate(tracks); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	if playlist.Owner != "" {
		fmt.Fprintf(&buf, "Owner: %s\n", playlist.Owner)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n", len(tracks))
	fmt.Fprintf(&buf, "Exported: %s\n", timestamp(s.Now).Format("2006-01-02 15:04:05"))
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	for _, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s — %s\n", t.Position, t.Title, t.ArtistLine())
		if t.Album != "" {
			fmt.Fprintf(&buf, "   Album: %s\n", t.Album)
		}
		if t.URL != "" {
			fmt.Fprintf(&buf, "   URL: %s\n", t.URL)
		}
		buf.WriteByte('\n')
	}

	return &Payload{Ext: FormatText.Ext(), Chunks: [][]byte{buf.Bytes()}}, nil
}

// MarkdownSerializer renders the same content as the text format with
// document headers and a track table.
type MarkdownSerializer struct {
	Now func() time.Time
}

func (s *MarkdownSerializer) Render(playlist models.PlaylistSummary, tracks []models.Track) (*Payload, error) {
	if err := validate(tracks); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)
	fmt.Fprintf(&buf, "**Owner:** %s  \n", playlist.Owner)
	fmt.Fprintf(&buf, "**Tracks:** %d  \n", len(tracks))
	fmt.Fprintf(&buf, "**Exported:** %s  \n\n", timestamp(s.Now).Format("2006-01-02 15:04:05"))

	if playlist.Description != "" {
		fmt.Fprintf(&buf, "*%s*\n\n", playlist.Description)
	}

	buf.WriteString("---\n\n## Tracks\n\n")
	buf.WriteString("| # | Title | Artists | Album | Duration |\n")
	buf.WriteString("|---|-------|---------|-------|----------|\n")

	for _, t := range tracks {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s |\n",
			t.Position,
			escapeCell(t.Title),
			escapeCell(t.ArtistLine()),
			escapeCell(t.Album),
			shared.FormatDuration(t.DurationMS),
		)
	}

	return &Payload{Ext: FormatMarkdown.Ext(), Chunks: [][]byte{buf.Bytes()}}, nil
}

// escapeCell keeps pipes and newlines from breaking the table structure.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
