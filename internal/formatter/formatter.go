// package formatter renders playlist exports into their output formats (CSV, JSON, plain text, Markdown, Discord)
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// Format is the closed set of output formats.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatText
	FormatMarkdown
	FormatDiscord
)

// ParseFormat maps a user-supplied format name onto a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "discord", "webhook":
		return FormatDiscord, nil
	default:
		return 0, fmt.Errorf("%w: unknown format %q (want csv, json, txt, markdown, or discord)", shared.ErrInvalidFlag, s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "markdown"
	case FormatDiscord:
		return "discord"
	default:
		return ""
	}
}

// Ext returns the file extension for file-destined formats.
// Discord output is delivered over a webhook and has no extension.
func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	case FormatText:
		return ".txt"
	case FormatMarkdown:
		return ".md"
	default:
		return ""
	}
}

// Webhook reports whether the format is delivered to a webhook destination.
func (f Format) Webhook() bool { return f == FormatDiscord }

// Payload is a rendered export: one or more ordered chunks plus the file
// extension for file destinations. File formats render a single chunk;
// the Discord serializer splits oversized output into multiple chunks.
type Payload struct {
	Ext    string
	Chunks [][]byte
}

// Bytes concatenates all chunks in order.
func (p *Payload) Bytes() []byte {
	if len(p.Chunks) == 1 {
		return p.Chunks[0]
	}
	var out []byte
	for _, c := range p.Chunks {
		out = append(out, c...)
	}
	return out
}

// Serializer renders one playlist's normalized track list. Implementations
// are pure: no I/O, and failure only with a wrapped [shared.ErrSerialize].
type Serializer interface {
	Render(playlist models.PlaylistSummary, tracks []models.Track) (*Payload, error)
}

// New returns the serializer for the given format. Dispatch happens once at
// batch start; the format set is fixed, so there is no registration mechanism.
func New(f Format) (Serializer, error) {
	switch f {
	case FormatCSV:
		return &CSVSerializer{}, nil
	case FormatJSON:
		return &JSONSerializer{}, nil
	case FormatText:
		return &TextSerializer{}, nil
	case FormatMarkdown:
		return &MarkdownSerializer{}, nil
	case FormatDiscord:
		return &DiscordSerializer{}, nil
	default:
		return nil, fmt.Errorf("%w: format %d", shared.ErrInvalidFlag, int(f))
	}
}

// validate defends against malformed normalized data. The fetcher contract
// should make this unreachable.
func validate(tracks []models.Track) error {
	for i, t := range tracks {
		if t.Title == "" {
			return fmt.Errorf("%w: track %d has no title", shared.ErrSerialize, i+1)
		}
		if t.Position <= 0 {
			return fmt.Errorf("%w: track %d has invalid position %d", shared.ErrSerialize, i+1, t.Position)
		}
	}
	return nil
}

func timestamp(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
