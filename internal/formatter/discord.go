package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/desertthunder/spx/internal/models"
)

// DefaultMaxMessageLen keeps each chunk under Discord's 2000-character
// message cap with headroom for the part marker.
const DefaultMaxMessageLen = 1800

// partMarkerReserve is subtracted from the limit while packing so the
// appended part marker never pushes a chunk over it.
const partMarkerReserve = 24

// DiscordSerializer renders a size-bounded webhook message sequence.
//
// The header chunk carries playlist metadata; track lines are packed into
// chunks no longer than MaxMessageLen. When more than one chunk results,
// each is numbered so the receiving side can reconstruct order.
type DiscordSerializer struct {
	MaxMessageLen int // defaults to DefaultMaxMessageLen
}

func (s *DiscordSerializer) Render(playlist models.PlaylistSummary, tracks []models.Track) (*Payload, error) {
	if err := validate(tracks); err != nil {
		return nil, err
	}

	limit := s.MaxMessageLen
	if limit <= 0 {
		limit = DefaultMaxMessageLen
	}
	packLimit := limit - partMarkerReserve
	if packLimit < 1 {
		packLimit = limit
	}

	var header bytes.Buffer
	fmt.Fprintf(&header, "**%s**\n", playlist.Name)
	if playlist.Owner != "" {
		fmt.Fprintf(&header, "*By %s • %d tracks*\n", playlist.Owner, len(tracks))
	} else {
		fmt.Fprintf(&header, "*%d tracks*\n", len(tracks))
	}
	header.WriteString(strings.Repeat("─", 40) + "\n")

	chunks := [][]byte{header.Bytes()}
	var current strings.Builder

	for _, t := range tracks {
		line := fmt.Sprintf("%d. **%s** - %s\n", t.Position, t.Title, t.ArtistLine())
		if len(line) > packLimit {
			line = truncateLine(line, packLimit)
		}

		if current.Len()+len(line) > packLimit && current.Len() > 0 {
			chunks = append(chunks, []byte(current.String()))
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, []byte(current.String()))
	}

	// The header stays unnumbered; markers only make sense once the track
	// listing itself spans multiple messages.
	if body := len(chunks) - 1; body > 1 {
		for i := 1; i < len(chunks); i++ {
			chunks[i] = append(chunks[i], []byte(fmt.Sprintf("\n*(part %d/%d)*", i, body))...)
		}
	}

	return &Payload{Chunks: chunks}, nil
}

// truncateLine shortens an oversized track line at a rune boundary,
// keeping the trailing newline.
func truncateLine(line string, max int) string {
	runes := []rune(strings.TrimRight(line, "\n"))
	for len(string(runes)) > max-1 && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "\n"
}
