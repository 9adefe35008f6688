package formatter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/spx/internal/models"
)

func manyTracks(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{
			Position: i + 1,
			Title:    fmt.Sprintf("A Reasonably Long Track Title Number %d", i+1),
			Artists:  []string{"Some Band", "A Guest Vocalist"},
		}
	}
	return tracks
}

func TestDiscordSerializerSingleChunkBody(t *testing.T) {
	s := &DiscordSerializer{}
	payload, err := s.Render(testPlaylist(), testTracks())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// Header plus one body chunk, no part markers
	if len(payload.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(payload.Chunks))
	}

	header := string(payload.Chunks[0])
	if !strings.Contains(header, "**Road Trip**") {
		t.Errorf("header missing playlist name: %q", header)
	}
	if !strings.Contains(header, "*By thunder • 2 tracks*") {
		t.Errorf("header missing byline: %q", header)
	}

	body := string(payload.Chunks[1])
	if !strings.Contains(body, "1. **First Song** - Artist A, Artist B") {
		t.Errorf("body missing track line: %q", body)
	}
	if strings.Contains(body, "(part") {
		t.Errorf("unexpected part marker in single body chunk: %q", body)
	}
}

func TestDiscordSerializerChunking(t *testing.T) {
	s := &DiscordSerializer{MaxMessageLen: 200}
	tracks := manyTracks(40)

	payload, err := s.Render(testPlaylist(), tracks)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(payload.Chunks) < 3 {
		t.Fatalf("expected multiple chunks, got %d", len(payload.Chunks))
	}

	body := len(payload.Chunks) - 1
	for i, chunk := range payload.Chunks {
		if len(chunk) > 200 {
			t.Errorf("chunk %d length %d exceeds limit", i, len(chunk))
		}
		if i == 0 {
			if strings.Contains(string(chunk), "(part") {
				t.Errorf("header chunk should not carry a part marker: %q", chunk)
			}
			continue
		}
		marker := fmt.Sprintf("*(part %d/%d)*", i, body)
		if !strings.Contains(string(chunk), marker) {
			t.Errorf("chunk %d missing marker %q", i, marker)
		}
	}

	// Concatenating chunks preserves every track in order
	all := string(payload.Bytes())
	lastIdx := -1
	for i := 1; i <= len(tracks); i++ {
		line := fmt.Sprintf("%d. **A Reasonably Long Track Title Number %d**", i, i)
		idx := strings.Index(all, line)
		if idx < 0 {
			t.Fatalf("track %d missing from output", i)
		}
		if idx < lastIdx {
			t.Fatalf("track %d out of order", i)
		}
		lastIdx = idx
	}
}

func TestDiscordSerializerOversizedLine(t *testing.T) {
	s := &DiscordSerializer{MaxMessageLen: 200}
	tracks := []models.Track{{
		Position: 1,
		Title:    strings.Repeat("é", 400),
		Artists:  []string{"X"},
	}}

	payload, err := s.Render(testPlaylist(), tracks)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for i, chunk := range payload.Chunks {
		if len(chunk) > 200 {
			t.Errorf("chunk %d length %d exceeds limit", i, len(chunk))
		}
	}
}

func TestDiscordSerializerEmptyPlaylist(t *testing.T) {
	s := &DiscordSerializer{}
	payload, err := s.Render(testPlaylist(), nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(payload.Chunks) != 1 {
		t.Fatalf("expected header-only payload, got %d chunks", len(payload.Chunks))
	}
}

func TestTruncateLine(t *testing.T) {
	got := truncateLine(strings.Repeat("abc", 50)+"\n", 30)
	if len(got) > 30 {
		t.Errorf("truncated line length %d exceeds max", len(got))
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("truncated line lost trailing newline")
	}
}
