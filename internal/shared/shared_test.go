package shared

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name unchanged",
			input: "Road Trip Mix",
			want:  "Road Trip Mix",
		},
		{
			name:  "illegal characters stripped",
			input: `My <Best> Mix: "vol/2" \ 2024?*|`,
			want:  "My Best Mix vol2  2024",
		},
		{
			name:  "trailing dots and spaces trimmed",
			input: "playlist... ",
			want:  "playlist",
		},
		{
			name:  "control characters stripped",
			input: "mix\x00\x1ftape",
			want:  "mixtape",
		},
		{
			name:  "del and c1 controls stripped",
			input: "mix\x7ftape",
			want:  "mixtape",
		},
		{
			name:  "unicode preserved",
			input: "日本のプレイリスト",
			want:  "日本のプレイリスト",
		},
		{
			name:  "empty result falls back",
			input: `///\\\`,
			want:  "playlist",
		},
		{
			name:  "empty input falls back",
			input: "",
			want:  "playlist",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	long := strings.Repeat("ü", 300)
	got := SanitizeFilename(long)
	if n := len([]rune(got)); n != 200 {
		t.Errorf("expected 200 runes, got %d", n)
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int
		want string
	}{
		{name: "zero", ms: 0, want: "0:00"},
		{name: "under a minute", ms: 59000, want: "0:59"},
		{name: "exact minute", ms: 60000, want: "1:00"},
		{name: "typical track", ms: 213456, want: "3:33"},
		{name: "negative clamps to zero", ms: -5000, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.ms)
			if got != tt.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestMarshalJSONDoesNotEscapeHTML(t *testing.T) {
	data, err := MarshalJSON(map[string]string{"url": "https://example.com/a?b=1&c=2"}, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if strings.Contains(string(data), `\u0026`) {
		t.Errorf("expected & unescaped, got %s", data)
	}
	if !strings.Contains(string(data), "b=1&c=2") {
		t.Errorf("expected literal & preserved, got %s", data)
	}
	if strings.HasSuffix(string(data), "\n") {
		t.Errorf("expected trailing newline trimmed, got %q", data)
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	if a == b {
		t.Error("expected distinct state tokens")
	}
	if len(a) < 32 {
		t.Errorf("state token too short: %d", len(a))
	}
}

func TestGenerateID(t *testing.T) {
	if GenerateID() == GenerateID() {
		t.Error("expected distinct IDs")
	}
}
