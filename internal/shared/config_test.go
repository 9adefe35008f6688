package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[credentials.spotify]
client_id = "test_id"
client_secret = "test_secret"
redirect_uri = "http://127.0.0.1:8888/callback"

[export]
format = "csv"
output_dir = "out"
workers = 2
rate_limit = 3.5

[database]
path = "test.db"

[server]
host = "127.0.0.1"
port = 8888
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Credentials.Spotify.ClientID != "test_id" {
		t.Errorf("ClientID = %q, want test_id", config.Credentials.Spotify.ClientID)
	}
	if config.Export.Format != "csv" {
		t.Errorf("Format = %q, want csv", config.Export.Format)
	}
	if config.Export.Workers != 2 {
		t.Errorf("Workers = %d, want 2", config.Export.Workers)
	}
	if config.Export.RateLimit != 3.5 {
		t.Errorf("RateLimit = %v, want 3.5", config.Export.RateLimit)
	}
	if config.Server.Port != 8888 {
		t.Errorf("Port = %d, want 8888", config.Server.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	config := DefaultConfig()
	config.Credentials.Spotify.ClientID = "abc"
	config.Credentials.Spotify.AccessToken = "tok"
	config.Export.Format = "markdown"

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Credentials.Spotify.ClientID != "abc" {
		t.Errorf("ClientID = %q, want abc", loaded.Credentials.Spotify.ClientID)
	}
	if loaded.Credentials.Spotify.AccessToken != "tok" {
		t.Errorf("AccessToken = %q, want tok", loaded.Credentials.Spotify.AccessToken)
	}
	if loaded.Export.Format != "markdown" {
		t.Errorf("Format = %q, want markdown", loaded.Export.Format)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Export.Format == "" {
		t.Error("expected a default export format")
	}
	if config.Export.Workers <= 0 {
		t.Error("expected a positive default worker count")
	}
	if config.Database.Path == "" {
		t.Error("expected a default database path")
	}
	if config.Server.Port == 0 {
		t.Error("expected a default server port")
	}
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile() error = %v", err)
	}
	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestSpotifyConfigTokenRoundTrip(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	var cfg SpotifyConfig
	err := cfg.Update(&oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	token := cfg.Token()
	if token == nil {
		t.Fatal("Token() = nil")
	}
	if token.AccessToken != "access" || token.RefreshToken != "refresh" {
		t.Errorf("unexpected token %+v", token)
	}
	if !token.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", token.Expiry, expiry)
	}
}

func TestSpotifyConfigUpdateKeepsRefreshToken(t *testing.T) {
	cfg := SpotifyConfig{RefreshToken: "original"}

	// Refresh responses often omit the refresh token
	if err := cfg.Update(&oauth2.Token{AccessToken: "new_access"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if cfg.RefreshToken != "original" {
		t.Errorf("RefreshToken = %q, want original", cfg.RefreshToken)
	}
}

func TestSpotifyConfigUpdateRejectsEmptyToken(t *testing.T) {
	var cfg SpotifyConfig
	if err := cfg.Update(nil); err == nil {
		t.Error("expected error for nil token")
	}
	if err := cfg.Update(&oauth2.Token{}); err == nil {
		t.Error("expected error for empty access token")
	}
}

func TestSpotifyConfigTokenEmpty(t *testing.T) {
	var cfg SpotifyConfig
	if cfg.Token() != nil {
		t.Error("expected nil token when no access token stored")
	}
}
