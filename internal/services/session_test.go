package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

type fakeSource struct {
	tokens []*oauth2.Token
	calls  int
}

func (f *fakeSource) Token() (*oauth2.Token, error) {
	if f.calls < len(f.tokens) {
		f.calls++
	}
	return f.tokens[f.calls-1], nil
}

func TestNewSessionRequiresToken(t *testing.T) {
	cfg := &oauth2.Config{ClientID: "id"}

	if _, err := NewSession(context.Background(), cfg, nil, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("nil token: error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := NewSession(context.Background(), cfg, &oauth2.Token{}, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("empty token: error = %v, want ErrNotAuthenticated", err)
	}
}

func TestPersistingSourceSavesRefreshedToken(t *testing.T) {
	base := &fakeSource{tokens: []*oauth2.Token{
		{AccessToken: "original"},
		{AccessToken: "refreshed", RefreshToken: "r2"},
	}}

	var saved []*oauth2.Token
	src := &persistingSource{
		base:   base,
		access: "original",
		save: func(token *oauth2.Token) error {
			saved = append(saved, token)
			return nil
		},
		logger: shared.NewLogger(nil),
	}

	// Same token: no save
	if _, err := src.Token(); err != nil {
		t.Fatal(err)
	}
	if len(saved) != 0 {
		t.Fatalf("unexpected save for unchanged token")
	}

	// Refreshed token: saved once
	token, err := src.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token.AccessToken != "refreshed" {
		t.Errorf("AccessToken = %q", token.AccessToken)
	}
	if len(saved) != 1 || saved[0].AccessToken != "refreshed" {
		t.Errorf("saved = %v, want one refreshed token", saved)
	}

	// Stable afterwards: no further saves
	if _, err := src.Token(); err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Errorf("expected exactly one save, got %d", len(saved))
	}
}

func TestPersistingSourceSaveFailureIsNotFatal(t *testing.T) {
	base := &fakeSource{tokens: []*oauth2.Token{
		{AccessToken: "original"},
		{AccessToken: "refreshed"},
	}}

	var logs bytes.Buffer
	src := &persistingSource{
		base:   base,
		access: "original",
		save: func(*oauth2.Token) error {
			return errors.New("disk full")
		},
		logger: shared.NewLogger(&logs),
	}

	if _, err := src.Token(); err != nil {
		t.Fatal(err)
	}
	token, err := src.Token()
	if err != nil {
		t.Fatalf("save failure should not fail Token(): %v", err)
	}
	if token.AccessToken != "refreshed" {
		t.Errorf("AccessToken = %q", token.AccessToken)
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Errorf("expected the save failure to be logged, got %q", logs.String())
	}
}
