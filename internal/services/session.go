package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

// NewSession builds the auto-refreshing token source the export engine treats
// as its session provider. Refreshes are transparent to callers; when the
// library mints a new token, save is invoked so the credential survives
// process restarts. A nil save skips persistence.
func NewSession(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, save func(*oauth2.Token) error) (oauth2.TokenSource, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: run auth first", shared.ErrNotAuthenticated)
	}

	base := cfg.TokenSource(ctx, token)
	if save == nil {
		return base, nil
	}

	return &persistingSource{
		base:   base,
		access: token.AccessToken,
		save:   save,
		logger: shared.NewLogger(nil),
	}, nil
}

// persistingSource saves refreshed tokens as a side effect of Token.
type persistingSource struct {
	base   oauth2.TokenSource
	mu     sync.Mutex
	access string
	save   func(*oauth2.Token) error
	logger *log.Logger
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.access {
		s.access = token.AccessToken
		// Save failures do not invalidate the in-memory session.
		if err := s.save(token); err != nil {
			s.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return token, nil
}
