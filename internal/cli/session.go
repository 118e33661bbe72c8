package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
)

// Session tracks who the CLI is signed in as.  A stored token is only a
// claim until the server confirms it, so the tracker starts in
// checking_auth and Check settles it through /v1/me.
type Session struct {
	cfg     *Config
	client  *Client
	tracker *identity.Tracker
	me      *MeResult
}

// NewSession wraps cfg and client with a fresh tracker.
func NewSession(cfg *Config, client *Client) *Session {
	return &Session{cfg: cfg, client: client, tracker: identity.NewTracker()}
}

// Tracker exposes the auth state machine for subscribers.
func (s *Session) Tracker() *identity.Tracker { return s.tracker }

// Me returns the last /v1/me answer, nil when anonymous or unchecked.
func (s *Session) Me() *MeResult { return s.me }

// Check resolves the session state.  Without a token the session is
// anonymous without asking the server; a token the server rejects is
// treated the same way.
func (s *Session) Check(ctx context.Context) (identity.Snapshot, error) {
	if snap := s.tracker.Current(); snap.State != identity.StateCheckingAuth {
		return snap, nil
	}
	if s.cfg.Token == "" {
		s.tracker.SignOut()
		return s.tracker.Current(), nil
	}

	var me MeResult
	err := s.client.Get(ctx, "/v1/me", &me)
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
		s.me = nil
		s.tracker.SignOut()
	case err != nil:
		return s.tracker.Current(), err
	default:
		s.me = &me
		s.tracker.Resolve(identity.Identity(me.UserID))
	}
	return s.tracker.Current(), nil
}

// SignIn stores a freshly issued token and re-validates the session.
func (s *Session) SignIn(ctx context.Context, token string) error {
	if err := s.cfg.SaveToken(token); err != nil {
		return err
	}
	s.client.SetToken(token)
	s.tracker.Recheck()
	_, err := s.Check(ctx)
	return err
}

// SignOut forgets the token.
func (s *Session) SignOut() error {
	s.client.SetToken("")
	s.me = nil
	if err := s.cfg.ClearToken(); err != nil {
		return err
	}
	s.tracker.SignOut()
	return nil
}
