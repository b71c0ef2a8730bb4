// Package session holds the logged-in credential and cached profile, with an
// explicit Begin on login or signup and End on logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ideabridge.org/internal/market"
)

// ErrUnauthenticated is returned when an operation needs a session and there is none.
var ErrUnauthenticated = errors.New("not logged in")

// Session is safe for concurrent use. The zero value is not usable; call New.
type Session struct {
	mu    sync.RWMutex
	store Store
	token string
	user  market.User
}

func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

// Restore loads a previously persisted session. No stored session is not an error.
func (s *Session) Restore(ctx context.Context) error {
	rec, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token, s.user = rec.Token, rec.User
	s.mu.Unlock()
	return nil
}

// Begin starts a session from a login or signup response. Missing profile
// fields are filled from the token's claims when it carries them.
func (s *Session) Begin(ctx context.Context, res market.AuthResult) error {
	token := strings.TrimSpace(res.Token)
	if token == "" {
		return fmt.Errorf("%w: response carried no token", market.ErrInvalidInput)
	}
	user := res.User
	if user.ID == 0 || user.Role == "" {
		if c, err := Claims(token); err == nil {
			if user.ID == 0 {
				user.ID = c.UserID
			}
			if user.Role == "" {
				user.Role = c.Role
			}
		}
	}
	if user.ID == 0 {
		return fmt.Errorf("%w: response carried no user", market.ErrInvalidInput)
	}
	if err := s.store.Save(ctx, Record{Token: token, User: user}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.mu.Lock()
	s.token, s.user = token, user
	s.mu.Unlock()
	return nil
}

// End clears the in-memory session and the persisted copy.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.user = "", market.User{}
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the cached profile and whether a session is active.
func (s *Session) User() (market.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Viewer returns the profile or ErrUnauthenticated.
func (s *Session) Viewer() (market.User, error) {
	u, ok := s.User()
	if !ok {
		return market.User{}, ErrUnauthenticated
	}
	return u, nil
}

// Refresh replaces the cached profile; the token is kept.
func (s *Session) Refresh(ctx context.Context, u market.User) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return ErrUnauthenticated
	}
	if err := s.store.Save(ctx, Record{Token: token, User: u}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.mu.Lock()
	if s.token == token {
		s.user = u
	}
	s.mu.Unlock()
	return nil
}

type ctxKey struct{}

// ContextWith attaches s to ctx.
func ContextWith(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by ContextWith.
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
