package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/wicket/internal/api"
	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/storage"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// Session holds the authenticated identity, persisted under the "user"
// key separately from the cart.
type Session struct {
	mu      sync.RWMutex
	user    *domain.User
	storage storage.Storage
	auth    Authenticator
	logger  *slog.Logger
}

// OpenSession rehydrates the persisted user, if any. A corrupt record is
// discarded rather than failing startup.
func OpenSession(ctx context.Context, st storage.Storage, auth Authenticator, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		storage: st,
		auth:    auth,
		logger:  logger.With(slog.String("service", "session")),
	}

	var user domain.User
	found, err := storage.LoadJSON(ctx, st, storage.KeyUser, &user)
	if err != nil {
		if !storage.IsCorrupt(err) {
			return nil, err
		}
		s.logger.Warn("discarding unreadable persisted user", slog.String("error", err.Error()))
		return s, nil
	}
	if found && user.Token != "" {
		s.user = &user
		telemetry.SetUser(user.ID, user.Email)
	}
	return s, nil
}

// Login authenticates and persists the identity.
func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "session.login"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.WithOp(ErrMissingCredentials, op)
	}

	user, err := s.auth.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	if err := storage.SaveJSON(ctx, s.storage, storage.KeyUser, user); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to persist session")
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	telemetry.SetUser(user.ID, user.Email)
	s.logger.Info("logged in", slog.String("user_id", user.ID))
	return user, nil
}

// Logout forgets the identity. The cart is left alone.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	telemetry.ClearUser()
	if err := s.storage.Delete(ctx, storage.KeyUser); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, "session.logout", "failed to clear session")
	}
	return nil
}

// Current returns the signed-in user or ErrNotLoggedIn.
func (s *Session) Current() (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, ErrNotLoggedIn
	}
	u := *s.user
	return &u, nil
}

// Token returns the bearer token, or "" when signed out. It matches
// api.TokenFunc.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return ""
	}
	return s.user.Token
}
