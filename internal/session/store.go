// Package session caches the signed-in user in persistent storage for a
// bounded time window.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	KeyUser          = "app_user"
	KeyAuthenticated = "user_authenticated"
	KeyIssuedAt      = "user_session_id"

	DefaultTTL = 24 * time.Hour
)

type Store struct {
	storage Storage
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(storage Storage, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  logger,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists user and stamps the session with the current time.
func (s *Store) Save(ctx context.Context, user domain.AppUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}

	if err := s.storage.Set(ctx, KeyUser, string(raw)); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, KeyAuthenticated, "true"); err != nil {
		return err
	}
	issued := strconv.FormatInt(s.now().UnixMilli(), 10)
	return s.storage.Set(ctx, KeyIssuedAt, issued)
}

// CurrentUser returns the cached user while the session is younger than the
// TTL. Expired or unreadable sessions are cleared and reported as absent.
func (s *Store) CurrentUser(ctx context.Context) (*domain.AppUser, bool) {
	rawUser, okUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		s.logger.Error("failed to read session", "error", err)
		return nil, false
	}
	flag, okFlag, err := s.storage.Get(ctx, KeyAuthenticated)
	if err != nil {
		s.logger.Error("failed to read session", "error", err)
		return nil, false
	}
	rawIssued, okIssued, err := s.storage.Get(ctx, KeyIssuedAt)
	if err != nil {
		s.logger.Error("failed to read session", "error", err)
		return nil, false
	}

	if !okUser || !okIssued || flag != "true" || !okFlag {
		return nil, false
	}

	issuedMillis, err := strconv.ParseInt(rawIssued, 10, 64)
	if err != nil {
		s.logger.Warn("discarding session with malformed timestamp", "error", err)
		s.Logout(ctx)
		return nil, false
	}

	var user domain.AppUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == "" || user.Email == "" {
		s.logger.Warn("discarding session with malformed user", "error", err)
		s.Logout(ctx)
		return nil, false
	}

	if s.now().Sub(time.UnixMilli(issuedMillis)) >= s.ttl {
		s.logger.Info("session expired", "user_id", user.ID)
		s.Logout(ctx)
		return nil, false
	}

	return &user, true
}

func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.CurrentUser(ctx)
	return ok
}

// Logout removes every session key. Failures are logged, not returned.
func (s *Store) Logout(ctx context.Context) {
	if err := s.storage.Delete(ctx, KeyUser, KeyAuthenticated, KeyIssuedAt); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
}
