// Package session holds the current user identity and token pair, and
// exposes the login, register and logout operations. The store owns the
// persisted credential keys; the API client reads them at request time.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopfront/internal/api"
	"shopfront/internal/model"
	"shopfront/internal/storage"

	"github.com/rs/zerolog"
)

const (
	loginPath         = "/auth/login/"
	registerPath      = "/auth/register/"
	profilePath       = "/auth/me/"
	profileUpdatePath = "/auth/me/update/"
)

// Store is the process-wide session state container. Instances are
// created explicitly and injected, never ambient, so tests can build
// isolated sessions.
type Store struct {
	client  *api.Client
	storage storage.Store
	logger  zerolog.Logger

	mu   sync.Mutex
	user *model.User
}

// New creates a session store backed by the given API client and
// persisted storage.
func New(client *api.Client, store storage.Store, logger zerolog.Logger) *Store {
	return &Store{
		client:  client,
		storage: store,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// Rehydrate restores identity from persisted state. Partial or corrupt
// state (missing token, malformed token, undecodable identity) is
// treated as logged out and wiped, keeping the authenticated flag
// consistent with the stored credentials.
func (s *Store) Rehydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessToken, _ := s.storage.Get(storage.KeyAccessToken)
	refreshToken, _ := s.storage.Get(storage.KeyRefreshToken)

	var user model.User
	found, err := storage.GetJSON(s.storage, storage.KeyUser, &user)

	valid := accessToken != "" && refreshToken != "" &&
		found && err == nil && user.ID != "" &&
		tokenWellFormed(accessToken) && tokenWellFormed(refreshToken)

	if !valid {
		if accessToken != "" || refreshToken != "" || found {
			s.logger.Warn().Msg("persisted session state is partial or corrupt, treating as logged out")
			s.clearLocked()
		}
		return
	}

	s.user = &user
	s.logger.Debug().Str("username", user.Username).Msg("session rehydrated")
}

// Login exchanges credentials for a token pair and identity. On success
// identity and both tokens are committed as a single atomic update; on
// failure prior state is left untouched and the server's rejection is
// returned.
func (s *Store) Login(ctx context.Context, username, password string) error {
	var resp model.LoginResponse
	err := s.client.Post(ctx, loginPath, model.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return err
	}

	if resp.Access == "" || resp.Refresh == "" || resp.User.ID == "" {
		return fmt.Errorf("login response is missing tokens or identity")
	}

	s.setAuth(resp.User, resp.Access, resp.Refresh)
	s.logger.Info().Str("username", resp.User.Username).Msg("logged in")
	return nil
}

// Register forwards the registration payload. It does not authenticate;
// callers log in afterwards.
func (s *Store) Register(ctx context.Context, req model.RegisterRequest) error {
	return s.client.Post(ctx, registerPath, req, nil)
}

// Logout clears tokens and identity unconditionally. No server round
// trip is required for it to succeed.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.logger.Info().Msg("logged out")
}

// UpdateUser replaces the cached identity only; tokens are untouched.
func (s *Store) UpdateUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	if err := storage.SetJSON(s.storage, storage.KeyUser, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode identity")
		return
	}
	if err := s.storage.Save(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist identity")
	}
}

// FetchProfile refreshes the cached identity from the server.
func (s *Store) FetchProfile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.client.Get(ctx, profilePath, &user); err != nil {
		return nil, err
	}

	s.UpdateUser(user)
	return &user, nil
}

// UpdateProfile patches profile fields server-side and replaces the
// cached identity with the confirmed result.
func (s *Store) UpdateProfile(ctx context.Context, fields map[string]any) (*model.User, error) {
	var user model.User
	if err := s.client.Patch(ctx, profileUpdatePath, fields, &user); err != nil {
		return nil, err
	}

	s.UpdateUser(user)
	return &user, nil
}

// User returns a copy of the cached identity, or nil when logged out.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// IsAuthenticated is exactly (access token present) AND (identity
// present). The token is read from persisted storage so a credential
// wipe after a failed refresh is reflected immediately.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, _ := s.storage.Get(storage.KeyAccessToken)
	return token != "" && s.user != nil
}

// AccessTokenExpiry returns the expiry of the current access token,
// when one is present and carries an exp claim.
func (s *Store) AccessTokenExpiry() (time.Time, bool) {
	token, ok := s.storage.Get(storage.KeyAccessToken)
	if !ok || token == "" {
		return time.Time{}, false
	}
	return TokenExpiry(token)
}

// setAuth commits identity and both tokens as one update under the
// store lock, followed by a single persistence flush.
func (s *Store) setAuth(user model.User, accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	s.storage.Set(storage.KeyAccessToken, accessToken)
	s.storage.Set(storage.KeyRefreshToken, refreshToken)
	if err := storage.SetJSON(s.storage, storage.KeyUser, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode identity")
	}
	if err := s.storage.Save(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session")
	}
}

// clearLocked wipes identity and credentials. Caller holds the lock.
func (s *Store) clearLocked() {
	s.user = nil
	s.storage.Delete(storage.KeyAccessToken)
	s.storage.Delete(storage.KeyRefreshToken)
	s.storage.Delete(storage.KeyUser)
	if err := s.storage.Save(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session wipe")
	}
}
