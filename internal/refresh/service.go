// Copyright 2026 The DocVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package refresh

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/id"
	"github.com/docvault/docvault/internal/identity"
)

// tokenBytes is the entropy of the opaque token value.
const tokenBytes = 32

// Service manages the refresh-token lifecycle across the durable store
// and the cache mirror. The durable store is authoritative; the mirror
// only accelerates lookups and never gates correctness.
type Service struct {
	repo        Repository
	cache       Cache
	users       identity.Repository
	lifetime    time.Duration
	now         func() time.Time
	auditLogger audit.Logger
}

// NewService creates a new refresh token service
func NewService(repo Repository, cache Cache, users identity.Repository, lifetime time.Duration, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		users:       users,
		lifetime:    lifetime,
		now:         time.Now,
		auditLogger: auditLogger,
	}
}

// WithClock overrides the time source for testing.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create mints a refresh token for the user. The user must exist;
// issuing a credential for an unknown principal is a hard error.
// The durable write happens first, then the cache mirror; a mirror
// failure is logged and tolerated.
func (s *Service) Create(ctx context.Context, userID, deviceInfo, ipAddress string) (*Token, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("refresh token for unknown user %s: %w", userID, identity.ErrUserNotFound)
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token := &Token{
		ID:         id.NewUUIDv7(),
		Token:      base64.RawURLEncoding.EncodeToString(raw),
		UserID:     user.ID,
		ExpiresAt:  s.now().Add(s.lifetime),
		CreatedAt:  s.now(),
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
	}

	if err := s.repo.Create(token); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.cache.Put(ctx, token.Token, token.UserID, s.lifetime); err != nil {
		slog.WarnContext(ctx, "refresh token cache mirror write failed",
			slog.String("user_id", token.UserID),
			slog.String("error", err.Error()))
	}

	return token, nil
}

// FindByToken looks up a token by its opaque value in the durable
// store.
func (s *Service) FindByToken(ctx context.Context, value string) (*Token, error) {
	token, err := s.repo.GetByToken(value)
	if err != nil {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// VerifyExpiration checks a token's deadline. An expired token is
// removed from both stores before the error is returned, so a retry
// with the same credential fails identically.
func (s *Service) VerifyExpiration(ctx context.Context, token *Token) error {
	if !token.Expired(s.now()) {
		return nil
	}

	if err := s.repo.DeleteByToken(token.Token); err != nil {
		slog.WarnContext(ctx, "failed to delete expired refresh token",
			slog.String("user_id", token.UserID),
			slog.String("error", err.Error()))
	}
	if err := s.cache.Delete(ctx, token.Token); err != nil {
		slog.WarnContext(ctx, "failed to drop expired refresh token mirror",
			slog.String("user_id", token.UserID),
			slog.String("error", err.Error()))
	}

	return ErrTokenExpired
}

// RevokeOne revokes a single token and drops its cache mirror.
func (s *Service) RevokeOne(ctx context.Context, value string) error {
	token, err := s.repo.GetByToken(value)
	if err != nil {
		return ErrTokenNotFound
	}

	if err := s.repo.Revoke(token.Token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if err := s.cache.Delete(ctx, token.Token); err != nil {
		slog.WarnContext(ctx, "failed to drop revoked refresh token mirror",
			slog.String("user_id", token.UserID),
			slog.String("error", err.Error()))
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTokenRevoked,
		ActorID:  token.UserID,
		Resource: "refresh_token",
	})

	return nil
}

// RevokeAll revokes every refresh token the user holds, across all
// devices, and drops each cache mirror.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	values, err := s.repo.RevokeAllForUser(userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	for _, value := range values {
		if err := s.cache.Delete(ctx, value); err != nil {
			slog.WarnContext(ctx, "failed to drop revoked refresh token mirror",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLogoutAll,
		ActorID:  userID,
		Resource: "refresh_token",
		Metadata: map[string]any{"revoked_count": len(values)},
	})

	return nil
}

// SweepExpired removes every token whose deadline is strictly before
// the cutoff. The sweep is idempotent: a second run over the same
// cutoff finds nothing.
func (s *Service) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.repo.DeleteExpiredBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired refresh tokens: %w", err)
	}

	if removed > 0 {
		slog.InfoContext(ctx, "swept expired refresh tokens",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff))
	}

	return removed, nil
}
