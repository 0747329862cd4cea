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

package session

import (
	"context"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/refresh"
	"github.com/docvault/docvault/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserRepository is an in-memory user store
type mockUserRepository struct {
	byID       map[string]*identity.User
	byUsername map[string]*identity.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byID:       make(map[string]*identity.User),
		byUsername: make(map[string]*identity.User),
	}
}

func (m *mockUserRepository) Create(u *identity.User) error {
	m.byID[u.ID] = u
	m.byUsername[u.Username] = u
	return nil
}

func (m *mockUserRepository) GetByID(id string) (*identity.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(username string) (*identity.User, error) {
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (m *mockUserRepository) List() ([]*identity.User, error) { return nil, nil }

func (m *mockUserRepository) Update(u *identity.User) error {
	m.byID[u.ID] = u
	m.byUsername[u.Username] = u
	return nil
}

// mockRefreshRepository is an in-memory refresh token store
type mockRefreshRepository struct {
	tokens map[string]*refresh.Token
}

func newMockRefreshRepository() *mockRefreshRepository {
	return &mockRefreshRepository{tokens: make(map[string]*refresh.Token)}
}

func (m *mockRefreshRepository) Create(t *refresh.Token) error {
	m.tokens[t.Token] = t
	return nil
}

func (m *mockRefreshRepository) GetByToken(value string) (*refresh.Token, error) {
	if t, ok := m.tokens[value]; ok {
		return t, nil
	}
	return nil, refresh.ErrTokenNotFound
}

func (m *mockRefreshRepository) Revoke(value string) error {
	if t, ok := m.tokens[value]; ok {
		t.Revoked = true
		return nil
	}
	return refresh.ErrTokenNotFound
}

func (m *mockRefreshRepository) RevokeAllForUser(userID string) ([]string, error) {
	var values []string
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			values = append(values, t.Token)
		}
	}
	return values, nil
}

func (m *mockRefreshRepository) DeleteByToken(value string) error {
	delete(m.tokens, value)
	return nil
}

func (m *mockRefreshRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	var removed int64
	for value, t := range m.tokens {
		if !t.ExpiresAt.After(cutoff) {
			delete(m.tokens, value)
			removed++
		}
	}
	return removed, nil
}

// mockCache is an in-memory token mirror
type mockCache struct {
	entries map[string]string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]string)}
}

func (m *mockCache) Put(ctx context.Context, value, userID string, ttl time.Duration) error {
	m.entries[value] = userID
	return nil
}

func (m *mockCache) Delete(ctx context.Context, value string) error {
	delete(m.entries, value)
	return nil
}

// mockRoleCache satisfies the identity invalidator
type mockRoleCache struct{}

func (m *mockRoleCache) Invalidate(ctx context.Context, username string) error { return nil }

type fixture struct {
	service     *Service
	codec       *token.Codec
	refreshSvc  *refresh.Service
	refreshRepo *mockRefreshRepository
	users       *mockUserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newMockUserRepository()
	auditLogger := audit.NewSlogLogger()
	hasher := identity.NewPasswordHasher(8192, 1, 1, 16, 32)
	identitySvc := identity.NewService(users, hasher, &mockRoleCache{}, auditLogger)

	_, err := identitySvc.CreateUser(context.Background(), "staff01", "staff01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	codec := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), 15*time.Minute)
	refreshRepo := newMockRefreshRepository()
	refreshSvc := refresh.NewService(refreshRepo, newMockCache(), users, 7*24*time.Hour, auditLogger)

	return &fixture{
		service:     NewService(identitySvc, codec, refreshSvc, auditLogger),
		codec:       codec,
		refreshSvc:  refreshSvc,
		refreshRepo: refreshRepo,
		users:       users,
	}
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "cli/1.0", "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", sess.TokenType)
	assert.Equal(t, int64(900), sess.ExpiresIn)
	assert.Equal(t, "staff01", sess.Username)
	assert.Equal(t, hierarchy.Staff.String(), sess.Tier)
	assert.NotEmpty(t, sess.RefreshToken)

	// The session token verifies back to the username
	subject, err := f.codec.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "staff01", subject)
}

func TestSignInBadPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SignIn(context.Background(), "staff01", "wrong", "", "")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestRefreshReturnsSameRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "", "")
	require.NoError(t, err)

	renewed, err := f.service.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)

	// A fresh session token, the identical refresh credential
	assert.Equal(t, sess.RefreshToken, renewed.RefreshToken)
	assert.NotEmpty(t, renewed.Token)

	subject, err := f.codec.Verify(renewed.Token)
	require.NoError(t, err)
	assert.Equal(t, "staff01", subject)
}

func TestRefreshDoesNotExtendDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "", "")
	require.NoError(t, err)

	before, err := f.refreshRepo.GetByToken(sess.RefreshToken)
	require.NoError(t, err)
	deadline := before.ExpiresAt

	_, err = f.service.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)

	after, err := f.refreshRepo.GetByToken(sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, deadline, after.ExpiresAt)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Refresh(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, refresh.ErrTokenNotFound)
}

func TestRefreshExpiredToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "", "")
	require.NoError(t, err)

	stored, err := f.refreshRepo.GetByToken(sess.RefreshToken)
	require.NoError(t, err)
	f.refreshSvc.WithClock(func() time.Time { return stored.ExpiresAt.Add(time.Minute) })

	_, err = f.service.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, refresh.ErrTokenExpired)

	// The credential is gone; a second attempt fails the same way
	_, err = f.service.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, refresh.ErrTokenNotFound)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "", "")
	require.NoError(t, err)

	require.NoError(t, f.service.SignOut(ctx, sess.RefreshToken))

	stored, err := f.refreshRepo.GetByToken(sess.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
}

func TestSignOutUnknownToken(t *testing.T) {
	f := newFixture(t)

	err := f.service.SignOut(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, refresh.ErrTokenNotFound)
}

func TestSignOutAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "laptop", "")
	require.NoError(t, err)
	second, err := f.service.SignIn(ctx, "staff01", "correct-horse-battery", "phone", "")
	require.NoError(t, err)

	require.NoError(t, f.service.SignOutAll(ctx, first.UserID))

	for _, value := range []string{first.RefreshToken, second.RefreshToken} {
		stored, err := f.refreshRepo.GetByToken(value)
		require.NoError(t, err)
		assert.True(t, stored.Revoked)
	}
}
