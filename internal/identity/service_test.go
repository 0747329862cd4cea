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

package identity

import (
	"context"
	"testing"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserRepository is an in-memory user repository for testing
type mockUserRepository struct {
	byID       map[string]*User
	byUsername map[string]*User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byID:       make(map[string]*User),
		byUsername: make(map[string]*User),
	}
}

func (m *mockUserRepository) Create(user *User) error {
	m.byID[user.ID] = user
	m.byUsername[user.Username] = user
	return nil
}

func (m *mockUserRepository) GetByID(id string) (*User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(username string) (*User, error) {
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) List() ([]*User, error) {
	users := make([]*User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockUserRepository) Update(user *User) error {
	if _, ok := m.byID[user.ID]; !ok {
		return ErrUserNotFound
	}
	m.byID[user.ID] = user
	m.byUsername[user.Username] = user
	return nil
}

// mockTierRepository tracks Ensure calls
type mockTierRepository struct {
	seeded map[int]bool
}

func newMockTierRepository() *mockTierRepository {
	return &mockTierRepository{seeded: make(map[int]bool)}
}

func (m *mockTierRepository) Ensure(tier hierarchy.Tier) error {
	m.seeded[tier.Level()] = true
	return nil
}

func (m *mockTierRepository) Count() (int, error) {
	return len(m.seeded), nil
}

// mockRoleCache records invalidations
type mockRoleCache struct {
	invalidated []string
}

func (m *mockRoleCache) Invalidate(ctx context.Context, username string) error {
	m.invalidated = append(m.invalidated, username)
	return nil
}

func testHasher() *PasswordHasher {
	// Low-cost parameters to keep tests fast
	return NewPasswordHasher(8192, 1, 1, 16, 32)
}

func newTestService() (*Service, *mockUserRepository, *mockRoleCache) {
	repo := newMockUserRepository()
	cache := &mockRoleCache{}
	svc := NewService(repo, testHasher(), cache, audit.NewSlogLogger())
	return svc, repo, cache
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	user, err := svc.CreateUser(ctx, "staff01", "staff01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.Equal(t, hierarchy.Staff, user.Tier())

	authed, err := svc.Authenticate(ctx, "staff01", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.CreateUser(ctx, "staff01", "staff01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "staff01", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Authenticate(context.Background(), "ghost", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	user, err := svc.CreateUser(ctx, "staff01", "staff01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, user.ID, false))

	_, err = svc.Authenticate(ctx, "staff01", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestCreateUserDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.CreateUser(ctx, "staff01", "staff01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "staff01", "other@example.com", "", "another-password")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestCreateUserWeakPassword(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateUser(context.Background(), "staff01", "staff01@example.com", "", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAssignTierInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestService()

	user, err := svc.CreateUser(ctx, "manager01", "manager01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	require.NoError(t, svc.AssignTier(ctx, user.ID, hierarchy.Manager))

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Manager, got.Tier())
	assert.Equal(t, []string{"manager01"}, cache.invalidated)
}

func TestRemoveTierFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestService()

	user, err := svc.CreateUser(ctx, "director01", "director01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	require.NoError(t, svc.AssignTier(ctx, user.ID, hierarchy.Director))
	require.NoError(t, svc.RemoveTier(ctx, user.ID))

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTier, got.Tier())

	_, assigned := got.Role.Assigned()
	assert.False(t, assigned)
	assert.Equal(t, []string{"director01", "director01"}, cache.invalidated)
}

func TestAssignTierUnknownTier(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	user, err := svc.CreateUser(ctx, "staff01", "staff01@example.com", "", "correct-horse-battery")
	require.NoError(t, err)

	err = svc.AssignTier(ctx, user.ID, hierarchy.Tier(42))
	assert.ErrorIs(t, err, hierarchy.ErrUnknownTier)
}

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := testHasher()

	encoded, err := hasher.Hash("my-secret-password")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$")

	ok, err := hasher.Verify("my-secret-password", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("not-the-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasherMalformedHash(t *testing.T) {
	hasher := testHasher()

	_, err := hasher.Verify("anything", "not-an-argon2-hash")
	assert.Error(t, err)
}

func TestBootstrapSeedTiers(t *testing.T) {
	tiers := newMockTierRepository()
	b := NewBootstrapper(newMockUserRepository(), tiers, testHasher(), audit.NewSlogLogger())

	require.NoError(t, b.SeedTiers(context.Background()))
	assert.Equal(t, 11, len(tiers.seeded))

	// Running again is a no-op
	require.NoError(t, b.SeedTiers(context.Background()))
	assert.Equal(t, 11, len(tiers.seeded))
}

func TestBootstrapSeedAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	users := newMockUserRepository()
	b := NewBootstrapper(users, newMockTierRepository(), testHasher(), audit.NewSlogLogger())

	require.NoError(t, b.SeedAdmin(ctx, "admin", "admin@example.com", "bootstrap-password"))

	admin, err := users.GetByUsername("admin")
	require.NoError(t, err)
	assert.True(t, admin.IsCEO())

	// Second run must not replace the account
	require.NoError(t, b.SeedAdmin(ctx, "admin", "admin@example.com", "different-password"))
	again, err := users.GetByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, admin.PasswordHash, again.PasswordHash)
}

func TestBootstrapSeedAdminSkippedWithoutCredentials(t *testing.T) {
	users := newMockUserRepository()
	b := NewBootstrapper(users, newMockTierRepository(), testHasher(), audit.NewSlogLogger())

	require.NoError(t, b.SeedAdmin(context.Background(), "", "", ""))
	all, err := users.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}
