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

package authz

import (
	"context"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheEntry struct {
	tier hierarchy.Tier
}

// mockRoleCache is an in-memory role cache
type mockRoleCache struct {
	entries map[string]cacheEntry
	sets    int
}

func newMockRoleCache() *mockRoleCache {
	return &mockRoleCache{entries: make(map[string]cacheEntry)}
}

func (m *mockRoleCache) Get(ctx context.Context, username string) (hierarchy.Tier, bool, error) {
	if e, ok := m.entries[username]; ok {
		return e.tier, true, nil
	}
	return 0, false, nil
}

func (m *mockRoleCache) Set(ctx context.Context, username string, tier hierarchy.Tier, ttl time.Duration) error {
	m.entries[username] = cacheEntry{tier: tier}
	m.sets++
	return nil
}

func (m *mockRoleCache) Invalidate(ctx context.Context, username string) error {
	delete(m.entries, username)
	return nil
}

// mockUsers resolves usernames to fixed users
type mockUsers struct {
	users map[string]*identity.User
}

func (m *mockUsers) Create(u *identity.User) error { return nil }
func (m *mockUsers) GetByID(id string) (*identity.User, error) {
	return nil, identity.ErrUserNotFound
}
func (m *mockUsers) GetByUsername(username string) (*identity.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}
func (m *mockUsers) List() ([]*identity.User, error) { return nil, nil }
func (m *mockUsers) Update(u *identity.User) error   { return nil }

func userWithTier(username string, tier hierarchy.Tier) *identity.User {
	return &identity.User{
		ID:       "id-" + username,
		Username: username,
		IsActive: true,
		Role:     identity.AssignedRole(tier),
	}
}

func TestAuthorizeEqualLevelAllows(t *testing.T) {
	assert.NoError(t, Authorize(hierarchy.Manager, hierarchy.Manager))
}

func TestAuthorizeHigherLevelAllows(t *testing.T) {
	assert.NoError(t, Authorize(hierarchy.Director, hierarchy.Manager))
	assert.NoError(t, Authorize(hierarchy.CEO, hierarchy.Intern))
}

func TestAuthorizeLowerLevelDenies(t *testing.T) {
	err := Authorize(hierarchy.Manager, hierarchy.SeniorManager)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = Authorize(hierarchy.Intern, hierarchy.Staff)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCheckUsesCacheOnRepeat(t *testing.T) {
	ctx := context.Background()
	cache := newMockRoleCache()
	users := &mockUsers{users: map[string]*identity.User{
		"manager01": userWithTier("manager01", hierarchy.Manager),
	}}

	hits, misses := 0, 0
	svc := NewService(users, cache, 30*time.Minute).
		OnCacheResult(func() { hits++ }, func() { misses++ })

	require.NoError(t, svc.Check(ctx, "manager01", hierarchy.Manager))
	require.NoError(t, svc.Check(ctx, "manager01", hierarchy.Manager))

	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, cache.sets)
}

func TestCheckDeniesBelowRequiredTier(t *testing.T) {
	ctx := context.Background()
	users := &mockUsers{users: map[string]*identity.User{
		"staff01": userWithTier("staff01", hierarchy.Staff),
	}}
	svc := NewService(users, newMockRoleCache(), 30*time.Minute)

	err := svc.Check(ctx, "staff01", hierarchy.Manager)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCheckUnknownUser(t *testing.T) {
	svc := NewService(&mockUsers{users: map[string]*identity.User{}}, newMockRoleCache(), time.Minute)

	err := svc.Check(context.Background(), "ghost", hierarchy.Intern)
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestEffectiveTierDefaultsWhenUnassigned(t *testing.T) {
	ctx := context.Background()
	users := &mockUsers{users: map[string]*identity.User{
		"newhire": {ID: "id-newhire", Username: "newhire", IsActive: true, Role: identity.UnassignedRole()},
	}}
	svc := NewService(users, newMockRoleCache(), time.Minute)

	tier, err := svc.EffectiveTier(ctx, "newhire")
	require.NoError(t, err)
	assert.Equal(t, identity.DefaultTier, tier)
}

func TestInvalidationRemovesStaleRank(t *testing.T) {
	ctx := context.Background()
	cache := newMockRoleCache()
	manager := userWithTier("manager01", hierarchy.Manager)
	users := &mockUsers{users: map[string]*identity.User{"manager01": manager}}
	svc := NewService(users, cache, 30*time.Minute)

	// Prime the cache at Manager
	tier, err := svc.EffectiveTier(ctx, "manager01")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Manager, tier)

	// Demote and invalidate, as a role mutation would
	manager.Role = identity.AssignedRole(hierarchy.Staff)
	require.NoError(t, svc.Invalidate(ctx, "manager01"))

	// The next decision sees the new rank immediately
	tier, err = svc.EffectiveTier(ctx, "manager01")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Staff, tier)

	err = svc.Check(ctx, "manager01", hierarchy.Manager)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestIsCEOFastPath(t *testing.T) {
	ctx := context.Background()
	users := &mockUsers{users: map[string]*identity.User{
		"chief":     userWithTier("chief", hierarchy.CEO),
		"president": userWithTier("president", hierarchy.President),
	}}
	svc := NewService(users, newMockRoleCache(), time.Minute)

	isCEO, err := svc.IsCEO(ctx, "chief")
	require.NoError(t, err)
	assert.True(t, isCEO)

	// One level below the top is not enough
	isCEO, err = svc.IsCEO(ctx, "president")
	require.NoError(t, err)
	assert.False(t, isCEO)
}

func TestCachedAndUncachedPathsAgree(t *testing.T) {
	ctx := context.Background()
	cache := newMockRoleCache()
	users := &mockUsers{users: map[string]*identity.User{
		"senior01": userWithTier("senior01", hierarchy.SeniorStaff),
	}}
	svc := NewService(users, cache, time.Minute)

	// Uncached decision
	errMiss := svc.Check(ctx, "senior01", hierarchy.Manager)
	// Cached decision
	errHit := svc.Check(ctx, "senior01", hierarchy.Manager)

	assert.ErrorIs(t, errMiss, ErrPermissionDenied)
	assert.ErrorIs(t, errHit, ErrPermissionDenied)

	assert.NoError(t, svc.Check(ctx, "senior01", hierarchy.SeniorStaff))
	assert.NoError(t, svc.Check(ctx, "senior01", hierarchy.Staff))
}
