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

// Package authz makes access decisions by comparing hierarchy levels.
// An actor may perform an operation when their effective tier is at or
// above the tier the resource demands. Tier identity never matters,
// only rank.
package authz

import (
	"context"
	"errors"
	"time"

	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/identity"
)

// Operation identifies the kind of access being requested
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// ErrPermissionDenied is returned when the actor's tier is below the
// required tier. It is distinct from authentication failures.
var ErrPermissionDenied = errors.New("permission denied")

// Authorize is the single decision predicate: the actor passes when
// their tier is at least the required tier.
func Authorize(actor, required hierarchy.Tier) error {
	if actor.AtLeast(required) {
		return nil
	}
	return ErrPermissionDenied
}

// RoleCache caches username -> tier lookups with a TTL
type RoleCache interface {
	// Get returns the cached tier and whether the entry was present
	Get(ctx context.Context, username string) (hierarchy.Tier, bool, error)

	// Set stores the tier with a TTL
	Set(ctx context.Context, username string, tier hierarchy.Tier, ttl time.Duration) error

	// Invalidate removes the entry
	Invalidate(ctx context.Context, username string) error
}

// Service resolves effective tiers, consulting the role cache before
// the durable store. Cache errors degrade to a store lookup.
type Service struct {
	users  identity.Repository
	cache  RoleCache
	ttl    time.Duration
	onHit  func()
	onMiss func()
}

// NewService creates a new authorization service
func NewService(users identity.Repository, cache RoleCache, ttl time.Duration) *Service {
	return &Service{
		users: users,
		cache: cache,
		ttl:   ttl,
	}
}

// OnCacheResult registers callbacks fired on role cache hits and
// misses, used for metrics.
func (s *Service) OnCacheResult(hit, miss func()) *Service {
	s.onHit = hit
	s.onMiss = miss
	return s
}

// EffectiveTier resolves the tier all decisions for this user are made
// against. On a cache miss the durable answer is written back with the
// configured TTL.
func (s *Service) EffectiveTier(ctx context.Context, username string) (hierarchy.Tier, error) {
	if tier, ok, err := s.cache.Get(ctx, username); err == nil && ok {
		if s.onHit != nil {
			s.onHit()
		}
		return tier, nil
	}
	if s.onMiss != nil {
		s.onMiss()
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return 0, identity.ErrUserNotFound
	}

	tier := user.Tier()
	_ = s.cache.Set(ctx, username, tier, s.ttl)

	return tier, nil
}

// Check authorizes the named user for an operation demanding the given
// tier. The cached and uncached paths apply the same predicate.
func (s *Service) Check(ctx context.Context, username string, required hierarchy.Tier) error {
	tier, err := s.EffectiveTier(ctx, username)
	if err != nil {
		return err
	}
	return Authorize(tier, required)
}

// IsCEO reports whether the user holds the top tier. This is the fast
// path guarding executive-only surfaces.
func (s *Service) IsCEO(ctx context.Context, username string) (bool, error) {
	tier, err := s.EffectiveTier(ctx, username)
	if err != nil {
		return false, err
	}
	return tier.Equal(hierarchy.CEO), nil
}

// Invalidate drops the user's cached tier. Role mutations call this
// before acknowledging so no grace window serves the old rank.
func (s *Service) Invalidate(ctx context.Context, username string) error {
	return s.cache.Invalidate(ctx, username)
}
