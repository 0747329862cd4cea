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
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/id"
)

// Bootstrapper seeds the hierarchy reference rows and the initial
// administrator account. It is safe to run on every startup.
type Bootstrapper struct {
	users       Repository
	tiers       TierRepository
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewBootstrapper creates a new bootstrapper
func NewBootstrapper(users Repository, tiers TierRepository, hasher *PasswordHasher, auditLogger audit.Logger) *Bootstrapper {
	return &Bootstrapper{
		users:       users,
		tiers:       tiers,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// SeedTiers inserts any missing tier rows and verifies the full set is
// present. A short count after seeding means the reference data is
// corrupt and the process must not serve traffic.
func (b *Bootstrapper) SeedTiers(ctx context.Context) error {
	for _, tier := range hierarchy.Tiers() {
		if err := b.tiers.Ensure(tier); err != nil {
			return fmt.Errorf("failed to seed tier %s: %w", tier, err)
		}
	}

	count, err := b.tiers.Count()
	if err != nil {
		return fmt.Errorf("failed to count tiers: %w", err)
	}
	if count != len(hierarchy.Tiers()) {
		return fmt.Errorf("%w: expected %d tiers, found %d", ErrIntegrity, len(hierarchy.Tiers()), count)
	}

	return nil
}

// SeedAdmin creates the initial CEO account if it does not already
// exist. With empty credentials it is a no-op.
func (b *Bootstrapper) SeedAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}

	if _, err := b.users.GetByUsername(username); err == nil {
		return nil
	}

	passwordHash, err := b.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &User{
		ID:              id.NewUUIDv7(),
		Username:        username,
		Email:           email,
		PasswordHash:    passwordHash,
		IsActive:        true,
		IsEmailVerified: true,
		Role:            AssignedRole(hierarchy.CEO),
		CreatedAt:       time.Now(),
	}

	if err := b.users.Create(admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	b.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBootstrap,
		ActorID:  audit.ActorSystemBootstrap,
		Resource: "user",
		Metadata: map[string]any{
			audit.AttrUsername: username,
			audit.AttrTier:     hierarchy.CEO.String(),
		},
	})

	return nil
}
