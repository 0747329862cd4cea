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
	"errors"
	"time"

	"github.com/docvault/docvault/internal/hierarchy"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is deactivated")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrIntegrity          = errors.New("hierarchy reference data incomplete")
)

// DefaultTier is the rank a user holds until one is explicitly assigned.
var DefaultTier = hierarchy.Staff

// RoleRef is either an explicitly assigned tier or the unassigned state
// falling back to DefaultTier. A single accessor derives the effective
// tier so call sites never null-check a role reference.
type RoleRef struct {
	assigned bool
	tier     hierarchy.Tier
}

// AssignedRole returns a RoleRef holding an explicit tier.
func AssignedRole(t hierarchy.Tier) RoleRef {
	return RoleRef{assigned: true, tier: t}
}

// UnassignedRole returns the fallback RoleRef.
func UnassignedRole() RoleRef {
	return RoleRef{}
}

// Effective returns the tier all access decisions are made against.
func (r RoleRef) Effective() hierarchy.Tier {
	if r.assigned {
		return r.tier
	}
	return DefaultTier
}

// Assigned reports the explicit tier, if any.
func (r RoleRef) Assigned() (hierarchy.Tier, bool) {
	return r.tier, r.assigned
}

// User represents a principal in the system
type User struct {
	ID              string
	Username        string
	Email           string
	Phone           string
	PasswordHash    string
	IsActive        bool
	IsEmailVerified bool
	Role            RoleRef
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Tier returns the user's effective hierarchy tier.
func (u *User) Tier() hierarchy.Tier {
	return u.Role.Effective()
}

// IsCEO reports whether the user holds the top tier.
func (u *User) IsCEO() bool {
	return u.Tier().Equal(hierarchy.CEO)
}

// IsManagerLevel reports whether the user is Manager or above.
func (u *User) IsManagerLevel() bool {
	return u.Tier().AtLeast(hierarchy.Manager)
}

// IsExecutiveLevel reports whether the user is Vice President or above.
func (u *User) IsExecutiveLevel() bool {
	return u.Tier().AtLeast(hierarchy.VicePresident)
}

// Repository defines the interface for user persistence
type Repository interface {
	// Create creates a new user
	Create(user *User) error

	// GetByID retrieves a user by ID
	GetByID(id string) (*User, error)

	// GetByUsername retrieves a user by unique username
	GetByUsername(username string) (*User, error)

	// List retrieves all users
	List() ([]*User, error)

	// Update persists mutable user fields (activity, verification, role)
	Update(user *User) error
}

// TierRepository manages the durable hierarchy reference rows. The tier
// set is closed in code; the rows exist so foreign keys on documents and
// so reporting queries have something to join against.
type TierRepository interface {
	// Ensure inserts the tier row if it does not exist
	Ensure(tier hierarchy.Tier) error

	// Count returns the number of tier rows present
	Count() (int, error)
}

// RoleCacheInvalidator removes a user's cached role entry. Role
// mutations must invalidate before they are acknowledged.
type RoleCacheInvalidator interface {
	Invalidate(ctx context.Context, username string) error
}
