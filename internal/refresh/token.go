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
	"errors"
	"time"
)

// Domain errors
var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenExpired  = errors.New("refresh token expired, a new sign-in is required")
	ErrTokenRevoked  = errors.New("refresh token revoked")
)

// Token is a durable refresh credential. The Token field holds the
// opaque random string handed to the client; ID is the row identity.
type Token struct {
	ID         string
	Token      string
	UserID     string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Revoked    bool
	DeviceInfo string
	IPAddress  string
}

// Expired reports whether the given instant is strictly past the
// token's deadline. At the deadline itself the token is still live.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Repository defines the durable store for refresh tokens
type Repository interface {
	// Create persists a new refresh token
	Create(token *Token) error

	// GetByToken retrieves a token by its opaque string value
	GetByToken(value string) (*Token, error)

	// Revoke marks one token revoked by its string value
	Revoke(value string) error

	// RevokeAllForUser marks every token for a user revoked and
	// returns their string values for cache cleanup
	RevokeAllForUser(userID string) ([]string, error)

	// DeleteByToken removes one token row
	DeleteByToken(value string) error

	// DeleteExpiredBefore removes all rows whose deadline is strictly
	// before the cutoff, returning the number removed
	DeleteExpiredBefore(cutoff time.Time) (int64, error)
}

// Cache mirrors live tokens for fast existence checks. All operations
// are best-effort from the service's point of view.
type Cache interface {
	// Put stores the token -> user mapping with a TTL
	Put(ctx context.Context, value, userID string, ttl time.Duration) error

	// Delete removes the mapping
	Delete(ctx context.Context, value string) error
}
