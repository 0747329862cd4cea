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

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/redis/go-redis/v9"
)

const roleKeyPrefix = "user:role:"

// RoleCache implements authz.RoleCache and identity.RoleCacheInvalidator.
// Entries are user:role:<username> -> tier name with a TTL; role
// mutations invalidate synchronously so no window serves a stale rank.
type RoleCache struct {
	client *Client
}

// NewRoleCache creates a new role cache
func NewRoleCache(client *Client) *RoleCache {
	return &RoleCache{client: client}
}

// Get returns the cached tier and whether the entry was present
func (c *RoleCache) Get(ctx context.Context, username string) (hierarchy.Tier, bool, error) {
	name, err := c.client.rdb.Get(ctx, roleKeyPrefix+username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read role cache: %w", err)
	}

	tier, err := hierarchy.Parse(name)
	if err != nil {
		// An unparseable entry is treated as a miss and dropped
		c.client.rdb.Del(ctx, roleKeyPrefix+username)
		return 0, false, nil
	}

	return tier, true, nil
}

// Set stores the tier with a TTL
func (c *RoleCache) Set(ctx context.Context, username string, tier hierarchy.Tier, ttl time.Duration) error {
	if err := c.client.rdb.Set(ctx, roleKeyPrefix+username, tier.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write role cache: %w", err)
	}
	return nil
}

// Invalidate removes the entry
func (c *RoleCache) Invalidate(ctx context.Context, username string) error {
	if err := c.client.rdb.Del(ctx, roleKeyPrefix+username).Err(); err != nil {
		return fmt.Errorf("failed to invalidate role cache: %w", err)
	}
	return nil
}
