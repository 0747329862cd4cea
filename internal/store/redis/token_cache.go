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
	"fmt"
	"time"
)

const tokenKeyPrefix = "refresh_token:"

// TokenCache implements refresh.Cache. Each live refresh token is
// mirrored as refresh_token:<value> -> userID with the token's TTL, so
// the mirror ages out on its own even if a delete is missed.
type TokenCache struct {
	client *Client
}

// NewTokenCache creates a new token cache
func NewTokenCache(client *Client) *TokenCache {
	return &TokenCache{client: client}
}

// Put stores the token -> user mapping with a TTL
func (c *TokenCache) Put(ctx context.Context, value, userID string, ttl time.Duration) error {
	if err := c.client.rdb.Set(ctx, tokenKeyPrefix+value, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to mirror refresh token: %w", err)
	}
	return nil
}

// Delete removes the mapping
func (c *TokenCache) Delete(ctx context.Context, value string) error {
	if err := c.client.rdb.Del(ctx, tokenKeyPrefix+value).Err(); err != nil {
		return fmt.Errorf("failed to drop refresh token mirror: %w", err)
	}
	return nil
}
