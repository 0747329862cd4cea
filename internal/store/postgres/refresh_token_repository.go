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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/refresh"
	"github.com/jackc/pgx/v5"
)

// RefreshTokenRepository implements refresh.Repository
type RefreshTokenRepository struct {
	db *DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create persists a new refresh token
func (r *RefreshTokenRepository) Create(token *refresh.Token) error {
	ctx := context.Background()
	now := time.Now()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (
			id, token, user_id, expires_at, created_at,
			revoked, device_info, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		token.ID, token.Token, token.UserID, token.ExpiresAt, now,
		token.Revoked, token.DeviceInfo, token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}

	token.CreatedAt = now

	return nil
}

// GetByToken retrieves a token by its opaque string value
func (r *RefreshTokenRepository) GetByToken(value string) (*refresh.Token, error) {
	ctx := context.Background()

	var token refresh.Token
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, token, user_id, expires_at, created_at,
			revoked, device_info, ip_address
		FROM refresh_tokens
		WHERE token = $1
	`, value).Scan(
		&token.ID, &token.Token, &token.UserID, &token.ExpiresAt, &token.CreatedAt,
		&token.Revoked, &token.DeviceInfo, &token.IPAddress,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, refresh.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &token, nil
}

// Revoke marks one token revoked
func (r *RefreshTokenRepository) Revoke(value string) error {
	ctx := context.Background()

	result, err := r.db.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE token = $1
	`, value)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return refresh.ErrTokenNotFound
	}

	return nil
}

// RevokeAllForUser marks every live token for a user revoked and
// returns the revoked token values
func (r *RefreshTokenRepository) RevokeAllForUser(userID string) ([]string, error) {
	ctx := context.Background()

	rows, err := r.db.pool.Query(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE user_id = $1 AND revoked = FALSE
		RETURNING token
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		values = append(values, value)
	}

	return values, rows.Err()
}

// DeleteByToken removes one token row
func (r *RefreshTokenRepository) DeleteByToken(value string) error {
	ctx := context.Background()

	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE token = $1
	`, value)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// DeleteExpiredBefore removes all rows whose deadline is strictly
// before the cutoff
func (r *RefreshTokenRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	ctx := context.Background()

	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
