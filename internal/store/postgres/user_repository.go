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
	"database/sql"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/identity"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements identity.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(user *identity.User) error {
	ctx := context.Background()
	now := time.Now()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (
			id, username, email, phone, password_hash,
			is_active, is_email_verified, role_level,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.ID, user.Username, user.Email, user.Phone, user.PasswordHash,
		user.IsActive, user.IsEmailVerified, roleLevel(user.Role),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id string) (*identity.User, error) {
	return r.get(`WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(username string) (*identity.User, error) {
	return r.get(`WHERE username = $1`, username)
}

func (r *UserRepository) get(where string, arg any) (*identity.User, error) {
	ctx := context.Background()

	var user identity.User
	var level sql.NullInt32

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, username, email, phone, password_hash,
			is_active, is_email_verified, role_level,
			created_at, updated_at
		FROM users
	`+where, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.Phone, &user.PasswordHash,
		&user.IsActive, &user.IsEmailVerified, &level,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = roleRef(level)

	return &user, nil
}

// List retrieves all users
func (r *UserRepository) List() ([]*identity.User, error) {
	ctx := context.Background()

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, username, email, phone, password_hash,
			is_active, is_email_verified, role_level,
			created_at, updated_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		var user identity.User
		var level sql.NullInt32

		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.Phone, &user.PasswordHash,
			&user.IsActive, &user.IsEmailVerified, &level,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user.Role = roleRef(level)
		users = append(users, &user)
	}

	return users, rows.Err()
}

// Update persists mutable user fields
func (r *UserRepository) Update(user *identity.User) error {
	ctx := context.Background()

	result, err := r.db.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			phone = $3,
			password_hash = $4,
			is_active = $5,
			is_email_verified = $6,
			role_level = $7,
			updated_at = NOW()
		WHERE id = $1
	`,
		user.ID, user.Email, user.Phone, user.PasswordHash,
		user.IsActive, user.IsEmailVerified, roleLevel(user.Role),
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}

	return nil
}

// roleLevel maps a RoleRef to its nullable database representation.
func roleLevel(role identity.RoleRef) *int {
	if tier, ok := role.Assigned(); ok {
		level := tier.Level()
		return &level
	}
	return nil
}

// roleRef maps a nullable level column back to a RoleRef.
func roleRef(level sql.NullInt32) identity.RoleRef {
	if level.Valid {
		return identity.AssignedRole(hierarchy.Tier(level.Int32))
	}
	return identity.UnassignedRole()
}
