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

	"github.com/docvault/docvault/internal/hierarchy"
)

// TierRepository implements identity.TierRepository
type TierRepository struct {
	db *DB
}

// NewTierRepository creates a new tier repository
func NewTierRepository(db *DB) *TierRepository {
	return &TierRepository{db: db}
}

// Ensure inserts the tier row if it does not exist
func (r *TierRepository) Ensure(tier hierarchy.Tier) error {
	ctx := context.Background()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tiers (level, name, label)
		VALUES ($1, $2, $3)
		ON CONFLICT (level) DO NOTHING
	`, tier.Level(), tier.String(), tier.Label())
	if err != nil {
		return fmt.Errorf("failed to ensure tier: %w", err)
	}

	return nil
}

// Count returns the number of tier rows present
func (r *TierRepository) Count() (int, error) {
	ctx := context.Background()

	var count int
	err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tiers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tiers: %w", err)
	}

	return count, nil
}
