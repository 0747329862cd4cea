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

	"github.com/docvault/docvault/internal/report"
)

// ReportRepository implements report.Repository
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a new report
func (r *ReportRepository) Create(rep *report.ErrorReport) error {
	ctx := context.Background()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO error_reports (id, message, stack_trace, endpoint, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rep.ID, rep.Message, rep.StackTrace, rep.Endpoint, rep.UserID, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert error report: %w", err)
	}

	return nil
}

// ListRecent retrieves the newest reports, newest first
func (r *ReportRepository) ListRecent(limit int) ([]*report.ErrorReport, error) {
	ctx := context.Background()

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, message, stack_trace, endpoint, user_id, created_at
		FROM error_reports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list error reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.ErrorReport
	for rows.Next() {
		var rep report.ErrorReport
		if err := rows.Scan(&rep.ID, &rep.Message, &rep.StackTrace, &rep.Endpoint, &rep.UserID, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan error report: %w", err)
		}
		reports = append(reports, &rep)
	}

	return reports, rows.Err()
}

// CountsByDay aggregates reports per calendar day since the cutoff
func (r *ReportRepository) CountsByDay(since time.Time) ([]report.DayCount, error) {
	ctx := context.Background()

	rows, err := r.db.pool.Query(ctx, `
		SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*)
		FROM error_reports
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate error reports: %w", err)
	}
	defer rows.Close()

	var counts []report.DayCount
	for rows.Next() {
		var dc report.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		counts = append(counts, dc)
	}

	return counts, rows.Err()
}
