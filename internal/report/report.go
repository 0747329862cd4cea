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

// Package report records server-side error reports and aggregates them
// for the operations dashboard.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/id"
)

// ErrReportNotFound is returned when a report does not exist.
var ErrReportNotFound = errors.New("error report not found")

// ErrorReport captures one server-side failure
type ErrorReport struct {
	ID         string
	Message    string
	StackTrace string
	Endpoint   string
	UserID     string
	CreatedAt  time.Time
}

// DayCount is the number of reports recorded on one calendar day
type DayCount struct {
	Day   time.Time
	Count int64
}

// Repository defines the interface for error report persistence
type Repository interface {
	// Create persists a new report
	Create(report *ErrorReport) error

	// ListRecent retrieves the newest reports, newest first
	ListRecent(limit int) ([]*ErrorReport, error)

	// CountsByDay aggregates reports per calendar day since the cutoff
	CountsByDay(since time.Time) ([]DayCount, error)
}

// Service records and summarizes error reports
type Service struct {
	repo Repository
}

// NewService creates a new report service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores a new error report.
func (s *Service) Record(ctx context.Context, message, stackTrace, endpoint, userID string) (*ErrorReport, error) {
	report := &ErrorReport{
		ID:         id.NewUUIDv7(),
		Message:    message,
		StackTrace: stackTrace,
		Endpoint:   endpoint,
		UserID:     userID,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(report); err != nil {
		return nil, fmt.Errorf("failed to record error report: %w", err)
	}
	return report, nil
}

// Recent returns the newest reports.
func (s *Service) Recent(ctx context.Context, limit int) ([]*ErrorReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListRecent(limit)
}

// DailyCounts aggregates reports per day over the last given number of
// days.
func (s *Service) DailyCounts(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.repo.CountsByDay(since)
}
