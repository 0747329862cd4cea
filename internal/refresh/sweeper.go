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
	"log/slog"
	"time"
)

// Sweeper runs the periodic cleanup of expired refresh tokens. Two
// schedules run concurrently: a daily sweep removing everything past
// its deadline, and an hourly sweep with a one-hour grace window so a
// token caught mid-exchange is not yanked out from under the handler.
type Sweeper struct {
	service     *Service
	dailyEvery  time.Duration
	hourlyEvery time.Duration
	hourlyGrace time.Duration
	onSwept     func(count int64)
}

// NewSweeper creates a sweeper with the default schedules.
func NewSweeper(service *Service) *Sweeper {
	return &Sweeper{
		service:     service,
		dailyEvery:  24 * time.Hour,
		hourlyEvery: time.Hour,
		hourlyGrace: time.Hour,
	}
}

// WithIntervals overrides the schedules for testing.
func (s *Sweeper) WithIntervals(daily, hourly, grace time.Duration) *Sweeper {
	s.dailyEvery = daily
	s.hourlyEvery = hourly
	s.hourlyGrace = grace
	return s
}

// OnSwept registers a callback invoked with the removed count after
// each sweep, used for metrics.
func (s *Sweeper) OnSwept(fn func(count int64)) *Sweeper {
	s.onSwept = fn
	return s
}

// Run starts both sweep loops and blocks until the context is
// cancelled. Sweep failures are logged and the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	dailyTicker := time.NewTicker(s.dailyEvery)
	hourlyTicker := time.NewTicker(s.hourlyEvery)
	defer dailyTicker.Stop()
	defer hourlyTicker.Stop()

	slog.InfoContext(ctx, "refresh token sweeper started",
		slog.Duration("daily_interval", s.dailyEvery),
		slog.Duration("hourly_interval", s.hourlyEvery))

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "refresh token sweeper stopped")
			return
		case <-dailyTicker.C:
			s.sweep(ctx, time.Now())
		case <-hourlyTicker.C:
			s.sweep(ctx, time.Now().Add(-s.hourlyGrace))
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, cutoff time.Time) {
	removed, err := s.service.SweepExpired(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "refresh token sweep failed",
			slog.String("error", err.Error()))
		return
	}
	if s.onSwept != nil {
		s.onSwept(removed)
	}
}
