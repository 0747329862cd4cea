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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter

	// Auth counters registered at startup
	LoginAttempts   metric.Int64Counter
	TokenRefreshes  metric.Int64Counter
	AuthzDenials    metric.Int64Counter
	SweptTokens     metric.Int64Counter
	RoleCacheHits   metric.Int64Counter
	RoleCacheMisses metric.Int64Counter
}

// New creates a new meter instance and registers the auth instruments.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	var meter metric.Meter
	if !cfg.Enabled {
		meter = otel.Meter("noop")
	} else {
		meter = otel.Meter(serviceName)
	}

	m := &Meter{meter: meter}

	var err error
	if m.LoginAttempts, err = m.counter("auth_login_attempts_total", "Number of sign-in attempts"); err != nil {
		return nil, err
	}
	if m.TokenRefreshes, err = m.counter("auth_token_refreshes_total", "Number of refresh-token exchanges"); err != nil {
		return nil, err
	}
	if m.AuthzDenials, err = m.counter("authz_denials_total", "Number of permission-denied decisions"); err != nil {
		return nil, err
	}
	if m.SweptTokens, err = m.counter("refresh_tokens_swept_total", "Expired refresh tokens removed by sweeps"); err != nil {
		return nil, err
	}
	if m.RoleCacheHits, err = m.counter("role_cache_hits_total", "Role lookup cache hits"); err != nil {
		return nil, err
	}
	if m.RoleCacheMisses, err = m.counter("role_cache_misses_total", "Role lookup cache misses"); err != nil {
		return nil, err
	}

	return m, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

func (m *Meter) counter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// CreateHistogram creates a new histogram metric
func (m *Meter) CreateHistogram(name, description, unit string) (metric.Float64Histogram, error) {
	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return histogram, nil
}
