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

// One-shot sweep of expired refresh tokens, for cron-style scheduling
// alongside the in-process sweeper.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/refresh"
	"github.com/docvault/docvault/internal/store/postgres"
)

func main() {
	grace := flag.Duration("grace", 0, "keep tokens expired more recently than this window")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewRefreshTokenRepository(db)
	service := refresh.NewService(repo, noopCache{}, nil, 0, audit.NewSlogLogger())

	removed, err := service.SweepExpired(ctx, time.Now().Add(-*grace))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Removed %d expired refresh tokens.\n", removed)
}

// noopCache satisfies refresh.Cache; swept rows already aged out of
// the mirror via their TTL.
type noopCache struct{}

func (noopCache) Put(ctx context.Context, value, userID string, ttl time.Duration) error {
	return nil
}

func (noopCache) Delete(ctx context.Context, value string) error { return nil }
