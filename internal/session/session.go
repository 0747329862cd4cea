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

// Package session orchestrates sign-in, token refresh and sign-out by
// composing identity verification, the stateless token codec and the
// durable refresh lifecycle.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/refresh"
	"github.com/docvault/docvault/internal/token"
)

// Session is the credential bundle handed to a client
type Session struct {
	Token        string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	UserID       string
	Username     string
	Tier         string
}

// Service orchestrates the session lifecycle
type Service struct {
	identity    *identity.Service
	codec       *token.Codec
	refresh     *refresh.Service
	auditLogger audit.Logger
}

// NewService creates a new session service
func NewService(identitySvc *identity.Service, codec *token.Codec, refreshSvc *refresh.Service, auditLogger audit.Logger) *Service {
	return &Service{
		identity:    identitySvc,
		codec:       codec,
		refresh:     refreshSvc,
		auditLogger: auditLogger,
	}
}

// SignIn verifies credentials and establishes a session: a short-lived
// stateless token plus a durable refresh token.
func (s *Service) SignIn(ctx context.Context, username, password, deviceInfo, ipAddress string) (*Session, error) {
	user, err := s.identity.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.refresh.Create(ctx, user.ID, deviceInfo, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	sessionToken, _, err := s.codec.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &Session{
		Token:        sessionToken,
		RefreshToken: refreshToken.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.Lifetime() / time.Second),
		UserID:       user.ID,
		Username:     user.Username,
		Tier:         user.Tier().String(),
	}, nil
}

// Refresh exchanges a live refresh token for a fresh session token.
// The refresh token itself is returned unchanged; its deadline is
// fixed at sign-in and exchanges never extend it.
func (s *Service) Refresh(ctx context.Context, refreshValue string) (*Session, error) {
	stored, err := s.refresh.FindByToken(ctx, refreshValue)
	if err != nil {
		return nil, err
	}

	if err := s.refresh.VerifyExpiration(ctx, stored); err != nil {
		return nil, err
	}

	user, err := s.identity.GetUser(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	sessionToken, _, err := s.codec.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTokenRefreshed,
		ActorID:  user.ID,
		Resource: "session",
	})

	return &Session{
		Token:        sessionToken,
		RefreshToken: stored.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.Lifetime() / time.Second),
		UserID:       user.ID,
		Username:     user.Username,
		Tier:         user.Tier().String(),
	}, nil
}

// SignOut revokes the presented refresh token. Unknown tokens are an
// error so a client cannot mistake a typo for a successful logout.
func (s *Service) SignOut(ctx context.Context, refreshValue string) error {
	if err := s.refresh.RevokeOne(ctx, refreshValue); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLogout,
		Resource: "session",
	})

	return nil
}

// SignOutAll revokes every refresh token the user holds.
func (s *Service) SignOutAll(ctx context.Context, userID string) error {
	return s.refresh.RevokeAll(ctx, userID)
}
