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

// Package token issues and verifies the short-lived session tokens.
// Tokens are self-contained HS256 JWTs; validity is decided entirely by
// signature and embedded expiry, with no server-side record.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Domain errors
var (
	ErrTokenEmpty       = errors.New("token is empty")
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenUnsupported = errors.New("token signing scheme is unsupported")
	ErrTokenInvalid     = errors.New("token signature is invalid")
)

// Codec signs and verifies session tokens with a shared symmetric secret.
type Codec struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewCodec creates a codec for the given signing secret and token lifetime.
func NewCodec(secret []byte, lifetime time.Duration) *Codec {
	return &Codec{
		secret:   secret,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// WithClock overrides the codec clock. Used by tests to step across expiry.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Lifetime returns the configured validity window.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue mints a signed token for subject, valid from now for the
// configured lifetime. Pure function of (subject, clock, secret).
func (c *Codec) Issue(subject string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.lifetime)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded subject.
// No external store is consulted; correctness relies on signature
// integrity and clock agreement between issuer and verifier.
func (c *Codec) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenEmpty
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)

	var claims jwt.RegisteredClaims
	parsed, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			// A disallowed alg is rejected before signature checking
			// and surfaces under the same sentinel; the parsed header
			// tells the two cases apart.
			if parsed != nil && parsed.Method != nil && parsed.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return "", ErrTokenUnsupported
			}
			return "", ErrTokenInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenUnverifiable):
			return "", ErrTokenUnsupported
		default:
			return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	return claims.Subject, nil
}

// RemainingLifetime returns embedded expiry minus now. The result may be
// negative; callers must treat a negative duration as already expired.
// The signature is still verified, but expiry itself is not enforced.
func (c *Codec) RemainingLifetime(tokenString string) (time.Duration, error) {
	if tokenString == "" {
		return 0, ErrTokenEmpty
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return 0, ErrTokenMalformed
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil {
		return 0, ErrTokenMalformed
	}

	return claims.ExpiresAt.Time.Sub(c.now()), nil
}
