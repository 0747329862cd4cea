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

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docvault/docvault/internal/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SignInRequest represents sign-in credentials
type SignInRequest struct {
	Username string `json:"username" example:"staff01"`
	Password string `json:"password" example:"secret123"`
}

// SessionResponse represents an established session
type SessionResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Username     string `json:"username"`
	Tier         string `json:"tier"`
}

// RefreshRequest carries the refresh credential
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignIn establishes a session
// @Summary Sign in
// @Description Verify credentials and return session and refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]string
// @Router /auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	sess, err := h.sessionService.SignIn(r.Context(), req.Username, req.Password,
		r.UserAgent(), getIPAddress(r))

	h.countLogin(r.Context(), err == nil)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

// Refresh exchanges a refresh token for a new session token
// @Summary Refresh session
// @Description Exchange a live refresh token for a fresh session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	sess, err := h.sessionService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if h.meter != nil {
		h.meter.TokenRefreshes.Add(r.Context(), 1)
	}

	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

// SignOut revokes the presented refresh token
// @Summary Sign out
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /auth/signout [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	if err := h.sessionService.SignOut(r.Context(), req.RefreshToken); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SignOutAll revokes every refresh token of the current user
// @Summary Sign out everywhere
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 204
// @Router /auth/signout-all [post]
func (h *Handler) SignOutAll(w http.ResponseWriter, r *http.Request) {
	username := GetUsername(r.Context())

	user, err := h.identityService.GetByUsername(r.Context(), username)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := h.sessionService.SignOutAll(r.Context(), user.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentUser returns the authenticated user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	username := GetUsername(r.Context())

	user, err := h.identityService.GetByUsername(r.Context(), username)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":                user.ID,
		"username":          user.Username,
		"email":             user.Email,
		"tier":              user.Tier().String(),
		"tier_level":        user.Tier().Level(),
		"is_active":         user.IsActive,
		"is_email_verified": user.IsEmailVerified,
	})
}

func sessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		Token:        sess.Token,
		RefreshToken: sess.RefreshToken,
		TokenType:    sess.TokenType,
		ExpiresIn:    sess.ExpiresIn,
		Username:     sess.Username,
		Tier:         sess.Tier,
	}
}

func (h *Handler) countLogin(ctx context.Context, success bool) {
	if h.meter == nil {
		return
	}
	h.meter.LoginAttempts.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("success", success)))
}
