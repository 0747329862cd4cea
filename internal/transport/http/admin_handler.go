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
	"net/http"
	"strconv"

	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/identity"
	"github.com/go-chi/chi/v5"
)

// UserResponse represents a user for the admin surface
type UserResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	IsActive        bool   `json:"is_active"`
	IsEmailVerified bool   `json:"is_email_verified"`
	Tier            string `json:"tier"`
	TierLevel       int    `json:"tier_level"`
	TierAssigned    bool   `json:"tier_assigned"`
}

func userResponse(user *identity.User) UserResponse {
	_, assigned := user.Role.Assigned()
	return UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Phone:           user.Phone,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		Tier:            user.Tier().String(),
		TierLevel:       user.Tier().Level(),
		TierAssigned:    assigned,
	}
}

// ListUsers lists all users
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Failure 403 {object} map[string]string
// @Router /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identityService.ListUsers(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, userResponse(user))
	}
	respondJSON(w, http.StatusOK, out)
}

// GetUser returns one user
// @Summary Get user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, userResponse(user))
}

// CreateUserRequest represents a new user account
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// CreateUser provisions a user account
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} UserResponse
// @Failure 409 {object} map[string]string
// @Router /admin/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.identityService.CreateUser(r.Context(), req.Username, req.Email, req.Phone, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, userResponse(user))
}

// AssignRoleRequest names the tier to assign
type AssignRoleRequest struct {
	Tier string `json:"tier" example:"MANAGER"`
}

// AssignRole sets a user's tier
// @Summary Assign role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body AssignRoleRequest true "Tier"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /admin/users/{id}/role [put]
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := decodeJSON(r, &req); err != nil || req.Tier == "" {
		respondError(w, http.StatusBadRequest, "tier is required")
		return
	}

	tier, err := hierarchy.Parse(req.Tier)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown tier")
		return
	}

	if err := h.identityService.AssignTier(r.Context(), chi.URLParam(r, "id"), tier); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveRole drops a user's explicit tier
// @Summary Remove role
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id}/role [delete]
func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	if err := h.identityService.RemoveTier(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetActiveRequest toggles account activity
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SetUserActive activates or deactivates an account
// @Summary Set user active
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body SetActiveRequest true "Activity"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id}/active [put]
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.identityService.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ErrorReportRequest describes a client-observed server failure
type ErrorReportRequest struct {
	Message    string `json:"message"`
	StackTrace string `json:"stack_trace"`
	Endpoint   string `json:"endpoint"`
}

// CreateErrorReport records an error report
// @Summary Report an error
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ErrorReportRequest true "Error report"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /reports/errors [post]
func (h *Handler) CreateErrorReport(w http.ResponseWriter, r *http.Request) {
	var req ErrorReportRequest
	if err := decodeJSON(r, &req); err != nil || req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	var userID string
	if user, err := h.identityService.GetByUsername(r.Context(), GetUsername(r.Context())); err == nil {
		userID = user.ID
	}

	created, err := h.reportService.Record(r.Context(), req.Message, req.StackTrace, req.Endpoint, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// ListErrorReports lists recent error reports
// @Summary List error reports
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum reports to return"
// @Success 200 {array} map[string]any
// @Router /admin/reports/errors [get]
func (h *Handler) ListErrorReports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.reportService.Recent(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reports)
}

// ErrorReportCounts aggregates error reports per day
// @Summary Error report daily counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days"
// @Success 200 {array} map[string]any
// @Router /admin/reports/errors/daily [get]
func (h *Handler) ErrorReportCounts(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	counts, err := h.reportService.DailyCounts(r.Context(), days)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, counts)
}
