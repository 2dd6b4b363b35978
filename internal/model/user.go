// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// ROLES
// =============================================================================

// UserRole is the backend-assigned authorization role.
type UserRole string

const (
	RoleEndUser    UserRole = "end_user"
	RoleOrgAdmin   UserRole = "org_admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// LandingTarget returns the view a freshly logged-in user of this role is
// taken to.
func (r UserRole) LandingTarget() string {
	switch r {
	case RoleOrgAdmin, RoleSuperAdmin:
		return "/admin"
	default:
		return "/chat"
	}
}

// =============================================================================
// USER AND PROFILE
// =============================================================================

// User is the authenticated account record.
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Verified bool     `json:"verified"`
	Status   string   `json:"status"`
	Role     UserRole `json:"role"`
}

// Profile extends User with usage counters and location membership.
type Profile struct {
	User

	OrganizationID string     `json:"organization_id,omitempty"`
	PhotoURL       string     `json:"photo_url,omitempty"`
	TokensUsedDay  int64      `json:"tokens_used_day,omitempty"`
	TokenLimitDay  int64      `json:"token_limit_day,omitempty"`
	Locations      []Location `json:"locations,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
}

// TokensRemaining returns the remaining daily token allowance, or -1 when
// the backend reports no limit.
func (p *Profile) TokensRemaining() int64 {
	if p.TokenLimitDay <= 0 {
		return -1
	}
	remaining := p.TokenLimitDay - p.TokensUsedDay
	if remaining < 0 {
		return 0
	}
	return remaining
}
