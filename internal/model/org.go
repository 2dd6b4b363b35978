// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Flat administrative records round-tripped through the backend. The client
// never enforces invariants on these beyond required-field checks in forms.

// Organization is a customer tenant.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is a physical or logical site within an organization. Folders
// and documents are scoped by location.
type Location struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PricingPlan is a purchasable plan definition.
type PricingPlan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PriceMonthly  float64 `json:"price_monthly"`
	TokenLimitDay int64   `json:"token_limit_day,omitempty"`
	SeatLimit     int     `json:"seat_limit,omitempty"`
}

// Subscription binds an organization to a pricing plan.
type Subscription struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	PlanID         string     `json:"plan_id"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}
