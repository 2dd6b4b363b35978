// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// Administrative CRUD. Flat records with standard lifecycles; the backend
// enforces all authorization, the client only relays.

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// ListOrganizations returns all organizations visible to the caller.
func (c *Client) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	var orgs []*model.Organization
	if err := c.doJSON(ctx, http.MethodGet, "/organizations/", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// CreateOrganization creates a tenant.
func (c *Client) CreateOrganization(ctx context.Context, req OrganizationRequest) (*model.Organization, error) {
	var org model.Organization
	if err := c.doJSON(ctx, http.MethodPost, "/organizations/", req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// UpdateOrganization updates a tenant.
func (c *Client) UpdateOrganization(ctx context.Context, id string, req OrganizationRequest) (*model.Organization, error) {
	var org model.Organization
	if err := c.doJSON(ctx, http.MethodPatch, "/organizations/"+id, req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// DeleteOrganization removes a tenant.
func (c *Client) DeleteOrganization(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/organizations/"+id, nil, nil)
}

// =============================================================================
// PRICING PLANS AND SUBSCRIPTIONS
// =============================================================================

// ListPricingPlans returns the available plans.
func (c *Client) ListPricingPlans(ctx context.Context) ([]*model.PricingPlan, error) {
	var plans []*model.PricingPlan
	if err := c.doJSON(ctx, http.MethodGet, "/organizations/pricing-plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// ListSubscriptions returns subscriptions, optionally all tenants' for
// super admins.
func (c *Client) ListSubscriptions(ctx context.Context) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	if err := c.doJSON(ctx, http.MethodGet, "/organizations/subscriptions", nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// CreateSubscription binds an organization to a plan.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*model.Subscription, error) {
	var sub model.Subscription
	if err := c.doJSON(ctx, http.MethodPost, "/organizations/subscriptions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscription changes a subscription's plan or status.
func (c *Client) UpdateSubscription(ctx context.Context, id string, req SubscriptionRequest) (*model.Subscription, error) {
	var sub model.Subscription
	if err := c.doJSON(ctx, http.MethodPatch, "/organizations/subscriptions/"+id, req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// =============================================================================
// LOCATIONS
// =============================================================================

// ListLocations returns locations visible to the caller.
func (c *Client) ListLocations(ctx context.Context) ([]*model.Location, error) {
	var locs []*model.Location
	if err := c.doJSON(ctx, http.MethodGet, "/locations/", nil, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

// CreateLocation creates a location.
func (c *Client) CreateLocation(ctx context.Context, req LocationRequest) (*model.Location, error) {
	var loc model.Location
	if err := c.doJSON(ctx, http.MethodPost, "/locations/", req, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// UpdateLocation updates a location.
func (c *Client) UpdateLocation(ctx context.Context, id string, req LocationRequest) (*model.Location, error) {
	var loc model.Location
	if err := c.doJSON(ctx, http.MethodPatch, "/locations/"+id, req, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// DeleteLocation removes a location.
func (c *Client) DeleteLocation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/locations/"+id, nil, nil)
}

// =============================================================================
// USERS (ADMIN)
// =============================================================================

// ListUsers returns managed users.
func (c *Client) ListUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser invites a user into the organization.
func (c *Client) CreateUser(ctx context.Context, req AdminUserRequest) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/users/", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates a managed user.
func (c *Client) UpdateUser(ctx context.Context, id string, req AdminUserRequest) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPatch, "/users/"+id, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a managed user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+id, nil, nil)
}
