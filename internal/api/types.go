// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// Request payloads for the mutating endpoints. Response shapes live in the
// model package; these stay here because only the wire layer sees them.

// SignupRequest creates an account.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// ProfileUpdate carries the PATCHable profile fields; nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name *string `json:"name,omitempty"`
}

// sendMessageRequest posts a user message to the streaming endpoint.
type sendMessageRequest struct {
	Content string `json:"content"`
}

// createChatRequest names a new chat.
type createChatRequest struct {
	Name string `json:"name"`
}

// FolderRequest creates or renames a folder.
type FolderRequest struct {
	Name           string  `json:"name"`
	LocationID     string  `json:"location_id,omitempty"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
}

// OrganizationRequest creates or updates an organization.
type OrganizationRequest struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// LocationRequest creates or updates a location.
type LocationRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id,omitempty"`
	Address        string `json:"address,omitempty"`
}

// AdminUserRequest creates or updates a managed user.
type AdminUserRequest struct {
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	Role           string `json:"role,omitempty"`
	Status         string `json:"status,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	LocationIDs    []string `json:"location_ids,omitempty"`
}

// SubscriptionRequest creates or updates a subscription.
type SubscriptionRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	PlanID         string `json:"plan_id,omitempty"`
	Status         string `json:"status,omitempty"`
}
