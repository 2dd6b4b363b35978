// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Signup registers a new account. The account starts unverified; the
// backend emails a verification code.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for an access token. The endpoint is
// form-encoded with username/password fields, unlike the rest of the API.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	var tok TokenResponse
	if err := c.doForm(ctx, http.MethodPost, "/auth/login", form, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// VerifyEmail confirms an account with the emailed code.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.doJSON(ctx, http.MethodPost, "/auth/verify-email", body, nil)
}

// RegenerateVerificationCode requests a fresh verification code.
func (c *Client) RegenerateVerificationCode(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/auth/regenerate-verification-code", body, nil)
}

// ForgotPassword starts the reset flow for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", body, nil)
}

// ResetPassword completes the reset flow with the emailed code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{"email": email, "code": code, "password": newPassword}
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// Logout invalidates the token server-side. Local teardown happens in the
// session holder regardless of whether this call succeeds.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// =============================================================================
// PROFILE ENDPOINTS
// =============================================================================

// Profile fetches the extended profile of the authenticated user.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile patches profile fields.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*model.Profile, error) {
	var profile model.Profile
	if err := c.doJSON(ctx, http.MethodPatch, "/profile", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UploadProfilePhoto uploads a profile photo as multipart form data.
func (c *Client) UploadProfilePhoto(ctx context.Context, filename string, r io.Reader) error {
	body, contentType, err := multipartBody("photo", filename, r, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/profile/photo", body, contentType, c.uploadTimeout, nil)
}
