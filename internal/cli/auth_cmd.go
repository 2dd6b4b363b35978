// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Account and session command handlers.
//
// Commands: login, signup, verify, forgot-password, reset-password,
// logout, profile.
//
// Login works against the backend, or against the built-in demo accounts
// (user@example.com, admin@example.com, super@example.com with password
// "password") which never touch the network and are never persisted.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/session"
)

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

// HandleLogin handles "docuflow login [email]".
func HandleLogin(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	email := parser.Positional(0)
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return errors.New("email is required")
	}

	password := parser.Flag("password")
	if password == "" {
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("password is required")
	}

	ctx, cancel := app.Context()
	defer cancel()

	profile, err := app.Session.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, session.ErrBadCredentials) {
			return err
		}
		return fmt.Errorf("login failed: %s", api.UserMessage(err))
	}

	if !args.Quiet {
		fmt.Println(SuccessStyle.Render("Logged in as " + profile.Email))
		fmt.Println(RenderLabel("Role:", string(profile.Role)))
		switch profile.Role.LandingTarget() {
		case "/admin":
			fmt.Println(DimStyle.Render("Next: docuflow admin"))
		default:
			fmt.Println(DimStyle.Render("Next: docuflow chat"))
		}
	}
	return nil
}

// HandleLogout handles "docuflow logout".
func HandleLogout(args Args) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()

	// Best effort restore so the backend logout carries the token.
	_ = app.Session.Restore(ctx)

	if err := app.Session.Logout(ctx); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			fmt.Println(DimStyle.Render("Not logged in."))
			return nil
		}
		return err
	}

	if !args.Quiet {
		fmt.Println(SuccessStyle.Render("Logged out."))
	}
	return nil
}

// =============================================================================
// SIGNUP AND VERIFICATION
// =============================================================================

// HandleSignup handles "docuflow signup <email> [--name NAME]".
func HandleSignup(args Args) error {
	parser := NewArgParser(args.Raw)

	email := parser.Positional(0)
	if email == "" {
		return errors.New("usage: docuflow signup <email> [--name NAME]")
	}

	name := parser.Flag("name")
	if name == "" {
		var err error
		name, err = promptLine("Name: ")
		if err != nil {
			return err
		}
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()

	user, err := app.Client.Signup(ctx, api.SignupRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %s", api.UserMessage(err))
	}

	// Remember which address still needs its code so "docuflow verify"
	// works without repeating the email.
	app.Session.SetPendingVerification(user.Email)

	fmt.Println(SuccessStyle.Render("Account created for " + user.Email))
	fmt.Println(DimStyle.Render("Check your inbox for a verification code, then run: docuflow verify <code>"))
	return nil
}

// HandleVerify handles "docuflow verify <code>" and "docuflow verify resend".
func HandleVerify(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()
	_ = app.Session.Restore(ctx)

	email := parser.Flag("email")
	if email == "" {
		email = app.Session.PendingVerification()
	}
	if email == "" {
		return errors.New("no pending verification; pass --email")
	}

	if parser.Subcommand() == "resend" {
		if err := app.Client.RegenerateVerificationCode(ctx, email); err != nil {
			return fmt.Errorf("failed to resend code: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Verification code resent to " + email))
		return nil
	}

	code := parser.Positional(0)
	if code == "" {
		return errors.New("usage: docuflow verify <code> [--email ADDR]")
	}

	if err := app.Client.VerifyEmail(ctx, email, code); err != nil {
		return fmt.Errorf("verification failed: %s", api.UserMessage(err))
	}

	app.Session.SetPendingVerification("")
	fmt.Println(SuccessStyle.Render("Email verified. You can now log in: docuflow login " + email))
	return nil
}

// =============================================================================
// PASSWORD RESET
// =============================================================================

// HandleForgotPassword handles "docuflow forgot-password <email>".
func HandleForgotPassword(args Args) error {
	parser := NewArgParser(args.Raw)

	email := parser.Positional(0)
	if email == "" {
		return errors.New("usage: docuflow forgot-password <email>")
	}

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()

	if err := app.Client.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("reset request failed: %s", api.UserMessage(err))
	}

	app.Session.SetPendingReset(email)
	fmt.Println(SuccessStyle.Render("Reset code sent to " + email))
	fmt.Println(DimStyle.Render("Next: docuflow reset-password <code>"))
	return nil
}

// HandleResetPassword handles "docuflow reset-password <code> [--email ADDR]".
func HandleResetPassword(args Args) error {
	parser := NewArgParser(args.Raw)

	code := parser.Positional(0)
	if code == "" {
		return errors.New("usage: docuflow reset-password <code> [--email ADDR]")
	}

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()
	_ = app.Session.Restore(ctx)

	email := parser.Flag("email")
	if email == "" {
		email = app.Session.PendingReset()
	}
	if email == "" {
		return errors.New("no pending reset; pass --email")
	}

	password, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if err := app.Client.ResetPassword(ctx, email, code, password); err != nil {
		return fmt.Errorf("password reset failed: %s", api.UserMessage(err))
	}

	app.Session.SetPendingReset("")
	fmt.Println(SuccessStyle.Render("Password updated. Log in with: docuflow login " + email))
	return nil
}

// =============================================================================
// PROFILE
// =============================================================================

// HandleProfile handles "docuflow profile [set-name NAME | photo FILE]".
func HandleProfile(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()

	if err := app.RequireAuth(ctx); err != nil {
		return err
	}

	switch parser.Subcommand() {
	case "", "show":
		return printProfile(app)

	case "set-name":
		name := collectName(parser.PositionalFrom(1))
		if name == "" {
			return errors.New("usage: docuflow profile set-name <name>")
		}
		profile, err := app.Client.UpdateProfile(ctx, api.ProfileUpdate{Name: &name})
		if err != nil {
			return fmt.Errorf("failed to update profile: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Name updated to " + profile.Name))
		return nil

	case "photo":
		path := parser.Positional(1)
		if path == "" {
			return errors.New("usage: docuflow profile photo <file>")
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		if err := app.Client.UploadProfilePhoto(ctx, filepath.Base(path), f); err != nil {
			return fmt.Errorf("photo upload failed: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Profile photo updated."))
		return nil

	default:
		return fmt.Errorf("unknown profile subcommand: %s", parser.Subcommand())
	}
}

func printProfile(app *App) error {
	profile := app.Session.Profile()
	if profile == nil {
		return errors.New("profile unavailable")
	}

	fmt.Println(TitleStyle.Render("Profile"))
	fmt.Println(RenderLabel("Email:", profile.Email))
	fmt.Println(RenderLabel("Name:", profile.Name))
	fmt.Println(RenderLabel("Role:", string(profile.Role)))
	if profile.OrganizationID != "" {
		fmt.Println(RenderLabel("Organization:", profile.OrganizationID))
	}
	if remaining := profile.TokensRemaining(); remaining >= 0 {
		fmt.Println(RenderLabel("Tokens left:", fmt.Sprintf("%d today", remaining)))
	} else {
		fmt.Println(RenderLabel("Tokens left:", "no daily limit"))
	}
	if len(profile.Locations) > 0 {
		names := make([]string, 0, len(profile.Locations))
		for _, loc := range profile.Locations {
			names = append(names, loc.Name)
		}
		fmt.Println(RenderLabel("Locations:", strings.Join(names, ", ")))
	}
	if app.Session.IsLocal() {
		fmt.Println(DimStyle.Render("(demo account, not persisted)"))
	}
	return nil
}
