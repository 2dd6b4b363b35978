// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// admin_cmd.go - Organization administration command handlers.
//
// Admin commands require an org_admin or super_admin account. The role
// check is a convenience only; the backend enforces authorization on
// every endpoint regardless.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// HandleAdmin handles "docuflow admin <orgs|locations|users|plans|subs>".
func HandleAdmin(args Args) error {
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
	if app.Session.Role() == model.RoleEndUser {
		return errors.New("admin commands require an org_admin or super_admin account")
	}

	sub := NewArgParser(parser.PositionalFrom(1))
	switch parser.Subcommand() {
	case "orgs", "organizations":
		return handleAdminOrgs(app, ctx, sub, parser)
	case "locations":
		return handleAdminLocations(app, ctx, sub, parser)
	case "users":
		return handleAdminUsers(app, ctx, sub, parser)
	case "plans":
		return handleAdminPlans(app, ctx)
	case "subs", "subscriptions":
		return handleAdminSubs(app, ctx, sub, parser)
	case "":
		return errors.New("usage: docuflow admin <orgs|locations|users|plans|subs>")
	default:
		return fmt.Errorf("unknown admin subcommand: %s", parser.Subcommand())
	}
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

func handleAdminOrgs(app *App, ctx context.Context, sub *ArgParser, parser *ArgParser) error {
	switch sub.Subcommand() {
	case "", "list", "ls":
		orgs, err := app.Client.ListOrganizations(ctx)
		if err != nil {
			return fmt.Errorf("failed to load organizations: %s", api.UserMessage(err))
		}
		for _, o := range orgs {
			fmt.Printf("%s  %-24s  %s\n", DimStyle.Render(o.ID), o.Name, DimStyle.Render(o.Status))
		}
		return nil

	case "create", "new":
		name := collectName(sub.PositionalFrom(1))
		if name == "" {
			return errors.New("usage: docuflow admin orgs create <name>")
		}
		o, err := app.Client.CreateOrganization(ctx, api.OrganizationRequest{Name: name})
		if err != nil {
			return fmt.Errorf("failed to create organization: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Created organization " + o.ID))
		return nil

	case "delete", "rm":
		id := sub.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow admin orgs delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return errors.New("deleting an organization is permanent; re-run with --confirm")
		}
		if err := app.Client.DeleteOrganization(ctx, id); err != nil {
			return fmt.Errorf("failed to delete organization: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Deleted organization " + id))
		return nil

	default:
		return fmt.Errorf("unknown orgs subcommand: %s", sub.Subcommand())
	}
}

// =============================================================================
// LOCATIONS
// =============================================================================

func handleAdminLocations(app *App, ctx context.Context, sub *ArgParser, parser *ArgParser) error {
	switch sub.Subcommand() {
	case "", "list", "ls":
		locations, err := app.Client.ListLocations(ctx)
		if err != nil {
			return fmt.Errorf("failed to load locations: %s", api.UserMessage(err))
		}
		for _, l := range locations {
			fmt.Printf("%s  %-24s  %s\n", DimStyle.Render(l.ID), l.Name, DimStyle.Render(l.OrganizationID))
		}
		return nil

	case "create", "new":
		name := collectName(sub.PositionalFrom(1))
		if name == "" {
			return errors.New("usage: docuflow admin locations create <name> [--org ID] [--address ADDR]")
		}
		l, err := app.Client.CreateLocation(ctx, api.LocationRequest{
			Name:           name,
			OrganizationID: parser.Flag("org"),
			Address:        parser.Flag("address"),
		})
		if err != nil {
			return fmt.Errorf("failed to create location: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Created location " + l.ID))
		return nil

	case "delete", "rm":
		id := sub.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow admin locations delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return errors.New("deleting a location removes its folders and documents; re-run with --confirm")
		}
		if err := app.Client.DeleteLocation(ctx, id); err != nil {
			return fmt.Errorf("failed to delete location: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Deleted location " + id))
		return nil

	default:
		return fmt.Errorf("unknown locations subcommand: %s", sub.Subcommand())
	}
}

// =============================================================================
// USERS
// =============================================================================

func handleAdminUsers(app *App, ctx context.Context, sub *ArgParser, parser *ArgParser) error {
	switch sub.Subcommand() {
	case "", "list", "ls":
		users, err := app.Client.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %s", api.UserMessage(err))
		}
		for _, u := range users {
			fmt.Printf("%s  %-28s  %-12s  %s\n",
				DimStyle.Render(u.ID), u.Email, string(u.Role), DimStyle.Render(u.Status))
		}
		return nil

	case "create", "new":
		email := sub.Positional(1)
		if email == "" {
			return errors.New("usage: docuflow admin users create <email> [--name NAME] [--role ROLE]")
		}
		u, err := app.Client.CreateUser(ctx, api.AdminUserRequest{
			Email: email,
			Name:  parser.Flag("name"),
			Role:  parser.FlagOrDefault("role", string(model.RoleEndUser)),
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Created user " + u.Email))
		return nil

	case "delete", "rm":
		id := sub.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow admin users delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return errors.New("deleting a user is permanent; re-run with --confirm")
		}
		if err := app.Client.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Deleted user " + id))
		return nil

	default:
		return fmt.Errorf("unknown users subcommand: %s", sub.Subcommand())
	}
}

// =============================================================================
// PLANS AND SUBSCRIPTIONS
// =============================================================================

func handleAdminPlans(app *App, ctx context.Context) error {
	plans, err := app.Client.ListPricingPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plans: %s", api.UserMessage(err))
	}
	for _, p := range plans {
		limit := "unlimited"
		if p.TokenLimitDay > 0 {
			limit = fmt.Sprintf("%d tokens/day", p.TokenLimitDay)
		}
		fmt.Printf("%s  %-16s  $%.2f/mo  %s\n", DimStyle.Render(p.ID), p.Name, p.PriceMonthly, DimStyle.Render(limit))
	}
	return nil
}

func handleAdminSubs(app *App, ctx context.Context, sub *ArgParser, parser *ArgParser) error {
	switch sub.Subcommand() {
	case "", "list", "ls":
		subs, err := app.Client.ListSubscriptions(ctx)
		if err != nil {
			return fmt.Errorf("failed to load subscriptions: %s", api.UserMessage(err))
		}
		for _, s := range subs {
			fmt.Printf("%s  org=%s  plan=%s  %s\n",
				DimStyle.Render(s.ID), s.OrganizationID, s.PlanID, DimStyle.Render(s.Status))
		}
		return nil

	case "create", "new":
		orgID := parser.Flag("org")
		planID := parser.Flag("plan")
		if orgID == "" || planID == "" {
			return errors.New("usage: docuflow admin subs create --org ID --plan ID")
		}
		s, err := app.Client.CreateSubscription(ctx, api.SubscriptionRequest{
			OrganizationID: orgID,
			PlanID:         planID,
		})
		if err != nil {
			return fmt.Errorf("failed to create subscription: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Created subscription " + s.ID))
		return nil

	default:
		return fmt.Errorf("unknown subs subcommand: %s", sub.Subcommand())
	}
}
