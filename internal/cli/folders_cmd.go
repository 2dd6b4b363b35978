// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// folders_cmd.go - Folder management command handlers.
//
// All folder operations are scoped to a location (--location flag or the
// configured default). Name validation happens before any request goes
// out, so a missing name never costs a round trip.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// ErrFolderNameRequired rejects create/rename with an empty name.
var ErrFolderNameRequired = errors.New("Folder name is required")

// HandleFolders handles "docuflow folders [list|tree|create|rename|delete]".
func HandleFolders(args Args) error {
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
	case "", "list", "ls":
		locationID, err := app.LocationID(parser)
		if err != nil {
			return err
		}
		var parent *string
		if id := parser.Flag("parent"); id != "" {
			parent = &id
		}
		var folders []*model.Folder
		err = app.Client.WithRetry(ctx, func(ctx context.Context) error {
			var err error
			folders, err = app.Client.ListFolders(ctx, locationID, parent)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to load folders: %s", api.UserMessage(err))
		}
		if len(folders) == 0 {
			fmt.Println(DimStyle.Render("No folders here."))
			return nil
		}
		for _, f := range folders {
			fmt.Printf("%s  %s\n", DimStyle.Render(f.ID), f.Name)
		}
		return nil

	case "tree":
		locationID, err := app.LocationID(parser)
		if err != nil {
			return err
		}
		var flat []*model.Folder
		err = app.Client.WithRetry(ctx, func(ctx context.Context) error {
			var err error
			flat, err = app.Client.FolderTree(ctx, locationID)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to load folder tree: %s", api.UserMessage(err))
		}
		roots := model.BuildFolderTree(flat)
		if len(roots) == 0 {
			fmt.Println(DimStyle.Render("No folders here."))
			return nil
		}
		for _, root := range roots {
			printFolderTree(root, 0)
		}
		return nil

	case "create", "new":
		name := collectName(parser.PositionalFrom(1))
		if name == "" {
			return ErrFolderNameRequired
		}
		locationID, err := app.LocationID(parser)
		if err != nil {
			return err
		}
		req := api.FolderRequest{Name: name, LocationID: locationID}
		if id := parser.Flag("parent"); id != "" {
			req.ParentFolderID = &id
		}
		f, err := app.Client.CreateFolder(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create folder: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Created folder " + f.ID))
		return nil

	case "rename", "mv":
		id := parser.Positional(1)
		name := collectName(parser.PositionalFrom(2))
		if id == "" {
			return errors.New("usage: docuflow folders rename <id> <name>")
		}
		if name == "" {
			return ErrFolderNameRequired
		}
		f, err := app.Client.RenameFolder(ctx, id, name)
		if err != nil {
			return fmt.Errorf("failed to rename folder: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Renamed folder to " + f.Name))
		return nil

	case "delete", "rm":
		id := parser.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow folders delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return errors.New("deleting a folder removes its documents; re-run with --confirm")
		}
		if err := app.Client.DeleteFolder(ctx, id); err != nil {
			return fmt.Errorf("failed to delete folder: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Deleted folder " + id))
		return nil

	default:
		return fmt.Errorf("unknown folders subcommand: %s", parser.Subcommand())
	}
}

func printFolderTree(f *model.Folder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s  %s\n", indent, f.Name, DimStyle.Render(f.ID))
	for _, doc := range f.Documents {
		fmt.Printf("%s  %s %s\n", indent, DimStyle.Render("·"), doc.Name)
	}
	for _, child := range f.Folders {
		printFolderTree(child, depth+1)
	}
}
