// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// docs_cmd.go - Document management command handlers.
//
// Uploads are PDF-only and the extension check runs before the file is
// even opened, so a rejected upload never touches the network.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/docsync"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// HandleDocs handles "docuflow docs [list|upload|process|download|delete]".
func HandleDocs(args Args) error {
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
		docs, err := listDocuments(ctx, app, parser)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println(DimStyle.Render("No documents here. Upload one: docuflow docs upload <file.pdf>"))
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%s  %-10s  %s\n",
				DimStyle.Render(d.ID),
				renderStatus(d.Status),
				d.Name)
		}
		if n := model.CountProcessable(docs); n > 0 {
			fmt.Println(DimStyle.Render(fmt.Sprintf("%d document(s) awaiting processing; run: docuflow docs process --all", n)))
		}
		return nil

	case "upload", "add":
		return handleUpload(ctx, app, parser, args.Quiet)

	case "process":
		return handleProcess(ctx, app, parser)

	case "download", "get":
		id := parser.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow docs download <id> [--output FILE]")
		}
		out := parser.FlagOrDefault("output", id+".pdf")
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		if err := app.Client.DownloadDocument(ctx, id, f); err != nil {
			os.Remove(out)
			return fmt.Errorf("download failed: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Saved to " + out))
		return nil

	case "delete", "rm":
		id := parser.Positional(1)
		if id == "" {
			return errors.New("usage: docuflow docs delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return errors.New("deleting a document is permanent; re-run with --confirm")
		}
		if err := app.Client.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("failed to delete document: %s", api.UserMessage(err))
		}
		fmt.Println(SuccessStyle.Render("Deleted document " + id))
		return nil

	default:
		return fmt.Errorf("unknown docs subcommand: %s", parser.Subcommand())
	}
}

func listDocuments(ctx context.Context, app *App, parser *ArgParser) ([]*model.Document, error) {
	locationID, err := app.LocationID(parser)
	if err != nil {
		return nil, err
	}
	var folder *string
	if id := parser.Flag("folder"); id != "" {
		folder = &id
	}
	var docs []*model.Document
	err = app.Client.WithRetry(ctx, func(ctx context.Context) error {
		var err error
		docs, err = app.Client.ListDocuments(ctx, locationID, folder)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %s", api.UserMessage(err))
	}
	return docs, nil
}

func handleUpload(ctx context.Context, app *App, parser *ArgParser, quiet bool) error {
	path := parser.Positional(1)
	if path == "" {
		return errors.New("usage: docuflow docs upload <file.pdf> [--folder ID]")
	}

	// PDF gate before anything else touches disk or network.
	if !model.IsPDFName(path) {
		return docsync.ErrNotPDF
	}

	locationID, err := app.LocationID(parser)
	if err != nil {
		return err
	}
	var folder *string
	if id := parser.Flag("folder"); id != "" {
		folder = &id
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := app.Client.UploadDocument(ctx, filepath.Base(path), locationID, folder, f)
	if err != nil {
		return fmt.Errorf("upload failed: %s", api.UserMessage(err))
	}

	if !quiet {
		fmt.Println(SuccessStyle.Render("Uploaded " + doc.Name))
	}

	if parser.BoolFlag("no-process") {
		return nil
	}
	if err := app.Client.ProcessDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("uploaded but failed to trigger processing: %s", api.UserMessage(err))
	}
	if !quiet {
		fmt.Println(DimStyle.Render("Processing started for " + doc.ID))
	}
	return nil
}

func handleProcess(ctx context.Context, app *App, parser *ArgParser) error {
	if parser.BoolFlag("all") {
		docs, err := listDocuments(ctx, app, parser)
		if err != nil {
			return err
		}
		count := model.CountProcessable(docs)
		if count == 0 {
			fmt.Println(DimStyle.Render("Nothing to process."))
			return nil
		}
		processed := 0
		for _, d := range docs {
			if !d.Status.Processable() {
				continue
			}
			if err := app.Client.ProcessDocument(ctx, d.ID); err != nil {
				fmt.Println(ErrorStyle.Render(fmt.Sprintf("%s: %s", d.Name, api.UserMessage(err))))
				continue
			}
			processed++
		}
		fmt.Println(SuccessStyle.Render(fmt.Sprintf("Processing started for %d of %d document(s)", processed, count)))
		return nil
	}

	id := parser.Positional(1)
	if id == "" {
		return errors.New("usage: docuflow docs process <id> | --all")
	}
	if err := app.Client.ProcessDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to trigger processing: %s", api.UserMessage(err))
	}
	fmt.Println(SuccessStyle.Render("Processing started for " + id))
	return nil
}

func renderStatus(s model.DocumentStatus) string {
	switch s {
	case model.StatusProcessed:
		return SuccessStyle.Render(string(s))
	case model.StatusFailed:
		return ErrorStyle.Render(string(s))
	case model.StatusProcessing:
		return WarningStyle.Render(string(s))
	default:
		return DimStyle.Render(string(s))
	}
}
