// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// sync_cmd.go - Watched-directory PDF upload command handlers.
//
// "sync once" scans the configured directory and uploads anything new;
// "sync watch" keeps running and uploads files as they settle.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/docsync"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// noProcessUploader uploads without triggering processing, for setups
// where processing is kicked off manually (sync.process_after_upload=false).
type noProcessUploader struct {
	client *api.Client
}

func (u noProcessUploader) UploadDocument(ctx context.Context, name, locationID string, folderID *string, file io.Reader) (*model.Document, error) {
	return u.client.UploadDocument(ctx, name, locationID, folderID, file)
}

func (u noProcessUploader) ProcessDocument(ctx context.Context, id string) error {
	return nil
}

// HandleSync handles "docuflow sync [once|watch]".
func HandleSync(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	if err := app.RequireAuth(ctx); err != nil {
		cancel()
		return err
	}
	cancel()

	dir := parser.FlagOrDefault("dir", app.Config.Sync.WatchDir)
	if dir == "" {
		return errors.New("no sync directory configured; set one with: docuflow config set sync.watch_dir <path>")
	}
	dir = expandHome(dir)

	locationID, err := app.LocationID(parser)
	if err != nil {
		return err
	}

	var folderID *string
	if id := parser.FlagOrDefault("folder", app.Config.Sync.FolderID); id != "" {
		folderID = &id
	}

	var uploader docsync.Uploader = app.Client
	if !app.Config.Sync.ProcessAfterUpload {
		uploader = noProcessUploader{client: app.Client}
	}

	syncer, err := docsync.New(uploader, dir, locationID, folderID)
	if err != nil {
		return err
	}
	defer syncer.Close()

	if app.Config.Sync.DebounceMs > 0 {
		syncer = syncer.WithDebounce(time.Duration(app.Config.Sync.DebounceMs) * time.Millisecond)
	}
	if args.Verbose {
		syncer = syncer.WithLogger(func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, "sync: "+format+"\n", a...)
		})
	}
	syncer = syncer.OnResult(func(r docsync.Result) {
		name := filepath.Base(r.Path)
		switch {
		case r.Err != nil:
			fmt.Println(ErrorStyle.Render(fmt.Sprintf("%s: %v", name, r.Err)))
		case !args.Quiet:
			fmt.Println(SuccessStyle.Render("Uploaded " + name))
		}
	})

	switch parser.Subcommand() {
	case "", "once":
		runCtx, cancel := withTimeout(app.Config.UploadTimeout() * 4)
		defer cancel()
		results, err := syncer.SyncOnce(runCtx)
		if err != nil {
			return err
		}
		uploaded := 0
		for _, r := range results {
			if r.Err == nil {
				uploaded++
			}
		}
		if !args.Quiet {
			fmt.Println(DimStyle.Render(fmt.Sprintf("%d file(s) uploaded, %d skipped or failed", uploaded, len(results)-uploaded)))
		}
		return nil

	case "watch":
		watchCtx, cancel := context.WithCancel(background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			cancel()
		}()

		if !args.Quiet {
			fmt.Println(TitleStyle.Render("docuflow sync"))
			fmt.Println(RenderLabel("Watching:", dir))
			fmt.Println(DimStyle.Render("Drop PDFs into the directory; Ctrl+C to stop."))
		}

		if err := syncer.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	default:
		return fmt.Errorf("unknown sync subcommand: %s", parser.Subcommand())
	}
}

// expandHome resolves a leading ~ in paths from config or flags.
func expandHome(path string) string {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
