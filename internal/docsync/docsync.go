// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docsync watches a local directory and uploads new PDF files
// to a docuflow folder, triggering processing after each upload. The
// PDF gate is enforced client-side: anything else is rejected before a
// single byte goes on the wire.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotPDF rejects a non-PDF file. The wording is surfaced verbatim.
	ErrNotPDF = errors.New("Only PDF files are allowed")

	// ErrNoWatchDir indicates the sync directory is not configured.
	ErrNoWatchDir = errors.New("no sync directory configured")
)

// =============================================================================
// UPLOADER
// =============================================================================

// Uploader is the slice of the API client that docsync needs.
type Uploader interface {
	UploadDocument(ctx context.Context, name, locationID string, folderID *string, file io.Reader) (*model.Document, error)
	ProcessDocument(ctx context.Context, id string) error
}

// =============================================================================
// SYNCER
// =============================================================================

// Result describes the outcome of one file's sync attempt.
type Result struct {
	Path     string
	Document *model.Document
	Err      error
}

// Syncer uploads PDFs from a watched directory.
type Syncer struct {
	uploader   Uploader
	dir        string
	locationID string
	folderID   *string
	debounce   time.Duration
	logf       func(string, ...any)
	onResult   func(Result)

	mu      sync.Mutex
	pending map[string]time.Time
	synced  map[string]time.Time // path -> mod time of last successful upload

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// New builds a syncer for dir. Files are uploaded into the given
// location and optional folder.
func New(uploader Uploader, dir, locationID string, folderID *string) (*Syncer, error) {
	if dir == "" {
		return nil, ErrNoWatchDir
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sync path %s is not a directory", dir)
	}

	return &Syncer{
		uploader:   uploader,
		dir:        dir,
		locationID: locationID,
		folderID:   folderID,
		debounce:   500 * time.Millisecond,
		logf:       func(string, ...any) {},
		pending:    make(map[string]time.Time),
		synced:     make(map[string]time.Time),
	}, nil
}

// WithLogger sets the debug log sink.
func (s *Syncer) WithLogger(logf func(string, ...any)) *Syncer {
	if logf != nil {
		s.logf = logf
	}
	return s
}

// WithDebounce overrides the settle time before an observed file is
// uploaded.
func (s *Syncer) WithDebounce(d time.Duration) *Syncer {
	s.debounce = d
	return s
}

// OnResult registers a callback invoked after every attempt, success or
// failure. It runs on the sync goroutine.
func (s *Syncer) OnResult(fn func(Result)) *Syncer {
	s.onResult = fn
	return s
}

func (s *Syncer) report(r Result) {
	if r.Err != nil {
		s.logf("docsync: %s: %v", r.Path, r.Err)
	} else {
		s.logf("docsync: uploaded %s as %s", r.Path, r.Document.ID)
	}
	if s.onResult != nil {
		s.onResult(r)
	}
}

// =============================================================================
// ONE-SHOT SYNC
// =============================================================================

// SyncOnce uploads every unsynced PDF currently in the directory and
// returns the per-file results in name order. Non-PDF files are
// reported as rejected without any network call.
func (s *Syncer) SyncOnce(ctx context.Context) ([]Result, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var results []Result
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		if s.alreadySynced(path) {
			continue
		}
		result := s.syncFile(ctx, path)
		results = append(results, result)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

func (s *Syncer) alreadySynced(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.synced[path]
	return ok && !info.ModTime().After(prev)
}

// syncFile validates, uploads and triggers processing for one file.
func (s *Syncer) syncFile(ctx context.Context, path string) Result {
	result := Result{Path: path}

	if !model.IsPDFName(path) {
		result.Err = ErrNotPDF
		s.report(result)
		return result
	}

	file, err := os.Open(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to open %s: %w", path, err)
		s.report(result)
		return result
	}
	defer file.Close()

	doc, err := s.uploader.UploadDocument(ctx, filepath.Base(path), s.locationID, s.folderID, file)
	if err != nil {
		result.Err = err
		s.report(result)
		return result
	}
	result.Document = doc

	if err := s.uploader.ProcessDocument(ctx, doc.ID); err != nil {
		// The upload stuck; processing can be retriggered from the CLI.
		result.Err = fmt.Errorf("uploaded but failed to trigger processing: %w", err)
		s.report(result)
		return result
	}

	if info, err := os.Stat(path); err == nil {
		s.mu.Lock()
		s.synced[path] = info.ModTime()
		s.mu.Unlock()
	}

	s.report(result)
	return result
}

// =============================================================================
// WATCH MODE
// =============================================================================

// Watch starts the fsnotify watcher and blocks until ctx is cancelled.
// New files settle for the debounce window before upload so partially
// written files are not shipped.
func (s *Syncer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.watcher = watcher
	s.cancel = cancel
	defer watcher.Close()
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	s.logf("docsync: watching %s", s.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				s.markPending(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logf("docsync: watch error: %v", err)

		case <-ticker.C:
			for _, path := range s.takeSettled() {
				s.syncFile(ctx, path)
			}
		}
	}
}

// Close stops a running watch.
func (s *Syncer) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Syncer) markPending(path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	s.mu.Lock()
	s.pending[path] = time.Now()
	s.mu.Unlock()
}

// takeSettled removes and returns pending paths whose last event is
// older than the debounce window.
func (s *Syncer) takeSettled() []string {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var settled []string
	for path, last := range s.pending {
		if now.Sub(last) >= s.debounce {
			settled = append(settled, path)
			delete(s.pending, path)
		}
	}
	sort.Strings(settled)
	return settled
}
