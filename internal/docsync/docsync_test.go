// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package docsync

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// fakeUploader records upload and process calls.
type fakeUploader struct {
	mu        sync.Mutex
	uploads   []string
	processed []string
	failWith  error
}

func (f *fakeUploader) UploadDocument(_ context.Context, name, _ string, _ *string, file io.Reader) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, name)
	return &model.Document{ID: "doc-" + name, Name: name, Status: model.StatusAdded}, nil
}

func (f *fakeUploader) ProcessDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeUploader) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSyncOnceUploadsAndProcessesPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "%PDF-1.7 a")
	writeFile(t, dir, "b.PDF", "%PDF-1.7 b")

	uploader := &fakeUploader{}
	syncer, err := New(uploader, dir, "loc-1", nil)
	require.NoError(t, err)
	syncer.WithLogger(func(string, ...any) {})

	results, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.NotNil(t, r.Document)
	}
	assert.Equal(t, []string{"a.pdf", "b.PDF"}, uploader.uploads)
	assert.Equal(t, []string{"doc-a.pdf", "doc-b.PDF"}, uploader.processed)
}

// Non-PDF files are rejected locally; the uploader must never see them.
func TestSyncOnceRejectsNonPDFWithoutNetworkCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "plain text")

	uploader := &fakeUploader{}
	syncer, err := New(uploader, dir, "loc-1", nil)
	require.NoError(t, err)
	syncer.WithLogger(func(string, ...any) {})

	results, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, ErrNotPDF))
	assert.Equal(t, "Only PDF files are allowed", results[0].Err.Error())
	assert.Zero(t, uploader.uploadCount())
}

func TestSyncOnceSkipsAlreadySynced(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "%PDF-1.7")

	uploader := &fakeUploader{}
	syncer, err := New(uploader, dir, "loc-1", nil)
	require.NoError(t, err)
	syncer.WithLogger(func(string, ...any) {})

	_, err = syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	results, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Equal(t, 1, uploader.uploadCount())
}

func TestSyncOnceUploadFailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "%PDF-1.7")

	uploader := &fakeUploader{failWith: errors.New("connection refused")}
	syncer, err := New(uploader, dir, "loc-1", nil)
	require.NoError(t, err)
	syncer.WithLogger(func(string, ...any) {})

	results, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)

	// A failed file is retried on the next pass.
	uploader.failWith = nil
	results, err = syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	uploader := &fakeUploader{}

	_, err := New(uploader, "", "loc-1", nil)
	assert.True(t, errors.Is(err, ErrNoWatchDir))

	_, err = New(uploader, filepath.Join(t.TempDir(), "missing"), "loc-1", nil)
	assert.Error(t, err)
}

func TestWatchUploadsNewPDF(t *testing.T) {
	dir := t.TempDir()
	uploader := &fakeUploader{}
	syncer, err := New(uploader, dir, "loc-1", nil)
	require.NoError(t, err)

	uploaded := make(chan Result, 4)
	syncer.WithLogger(func(string, ...any) {}).
		WithDebounce(20 * time.Millisecond).
		OnResult(func(r Result) { uploaded <- r })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- syncer.Watch(ctx) }()

	// Give the watcher a moment to register before creating the file.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "fresh.pdf", "%PDF-1.7 fresh")

	select {
	case r := <-uploaded:
		require.NoError(t, r.Err)
		assert.Equal(t, "doc-fresh.pdf", r.Document.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for upload")
	}

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
}
