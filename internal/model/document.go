// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// DOCUMENT STATUS
// =============================================================================

// DocumentStatus tracks backend processing of an uploaded document.
// The lifecycle is added -> processing -> processed; failures return the
// document to a terminal "failed" state on the server.
type DocumentStatus string

const (
	StatusAdded      DocumentStatus = "added"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// Processable reports whether a processing run can be triggered for a
// document in this status. Only freshly added documents qualify; the bulk
// "documents to process" count excludes everything else.
func (s DocumentStatus) Processable() bool {
	return s == StatusAdded
}

// =============================================================================
// DOCUMENT TYPE
// =============================================================================

// Document is an uploaded file tracked by the backend.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	FolderID   *string        `json:"folder_id,omitempty"`
	LocationID string         `json:"location_id,omitempty"`
	Status     DocumentStatus `json:"status"`
	SizeBytes  int64          `json:"size_bytes,omitempty"`
	PageCount  int            `json:"page_count,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CountProcessable returns how many of the given documents can have
// processing triggered (status "added").
func CountProcessable(docs []*Document) int {
	n := 0
	for _, d := range docs {
		if d.Status.Processable() {
			n++
		}
	}
	return n
}

// IsPDFName reports whether the file name has a .pdf extension. The client
// rejects everything else before any upload request is made.
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
