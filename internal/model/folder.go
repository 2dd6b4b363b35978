// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"time"
)

// =============================================================================
// FOLDER TYPE
// =============================================================================

// Folder is a node in the self-referential folder hierarchy. Folders belong
// to a location; top-level folders have a nil ParentFolderID.
type Folder struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	LocationID     string    `json:"location_id"`
	ParentFolderID *string   `json:"parent_folder_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Populated by the /all nested-tree endpoint.
	Folders   []*Folder   `json:"folders,omitempty"`
	Documents []*Document `json:"documents,omitempty"`
}

// =============================================================================
// TREE ASSEMBLY
// =============================================================================

// BuildFolderTree assembles a nested tree from flat folder rows. Roots are
// folders whose parent is nil or missing from the input (an orphan whose
// parent was deleted concurrently still renders rather than vanishing).
// Children are sorted by name for stable display.
func BuildFolderTree(flat []*Folder) []*Folder {
	byID := make(map[string]*Folder, len(flat))
	for _, f := range flat {
		// Reset any stale nesting from a previous assembly.
		f.Folders = nil
		byID[f.ID] = f
	}

	var roots []*Folder
	for _, f := range flat {
		if f.ParentFolderID == nil {
			roots = append(roots, f)
			continue
		}
		parent, ok := byID[*f.ParentFolderID]
		if !ok {
			roots = append(roots, f)
			continue
		}
		parent.Folders = append(parent.Folders, f)
	}

	var sortChildren func(fs []*Folder)
	sortChildren = func(fs []*Folder) {
		sort.Slice(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
		for _, f := range fs {
			sortChildren(f.Folders)
		}
	}
	sortChildren(roots)

	return roots
}

// Walk visits the folder and all nested descendants depth-first.
func (f *Folder) Walk(visit func(*Folder)) {
	visit(f)
	for _, child := range f.Folders {
		child.Walk(visit)
	}
}
