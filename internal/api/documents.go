// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// FOLDER ENDPOINTS
// =============================================================================

// ListFolders returns the folders of a location, optionally scoped to one
// parent folder. Pass nil for top-level folders only.
func (c *Client) ListFolders(ctx context.Context, locationID string, parentFolderID *string) ([]*model.Folder, error) {
	q := url.Values{"location_id": {locationID}}
	if parentFolderID != nil {
		q.Set("parent_folder_id", *parentFolderID)
	}

	var folders []*model.Folder
	if err := c.doJSON(ctx, http.MethodGet, "/document-management/folders/?"+q.Encode(), nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// FolderTree returns the fully nested folder tree of a location.
func (c *Client) FolderTree(ctx context.Context, locationID string) ([]*model.Folder, error) {
	q := url.Values{"location_id": {locationID}}

	var roots []*model.Folder
	if err := c.doJSON(ctx, http.MethodGet, "/document-management/folders/all?"+q.Encode(), nil, &roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// CreateFolder creates a folder. Name validation ("Folder name is
// required") happens in the calling layer before any request is issued.
func (c *Client) CreateFolder(ctx context.Context, req FolderRequest) (*model.Folder, error) {
	var folder model.Folder
	if err := c.doJSON(ctx, http.MethodPost, "/document-management/folders/", req, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder updates a folder's name.
func (c *Client) RenameFolder(ctx context.Context, id, name string) (*model.Folder, error) {
	var folder model.Folder
	if err := c.doJSON(ctx, http.MethodPatch, "/document-management/folders/"+id, FolderRequest{Name: name}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder removes a folder and its contents.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/document-management/folders/"+id, nil, nil)
}

// =============================================================================
// DOCUMENT ENDPOINTS
// =============================================================================

// ListDocuments returns the documents of a location, optionally scoped to
// one folder.
func (c *Client) ListDocuments(ctx context.Context, locationID string, folderID *string) ([]*model.Document, error) {
	q := url.Values{"location_id": {locationID}}
	if folderID != nil {
		q.Set("folder_id", *folderID)
	}

	var docs []*model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/document-management/documents/?"+q.Encode(), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument creates a document from a multipart upload. The longer
// upload timeout applies.
func (c *Client) UploadDocument(ctx context.Context, name, locationID string, folderID *string, file io.Reader) (*model.Document, error) {
	fields := map[string]string{"location_id": locationID}
	if folderID != nil {
		fields["folder_id"] = *folderID
	}
	body, contentType, err := multipartBody("file", name, file, fields)
	if err != nil {
		return nil, err
	}

	var doc model.Document
	if err := c.do(ctx, http.MethodPost, "/document-management/documents/", body, contentType, c.uploadTimeout, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ProcessDocument triggers backend processing of an uploaded document.
func (c *Client) ProcessDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/document-management/documents/process/"+id, nil, nil)
}

// DownloadDocument streams the original binary into w.
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint(fmt.Sprintf("/document-management/documents/%s/download", id)), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.mapError(resp.StatusCode, body)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return wrapTransportError(err)
	}
	return nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/document-management/documents/"+id, nil, nil)
}

// =============================================================================
// MULTIPART HELPER
// =============================================================================

// multipartBody builds an in-memory multipart body with one file part and
// optional extra form fields.
func multipartBody(fileField, filename string, file io.Reader, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write form field: %w", err)
		}
	}

	part, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
