// Copyright 2026 The DocVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"io"
	"net/http"
	"time"

	"github.com/docvault/docvault/internal/document"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/go-chi/chi/v5"
)

// maxUploadSize bounds multipart uploads (50 MiB)
const maxUploadSize = 50 << 20

// DocumentResponse represents a document
type DocumentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	FileHash    string `json:"file_hash"`
	ContentType string `json:"content_type,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	OwnerID     string `json:"owner_id"`
	ReadTier    string `json:"read_tier"`
	WriteTier   string `json:"write_tier"`
	DeleteTier  string `json:"delete_tier"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func documentResponse(doc *document.Document) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		FileName:    doc.FileName,
		FileSize:    doc.FileSize,
		FileHash:    doc.FileHash,
		ContentType: doc.ContentType,
		CategoryID:  doc.CategoryID,
		OwnerID:     doc.OwnerID,
		ReadTier:    doc.ReadTier.String(),
		WriteTier:   doc.WriteTier.String(),
		DeleteTier:  doc.DeleteTier.String(),
		Status:      string(doc.Status),
		CreatedAt:   doc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateDocument uploads a new document
// @Summary Upload document
// @Description Store a file with per-operation tier gates
// @Tags Documents
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param read_tier formData string true "Minimum tier to read"
// @Param write_tier formData string true "Minimum tier to update"
// @Param delete_tier formData string true "Minimum tier to delete"
// @Param file formData file true "File content"
// @Success 201 {object} DocumentResponse
// @Failure 400 {object} map[string]string
// @Router /documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	readTier, err := hierarchy.Parse(r.FormValue("read_tier"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown read_tier")
		return
	}
	writeTier, err := hierarchy.Parse(r.FormValue("write_tier"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown write_tier")
		return
	}
	deleteTier, err := hierarchy.Parse(r.FormValue("delete_tier"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown delete_tier")
		return
	}

	doc, err := h.documentService.Create(r.Context(), GetUsername(r.Context()), document.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		CategoryID:  r.FormValue("category_id"),
		ReadTier:    readTier,
		WriteTier:   writeTier,
		DeleteTier:  deleteTier,
	}, file)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, documentResponse(doc))
}

// ListDocuments lists documents the caller may read
// @Summary List documents
// @Description List documents, optionally narrowed by category and creation date range
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param category_id query string false "Category ID"
// @Param from query string false "Earliest creation date (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Latest creation date (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {array} DocumentResponse
// @Failure 400 {object} map[string]string
// @Router /documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDateQuery(r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	docs, err := h.documentService.List(r.Context(), GetUsername(r.Context()), document.ListFilter{
		CategoryID: r.URL.Query().Get("category_id"),
		From:       from,
		To:         to,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentResponse(doc))
	}
	respondJSON(w, http.StatusOK, out)
}

// GetDocument returns document metadata
// @Summary Get document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} DocumentResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentService.Get(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, documentResponse(doc))
}

// DownloadDocument streams the file content
// @Summary Download document
// @Tags Documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/{id}/content [get]
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.documentService.Open(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	streamDocument(w, doc, rc)
}

// GetDocumentByHash returns document metadata located by content hash
// @Summary Get document by hash
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Content hash (SHA-256, hex)"
// @Success 200 {object} DocumentResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/hash/{hash} [get]
func (h *Handler) GetDocumentByHash(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentService.GetByHash(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "hash"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, documentResponse(doc))
}

// DownloadDocumentByHash streams file content located by content hash
// @Summary Download document by hash
// @Tags Documents
// @Produce octet-stream
// @Security BearerAuth
// @Param hash path string true "Content hash (SHA-256, hex)"
// @Success 200
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/hash/{hash}/content [get]
func (h *Handler) DownloadDocumentByHash(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.documentService.OpenByHash(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "hash"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	streamDocument(w, doc, rc)
}

func streamDocument(w http.ResponseWriter, doc *document.Document, rc io.ReadCloser) {
	defer rc.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	io.Copy(w, rc)
}

// parseDateQuery accepts an RFC 3339 timestamp or a bare calendar date.
func parseDateQuery(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", value)
}

// UpdateDocumentRequest carries mutable document metadata
type UpdateDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateDocument mutates document metadata
// @Summary Update document
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param request body UpdateDocumentRequest true "Fields to update"
// @Success 200 {object} DocumentResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/{id} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req UpdateDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.documentService.Update(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "id"), document.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      document.Status(req.Status),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, documentResponse(doc))
}

// DeleteDocument soft-deletes a document
// @Summary Delete document
// @Tags Documents
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documentService.Delete(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurgeDocument permanently removes a document
// @Summary Purge document
// @Description Permanently remove a document and its file. Top tier only.
// @Tags Documents
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /documents/{id}/purge [delete]
func (h *Handler) PurgeDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documentService.Purge(r.Context(), GetUsername(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CategoryRequest represents a new category
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCategory adds a document category
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /categories [post]
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := h.documentService.CreateCategory(r.Context(), GetUsername(r.Context()), req.Name, req.Description)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// ListCategories lists categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} map[string]any
// @Router /categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.documentService.ListCategories(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, categories)
}
