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

package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/authz"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/id"
)

// Service enforces the per-document access gates around the document
// store. Every operation authorizes against the gate matching its kind
// before touching the repository.
type Service struct {
	repo        Repository
	categories  CategoryRepository
	authorizer  *authz.Service
	storage     *Storage
	auditLogger audit.Logger
	onDenied    func()
}

// NewService creates a new document service
func NewService(repo Repository, categories CategoryRepository, authorizer *authz.Service, storage *Storage, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		categories:  categories,
		authorizer:  authorizer,
		storage:     storage,
		auditLogger: auditLogger,
	}
}

// OnDenied registers a callback fired on every denied decision, used
// for metrics.
func (s *Service) OnDenied(fn func()) *Service {
	s.onDenied = fn
	return s
}

// CreateInput carries the metadata for a new document
type CreateInput struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	CategoryID  string
	ReadTier    hierarchy.Tier
	WriteTier   hierarchy.Tier
	DeleteTier  hierarchy.Tier
}

// Create stores the file and its metadata. The creator chooses the
// gates; each must be a known tier.
func (s *Service) Create(ctx context.Context, username string, in CreateInput, file io.Reader) (*Document, error) {
	for _, gate := range []hierarchy.Tier{in.ReadTier, in.WriteTier, in.DeleteTier} {
		if !gate.Valid() {
			return nil, fmt.Errorf("%w: level %d", ErrInvalidGates, gate.Level())
		}
	}

	if in.CategoryID != "" {
		if _, err := s.categories.GetByID(in.CategoryID); err != nil {
			return nil, ErrCategoryNotFound
		}
	}

	// The actor must resolve to a tier before anything touches disk
	if _, err := s.authorizer.EffectiveTier(ctx, username); err != nil {
		return nil, err
	}

	stored, err := s.storage.Save(file, in.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &Document{
		ID:          id.NewUUIDv7(),
		Title:       in.Title,
		Description: in.Description,
		FileName:    in.FileName,
		StoredName:  stored.StoredName,
		FilePath:    stored.Path,
		FileSize:    stored.Size,
		ContentType: in.ContentType,
		FileHash:    stored.SHA256,
		CategoryID:  in.CategoryID,
		ReadTier:    in.ReadTier,
		WriteTier:   in.WriteTier,
		DeleteTier:  in.DeleteTier,
		OwnerID:     username,
		Status:      StatusActive,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(doc); err != nil {
		s.storage.Remove(stored.Path)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDocumentCreated,
		ActorID:  username,
		Resource: doc.ID,
		Metadata: map[string]any{audit.AttrDocument: doc.ID},
	})

	return doc, nil
}

// Get returns a document after passing the read gate. Soft-deleted
// documents are indistinguishable from missing ones.
func (s *Service) Get(ctx context.Context, username, docID string) (*Document, error) {
	doc, err := s.repo.GetByID(docID)
	if err != nil || doc.Deleted {
		return nil, ErrDocumentNotFound
	}

	if err := s.check(ctx, username, doc, authz.OpRead, doc.ReadTier); err != nil {
		return nil, err
	}

	return doc, nil
}

// GetByHash returns a document located by its content hash, after
// passing the read gate. The same soft-delete masking applies.
func (s *Service) GetByHash(ctx context.Context, username, hash string) (*Document, error) {
	doc, err := s.repo.GetByHash(hash)
	if err != nil || doc.Deleted {
		return nil, ErrDocumentNotFound
	}

	if err := s.check(ctx, username, doc, authz.OpRead, doc.ReadTier); err != nil {
		return nil, err
	}

	return doc, nil
}

// Open returns the document's file content after passing the read gate.
func (s *Service) Open(ctx context.Context, username, docID string) (*Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, username, docID)
	if err != nil {
		return nil, nil, err
	}
	return s.open(doc)
}

// OpenByHash returns the file content of the document with the given
// content hash, after passing the read gate.
func (s *Service) OpenByHash(ctx context.Context, username, hash string) (*Document, io.ReadCloser, error) {
	doc, err := s.GetByHash(ctx, username, hash)
	if err != nil {
		return nil, nil, err
	}
	return s.open(doc)
}

func (s *Service) open(doc *Document) (*Document, io.ReadCloser, error) {
	rc, err := s.storage.Open(doc.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// UpdateInput carries the mutable document metadata
type UpdateInput struct {
	Title       string
	Description string
	Status      Status
}

// Update mutates document metadata after passing the write gate.
func (s *Service) Update(ctx context.Context, username, docID string, in UpdateInput) (*Document, error) {
	doc, err := s.repo.GetByID(docID)
	if err != nil || doc.Deleted {
		return nil, ErrDocumentNotFound
	}

	if err := s.check(ctx, username, doc, authz.OpWrite, doc.WriteTier); err != nil {
		return nil, err
	}

	if in.Title != "" {
		doc.Title = in.Title
	}
	if in.Description != "" {
		doc.Description = in.Description
	}
	if in.Status != "" {
		doc.Status = in.Status
	}
	doc.UpdatedAt = time.Now()

	if err := s.repo.Update(doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDocumentUpdated,
		ActorID:  username,
		Resource: doc.ID,
	})

	return doc, nil
}

// Delete soft-deletes a document after passing the delete gate. The
// row and the stored file survive for recovery.
func (s *Service) Delete(ctx context.Context, username, docID string) error {
	doc, err := s.repo.GetByID(docID)
	if err != nil || doc.Deleted {
		return ErrDocumentNotFound
	}

	if err := s.check(ctx, username, doc, authz.OpDelete, doc.DeleteTier); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDocumentDeleted,
		ActorID:  username,
		Resource: doc.ID,
	})

	return nil
}

// Purge permanently removes a soft-deleted document and its file.
// Only the top tier may purge.
func (s *Service) Purge(ctx context.Context, username, docID string) error {
	isCEO, err := s.authorizer.IsCEO(ctx, username)
	if err != nil {
		return err
	}
	if !isCEO {
		s.denied(ctx, username, docID, authz.OpDelete, hierarchy.CEO)
		return authz.ErrPermissionDenied
	}

	doc, err := s.repo.GetByID(docID)
	if err != nil {
		return ErrDocumentNotFound
	}

	if err := s.repo.HardDelete(doc.ID); err != nil {
		return fmt.Errorf("failed to purge document: %w", err)
	}
	if err := s.storage.Remove(doc.FilePath); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDocumentDeleted,
		ActorID:  username,
		Resource: doc.ID,
		Metadata: map[string]any{"purged": true},
	})

	return nil
}

// List returns the documents matching the filter whose read gate the
// user passes.
func (s *Service) List(ctx context.Context, username string, filter ListFilter) ([]*Document, error) {
	tier, err := s.authorizer.EffectiveTier(ctx, username)
	if err != nil {
		return nil, err
	}

	docs, err := s.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	visible := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		if tier.AtLeast(doc.ReadTier) {
			visible = append(visible, doc)
		}
	}
	return visible, nil
}

// CreateCategory adds a document category. Manager level and above.
func (s *Service) CreateCategory(ctx context.Context, username, name, description string) (*Category, error) {
	if err := s.authorizer.Check(ctx, username, hierarchy.Manager); err != nil {
		if errors.Is(err, authz.ErrPermissionDenied) {
			s.denied(ctx, username, "category", authz.OpWrite, hierarchy.Manager)
		}
		return nil, err
	}

	category := &Category{
		ID:          id.NewUUIDv7(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}

	if err := s.categories.Create(category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.categories.List()
}

func (s *Service) check(ctx context.Context, username string, doc *Document, op authz.Operation, gate hierarchy.Tier) error {
	err := s.authorizer.Check(ctx, username, gate)
	if errors.Is(err, authz.ErrPermissionDenied) {
		s.denied(ctx, username, doc.ID, op, gate)
	}
	return err
}

func (s *Service) denied(ctx context.Context, username, resource string, op authz.Operation, required hierarchy.Tier) {
	if s.onDenied != nil {
		s.onDenied()
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePermissionDenied,
		ActorID:  username,
		Resource: resource,
		Metadata: map[string]any{
			"operation":        string(op),
			audit.AttrRequired: required.String(),
		},
	})
}
