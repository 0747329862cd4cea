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
	"errors"
	"time"

	"github.com/docvault/docvault/internal/hierarchy"
)

// Domain errors
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidGates     = errors.New("invalid access gates")
)

// Status represents the document lifecycle state
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Document is a stored file with per-operation access gates. Each gate
// names the minimum tier the operation demands; an actor at or above
// the gate passes.
type Document struct {
	ID          string
	Title       string
	Description string
	FileName    string
	StoredName  string
	FilePath    string
	FileSize    int64
	ContentType string
	FileHash    string
	CategoryID  string
	OwnerID     string
	ReadTier    hierarchy.Tier
	WriteTier   hierarchy.Tier
	DeleteTier  hierarchy.Tier
	Status      Status
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category groups documents
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// ListFilter narrows a document listing. Zero values leave that
// dimension unconstrained.
type ListFilter struct {
	CategoryID string
	From       time.Time
	To         time.Time
}

// Repository defines the interface for document persistence
type Repository interface {
	// Create persists a new document
	Create(doc *Document) error

	// GetByID retrieves a document, including soft-deleted rows
	GetByID(id string) (*Document, error)

	// GetByHash retrieves a document by its content hash, including
	// soft-deleted rows
	GetByHash(hash string) (*Document, error)

	// List retrieves documents matching the filter that are not
	// soft-deleted
	List(filter ListFilter) ([]*Document, error)

	// Update persists mutable document fields
	Update(doc *Document) error

	// SoftDelete marks a document deleted without removing the row
	SoftDelete(id string) error

	// HardDelete removes the row permanently
	HardDelete(id string) error
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// Create persists a new category
	Create(category *Category) error

	// GetByID retrieves a category
	GetByID(id string) (*Category, error)

	// List retrieves all categories
	List() ([]*Category, error)
}
