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

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/document"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/jackc/pgx/v5"
)

// DocumentRepository implements document.Repository
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `
	id, title, description, file_name, stored_name, file_path,
	file_size, content_type, file_hash, category_id, owner_id,
	read_tier, write_tier, delete_tier, status, deleted,
	created_at, updated_at`

// Create persists a new document
func (r *DocumentRepository) Create(doc *document.Document) error {
	ctx := context.Background()
	now := time.Now()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO documents (
			id, title, description, file_name, stored_name, file_path,
			file_size, content_type, file_hash, category_id, owner_id,
			read_tier, write_tier, delete_tier, status, deleted,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		doc.ID, doc.Title, doc.Description, doc.FileName, doc.StoredName, doc.FilePath,
		doc.FileSize, doc.ContentType, doc.FileHash, nullString(doc.CategoryID), doc.OwnerID,
		doc.ReadTier.Level(), doc.WriteTier.Level(), doc.DeleteTier.Level(),
		string(doc.Status), doc.Deleted, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	doc.CreatedAt = now
	doc.UpdatedAt = now

	return nil
}

// GetByID retrieves a document, including soft-deleted rows
func (r *DocumentRepository) GetByID(id string) (*document.Document, error) {
	ctx := context.Background()

	row := r.db.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1
	`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, document.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// GetByHash retrieves a document by its content hash, including
// soft-deleted rows
func (r *DocumentRepository) GetByHash(hash string) (*document.Document, error) {
	ctx := context.Background()

	row := r.db.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE file_hash = $1
	`, hash)

	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, document.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// List retrieves documents matching the filter that are not
// soft-deleted
func (r *DocumentRepository) List(filter document.ListFilter) ([]*document.Document, error) {
	where := `WHERE deleted = FALSE`
	var args []any

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(` AND category_id = $%d`, len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	return r.list(where, args...)
}

func (r *DocumentRepository) list(where string, args ...any) ([]*document.Document, error) {
	ctx := context.Background()

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
	`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Update persists mutable document fields
func (r *DocumentRepository) Update(doc *document.Document) error {
	ctx := context.Background()

	result, err := r.db.pool.Exec(ctx, `
		UPDATE documents SET
			title = $2,
			description = $3,
			status = $4,
			updated_at = NOW()
		WHERE id = $1 AND deleted = FALSE
	`, doc.ID, doc.Title, doc.Description, string(doc.Status))
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return document.ErrDocumentNotFound
	}

	return nil
}

// SoftDelete marks a document deleted without removing the row
func (r *DocumentRepository) SoftDelete(id string) error {
	ctx := context.Background()

	result, err := r.db.pool.Exec(ctx, `
		UPDATE documents SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return document.ErrDocumentNotFound
	}

	return nil
}

// HardDelete removes the row permanently
func (r *DocumentRepository) HardDelete(id string) error {
	ctx := context.Background()

	_, err := r.db.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to purge document: %w", err)
	}

	return nil
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var doc document.Document
	var categoryID sql.NullString
	var readTier, writeTier, deleteTier int
	var status string

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.FileName, &doc.StoredName, &doc.FilePath,
		&doc.FileSize, &doc.ContentType, &doc.FileHash, &categoryID, &doc.OwnerID,
		&readTier, &writeTier, &deleteTier, &status, &doc.Deleted,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		doc.CategoryID = categoryID.String
	}
	doc.ReadTier = hierarchy.Tier(readTier)
	doc.WriteTier = hierarchy.Tier(writeTier)
	doc.DeleteTier = hierarchy.Tier(deleteTier)
	doc.Status = document.Status(status)

	return &doc, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
