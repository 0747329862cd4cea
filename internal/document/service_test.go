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
	"io"
	"strings"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/authz"
	"github.com/docvault/docvault/internal/hierarchy"
	"github.com/docvault/docvault/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDocRepository is an in-memory document store
type mockDocRepository struct {
	docs map[string]*Document
}

func newMockDocRepository() *mockDocRepository {
	return &mockDocRepository{docs: make(map[string]*Document)}
}

func (m *mockDocRepository) Create(doc *Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocRepository) GetByID(id string) (*Document, error) {
	if d, ok := m.docs[id]; ok {
		return d, nil
	}
	return nil, ErrDocumentNotFound
}

func (m *mockDocRepository) GetByHash(hash string) (*Document, error) {
	for _, d := range m.docs {
		if d.FileHash == hash {
			return d, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (m *mockDocRepository) List(filter ListFilter) ([]*Document, error) {
	var out []*Document
	for _, d := range m.docs {
		if d.Deleted {
			continue
		}
		if filter.CategoryID != "" && d.CategoryID != filter.CategoryID {
			continue
		}
		if !filter.From.IsZero() && d.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && d.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDocRepository) Update(doc *Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocRepository) SoftDelete(id string) error {
	if d, ok := m.docs[id]; ok {
		d.Deleted = true
		return nil
	}
	return ErrDocumentNotFound
}

func (m *mockDocRepository) HardDelete(id string) error {
	delete(m.docs, id)
	return nil
}

// mockCategoryRepository is an in-memory category store
type mockCategoryRepository struct {
	categories map[string]*Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[string]*Category)}
}

func (m *mockCategoryRepository) Create(c *Category) error {
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) GetByID(id string) (*Category, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, ErrCategoryNotFound
}

func (m *mockCategoryRepository) List() ([]*Category, error) {
	var out []*Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

// mockUsers serves fixed tiers
type mockUsers struct {
	users map[string]*identity.User
}

func (m *mockUsers) Create(u *identity.User) error { return nil }
func (m *mockUsers) GetByID(id string) (*identity.User, error) {
	return nil, identity.ErrUserNotFound
}
func (m *mockUsers) GetByUsername(username string) (*identity.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}
func (m *mockUsers) List() ([]*identity.User, error) { return nil, nil }
func (m *mockUsers) Update(u *identity.User) error   { return nil }

// passthroughRoleCache never caches
type passthroughRoleCache struct{}

func (passthroughRoleCache) Get(ctx context.Context, username string) (hierarchy.Tier, bool, error) {
	return 0, false, nil
}
func (passthroughRoleCache) Set(ctx context.Context, username string, tier hierarchy.Tier, ttl time.Duration) error {
	return nil
}
func (passthroughRoleCache) Invalidate(ctx context.Context, username string) error { return nil }

func newTestDocService(t *testing.T) (*Service, *mockDocRepository) {
	t.Helper()

	users := &mockUsers{users: map[string]*identity.User{
		"intern01":  {ID: "u-intern", Username: "intern01", IsActive: true, Role: identity.AssignedRole(hierarchy.Intern)},
		"staff01":   {ID: "u-staff", Username: "staff01", IsActive: true, Role: identity.AssignedRole(hierarchy.Staff)},
		"manager01": {ID: "u-mgr", Username: "manager01", IsActive: true, Role: identity.AssignedRole(hierarchy.Manager)},
		"chief":     {ID: "u-ceo", Username: "chief", IsActive: true, Role: identity.AssignedRole(hierarchy.CEO)},
	}}
	authorizer := authz.NewService(users, passthroughRoleCache{}, time.Minute)

	storage, err := NewStorage(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	repo := newMockDocRepository()
	svc := NewService(repo, newMockCategoryRepository(), authorizer, storage, audit.NewSlogLogger())
	return svc, repo
}

func createDoc(t *testing.T, svc *Service, read, write, del hierarchy.Tier) *Document {
	t.Helper()
	doc, err := svc.Create(context.Background(), "manager01", CreateInput{
		Title:      "quarterly report",
		FileName:   "report.pdf",
		ReadTier:   read,
		WriteTier:  write,
		DeleteTier: del,
	}, strings.NewReader("file-content"))
	require.NoError(t, err)
	return doc
}

func TestCreateStoresFileUnderRandomName(t *testing.T) {
	svc, _ := newTestDocService(t)

	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)
	assert.Equal(t, "report.pdf", doc.FileName)
	assert.NotEqual(t, doc.FileName, doc.StoredName)
	assert.True(t, strings.HasSuffix(doc.StoredName, ".pdf"))
	assert.Equal(t, int64(len("file-content")), doc.FileSize)
	assert.NotEmpty(t, doc.FileHash)
}

func TestCreateRejectsUnknownGate(t *testing.T) {
	svc, _ := newTestDocService(t)

	_, err := svc.Create(context.Background(), "manager01", CreateInput{
		Title:      "bad gates",
		FileName:   "x.txt",
		ReadTier:   hierarchy.Tier(99),
		WriteTier:  hierarchy.Staff,
		DeleteTier: hierarchy.Staff,
	}, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidGates)
}

func TestReadGateAtExactLevelAllows(t *testing.T) {
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)

	got, err := svc.Get(context.Background(), "staff01", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestReadGateBelowLevelDenies(t *testing.T) {
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)

	_, err := svc.Get(context.Background(), "intern01", doc.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestWriteGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)

	// Below the write gate
	_, err := svc.Update(ctx, "staff01", doc.ID, UpdateInput{Title: "renamed"})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	// At the write gate
	updated, err := svc.Update(ctx, "manager01", doc.ID, UpdateInput{Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestDeleteGate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)

	// Passing the write gate does not grant delete
	err := svc.Delete(ctx, "manager01", doc.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	// CEO passes every gate
	require.NoError(t, svc.Delete(ctx, "chief", doc.ID))

	stored := repo.docs[doc.ID]
	require.NotNil(t, stored)
	assert.True(t, stored.Deleted)
}

func TestSoftDeletedLooksMissing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Intern, hierarchy.Intern, hierarchy.Intern)

	require.NoError(t, svc.Delete(ctx, "staff01", doc.ID))

	_, err := svc.Get(ctx, "chief", doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	err = svc.Delete(ctx, "chief", doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestPurgeIsCEOOnly(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Intern, hierarchy.Intern, hierarchy.Intern)
	require.NoError(t, svc.Delete(ctx, "staff01", doc.ID))

	err := svc.Purge(ctx, "manager01", doc.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	require.NoError(t, svc.Purge(ctx, "chief", doc.ID))
	assert.NotContains(t, repo.docs, doc.ID)
}

func TestListFiltersByReadGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)

	createDoc(t, svc, hierarchy.Intern, hierarchy.Manager, hierarchy.Manager)
	createDoc(t, svc, hierarchy.Manager, hierarchy.Manager, hierarchy.Manager)
	createDoc(t, svc, hierarchy.CEO, hierarchy.CEO, hierarchy.CEO)

	forIntern, err := svc.List(ctx, "intern01", ListFilter{})
	require.NoError(t, err)
	assert.Len(t, forIntern, 1)

	forManager, err := svc.List(ctx, "manager01", ListFilter{})
	require.NoError(t, err)
	assert.Len(t, forManager, 2)

	forCEO, err := svc.List(ctx, "chief", ListFilter{})
	require.NoError(t, err)
	assert.Len(t, forCEO, 3)
}

func TestListFilterByCategoryAndDateRange(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestDocService(t)

	cat, err := svc.CreateCategory(ctx, "manager01", "contracts", "")
	require.NoError(t, err)

	inCategory, err := svc.Create(ctx, "manager01", CreateInput{
		Title:      "signed contract",
		FileName:   "contract.pdf",
		CategoryID: cat.ID,
		ReadTier:   hierarchy.Staff,
		WriteTier:  hierarchy.Manager,
		DeleteTier: hierarchy.Manager,
	}, strings.NewReader("contract"))
	require.NoError(t, err)

	uncategorized := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Manager)

	// Push one document a week into the past
	repo.docs[uncategorized.ID].CreatedAt = time.Now().AddDate(0, 0, -7)

	byCategory, err := svc.List(ctx, "staff01", ListFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, inCategory.ID, byCategory[0].ID)

	recent, err := svc.List(ctx, "staff01", ListFilter{From: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, inCategory.ID, recent[0].ID)

	old, err := svc.List(ctx, "staff01", ListFilter{To: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, uncategorized.ID, old[0].ID)
}

func TestGetByHashPassesReadGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)
	require.NotEmpty(t, doc.FileHash)

	got, err := svc.GetByHash(ctx, "staff01", doc.FileHash)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = svc.GetByHash(ctx, "intern01", doc.FileHash)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = svc.GetByHash(ctx, "chief", "no-such-hash")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestOpenByHashReturnsContent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)

	_, rc, err := svc.OpenByHash(ctx, "staff01", doc.FileHash)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "file-content", string(content))

	// Soft-deleted documents are unreachable by hash as well
	require.NoError(t, svc.Delete(ctx, "chief", doc.ID))
	_, _, err = svc.OpenByHash(ctx, "chief", doc.FileHash)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestCreateCategoryRequiresManager(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)

	_, err := svc.CreateCategory(ctx, "staff01", "contracts", "")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	cat, err := svc.CreateCategory(ctx, "manager01", "contracts", "")
	require.NoError(t, err)
	assert.Equal(t, "contracts", cat.Name)
}

func TestOpenReturnsContent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestDocService(t)
	doc := createDoc(t, svc, hierarchy.Staff, hierarchy.Manager, hierarchy.Director)

	_, rc, err := svc.Open(ctx, "staff01", doc.ID)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "file-content", string(content))
}
