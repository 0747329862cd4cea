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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docvault/docvault/internal/id"
)

// Storage writes uploaded files to disk under random names. The
// original filename is kept only as metadata; on-disk names are UUIDs
// so user input never reaches the filesystem.
type Storage struct {
	primaryDir  string
	fallbackDir string
}

// NewStorage creates a storage rooted at primaryDir. When primaryDir
// cannot be created, fallbackDir is used instead.
func NewStorage(primaryDir, fallbackDir string) (*Storage, error) {
	if err := os.MkdirAll(primaryDir, 0o750); err == nil {
		return &Storage{primaryDir: primaryDir, fallbackDir: fallbackDir}, nil
	}

	if err := os.MkdirAll(fallbackDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directories: %w", err)
	}
	return &Storage{primaryDir: fallbackDir, fallbackDir: fallbackDir}, nil
}

// StoredFile describes a file written to storage
type StoredFile struct {
	StoredName string
	Path       string
	Size       int64
	SHA256     string
}

// Save streams the upload to disk and returns where it landed along
// with its size and content hash.
func (s *Storage) Save(r io.Reader, originalName string) (*StoredFile, error) {
	storedName := id.NewUUIDv7() + filepath.Ext(originalName)
	path := filepath.Join(s.primaryDir, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &StoredFile{
		StoredName: storedName,
		Path:       path,
		Size:       size,
		SHA256:     hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open opens a stored file for reading
func (s *Storage) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}
	return nil
}
