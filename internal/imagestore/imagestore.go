// Package imagestore persists captured clothing images on local disk.
package imagestore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// urlPrefix is the path under which stored images are referenced. The id-based
// filename ties the image to its catalog record and index entry.
const urlPrefix = "/images/clothing_items/"

// Store writes images below a root directory and hands back stable URL paths.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("imagestore: root directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Save writes data under the item id, keeping the extension of the original
// filename. It returns the URL path under which the image is served.
func (s *Store) Save(ctx context.Context, id, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("imagestore: save: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("imagestore: save: id must not be empty")
	}

	name := id + extension(filename)
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return "", fmt.Errorf("imagestore: save %s: %w", name, err)
	}
	return urlPrefix + name, nil
}

// extension returns a normalized lower-case extension for filename, defaulting
// to .jpg when the source carries none (e.g. a bare URL path).
func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
