package imagestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSave(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url, err := store.Save(context.Background(), "item-42", "photo.PNG", []byte("img"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/images/clothing_items/item-42.png" {
		t.Errorf("url = %q, want /images/clothing_items/item-42.png", url)
	}

	data, err := os.ReadFile(filepath.Join(store.root, "item-42.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "img" {
		t.Errorf("stored data = %q, want %q", data, "img")
	}
}

func TestSaveEmptyID(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Save(context.Background(), "", "a.jpg", nil); err == nil {
		t.Error("Save with empty id succeeded, want error")
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", ".jpg"},
		{"photo.JPEG", ".jpeg"},
		{"shot.webp", ".webp"},
		{"no-extension", ".jpg"},
		{"archive.tar.gz", ".jpg"},
		{"", ".jpg"},
	}
	for _, tt := range tests {
		if got := extension(tt.filename); got != tt.want {
			t.Errorf("extension(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
