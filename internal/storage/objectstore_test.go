package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStorePut(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "http://localhost:3001/audio/")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	url, err := store.Put(context.Background(), "abc.mp3", []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "http://localhost:3001/audio/abc.mp3" {
		t.Errorf("Unexpected URL: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(root, "abc.mp3"))
	if err != nil {
		t.Fatalf("Object not written: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("Unexpected content: %q", data)
	}
}

func TestDiskStorePut_Subdirectory(t *testing.T) {
	root := t.TempDir()
	store, _ := NewDiskStore(root, "http://localhost/audio")

	url, err := store.Put(context.Background(), "user-1/abc.mp3", []byte("x"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "http://localhost/audio/user-1/abc.mp3" {
		t.Errorf("Unexpected URL: %s", url)
	}
	if _, err := os.Stat(filepath.Join(root, "user-1", "abc.mp3")); err != nil {
		t.Errorf("Object not written in subdirectory: %v", err)
	}
}

func TestDiskStorePut_RejectsTraversal(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir(), "http://localhost/audio")

	if _, err := store.Put(context.Background(), "../escape.mp3", []byte("x")); err == nil {
		t.Error("Expected error for path traversal")
	}
	if _, err := store.Put(context.Background(), "/etc/passwd", []byte("x")); err == nil {
		t.Error("Expected error for absolute path")
	}
}
