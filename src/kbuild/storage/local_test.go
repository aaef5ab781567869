package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLocal(t *testing.T) *LocalBackend {
	t.Helper()
	backend, err := NewLocal(LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return backend
}

func TestLocalUploadAndExists(t *testing.T) {
	backend := newTestLocal(t)
	ctx := context.Background()

	data := []byte("Image contents")
	key := "c9s/aarch64/run-1/Image"
	if err := backend.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	ok, err := backend.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true", ok, err)
	}

	stored, err := os.ReadFile(filepath.Join(backend.Location(), filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Errorf("stored content = %q, want %q", stored, data)
	}

	ok, err = backend.Exists(ctx, "c9s/aarch64/run-1/vmlinux")
	if err != nil || ok {
		t.Errorf("Exists for absent key = %v, %v, want false", ok, err)
	}
}

func TestLocalUploadSizeMismatch(t *testing.T) {
	backend := newTestLocal(t)

	err := backend.Upload(context.Background(), "short", strings.NewReader("abc"), 10, "")
	if err == nil {
		t.Fatal("expected size mismatch error")
	}
	if ok, _ := backend.Exists(context.Background(), "short"); ok {
		t.Error("partial upload should have been removed")
	}
}

func TestLocalKeyTraversal(t *testing.T) {
	backend := newTestLocal(t)

	if err := backend.Upload(context.Background(), "../../escape", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	outside := filepath.Join(filepath.Dir(backend.Location()), "escape")
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Errorf("traversal key escaped the base path to %s", outside)
	}
	if ok, _ := backend.Exists(context.Background(), "escape"); !ok {
		t.Error("sanitized key should land under the base path")
	}
}

func TestLocalPing(t *testing.T) {
	backend := newTestLocal(t)
	if err := backend.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if backend.Type() != "local" {
		t.Errorf("Type = %q", backend.Type())
	}
}
