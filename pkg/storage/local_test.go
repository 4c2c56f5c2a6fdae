package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "root")
	l, err := NewLocal(dir, "")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("root not created: %v", err)
	}

	if err := l.Put(ctx, "a/b/c.pdf", []byte("first"), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := l.Put(ctx, "a/b/c.pdf", []byte("2nd"), "application/pdf"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	rc, err := l.Open(ctx, "a/b/c.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "2nd" {
		t.Errorf("content = %q", got)
	}

	if _, err := l.Open(ctx, "nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open missing = %v", err)
	}
	if ok, _ := l.Exists(ctx, "a/b/c.pdf"); !ok {
		t.Error("Exists = false")
	}
	if err := l.Delete(ctx, "a/b/c.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, "a/b/c.pdf"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if ok, _ := l.Exists(ctx, "a/b/c.pdf"); ok {
		t.Error("Exists after delete = true")
	}
}

func TestLocalURL(t *testing.T) {
	dir := t.TempDir()
	l, _ := NewLocal(dir, "")
	u := l.URL("exports/x y.pdf")
	if !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/exports/x%20y.pdf") {
		t.Errorf("file url = %q", u)
	}

	served, _ := NewLocal(dir, "http://localhost:8080/files/")
	if got := served.URL("exports/x y.pdf"); got != "http://localhost:8080/files/exports/x%20y.pdf" {
		t.Errorf("served url = %q", got)
	}
}

func TestPublishLocal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l, _ := NewLocal(dir, "https://normas.example.com")
	u, err := Publish(ctx, l, "Norma_Decreto_0125.pdf", []byte("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	rel := strings.TrimPrefix(u, "https://normas.example.com/")
	if !strings.HasPrefix(rel, ExportPrefix+"/") {
		t.Fatalf("url = %q", u)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil || string(data) != "%PDF" {
		t.Errorf("published file = %q, %v", data, err)
	}
}
