package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlchart/sqlchart/internal/storage"
)

func TestPutCreatesDirectoriesAndReportsLocation(t *testing.T) {
	root := filepath.Join(t.TempDir(), "output")
	store, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	payload := []byte("\x89PNG chart")
	info, err := store.Put(context.Background(), "charts/chart_20260101_000000_abcd1234.png", bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	wantPath := filepath.Join(root, "charts", "chart_20260101_000000_abcd1234.png")
	if info.Location != wantPath {
		t.Fatalf("Location = %q, want %q", info.Location, wantPath)
	}
	if info.Key != "charts/chart_20260101_000000_abcd1234.png" {
		t.Fatalf("Key = %q", info.Key)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("info = %#v", info)
	}
	onDisk, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.Equal(onDisk, payload) {
		t.Fatalf("on disk = %q", onDisk)
	}

	leftovers, _ := filepath.Glob(filepath.Join(root, "charts", ".put-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestPutRejectsKeysOutsideRoot(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../escape.png", "charts/../../escape.png", ".."} {
		if _, err := store.Put(context.Background(), key, bytes.NewReader(nil), 0, storage.PutOptions{}); err == nil {
			t.Fatalf("Put(%q) expected error", key)
		}
	}
}

func TestPutRejectsShortBody(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := store.Put(context.Background(), "charts/a.png", bytes.NewReader([]byte("ab")), 5, storage.PutOptions{}); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if _, err := os.Stat(filepath.Join(root, "charts", "a.png")); !os.IsNotExist(err) {
		t.Fatalf("partial object committed: %v", err)
	}
}

func TestGetAndStat(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "charts/b.png", bytes.NewReader([]byte("png")), 3, storage.PutOptions{ContentType: "image/png"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	stat, err := store.Stat(ctx, "charts/b.png")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Size != 3 || stat.ContentType != "image/png" {
		t.Fatalf("Stat() = %#v", stat)
	}

	reader, err := store.Get(ctx, "/charts/b.png")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	body, _ := io.ReadAll(reader)
	_ = reader.Close()
	if string(body) != "png" {
		t.Fatalf("body = %q", body)
	}

	if _, err := store.Get(ctx, "charts/missing.png"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}
	if _, err := store.Stat(ctx, "charts"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Stat(dir) error = %v", err)
	}
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty root")
	}
}
