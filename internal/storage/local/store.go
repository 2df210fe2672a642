package local

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqlchart/sqlchart/internal/storage"
)

// Store writes objects under a root directory on the local filesystem.
// Keys map to slash-separated paths below the root.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.ObjectInfo{}, err
	}
	target, normalized, err := s.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create directory for %q: %w", normalized, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create temp file for %q: %w", normalized, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	hash := md5.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return storage.ObjectInfo{}, fmt.Errorf("write object %q: %w", normalized, err)
	}
	if size >= 0 && written != size {
		cleanup()
		return storage.ObjectInfo{}, fmt.Errorf("write object %q: wrote %d bytes, expected %d", normalized, written, size)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return storage.ObjectInfo{}, fmt.Errorf("commit object %q: %w", normalized, err)
	}

	stat, err := os.Stat(target)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", normalized, err)
	}
	return storage.ObjectInfo{
		Key:          normalized,
		Location:     target,
		Size:         written,
		ETag:         hex.EncodeToString(hash.Sum(nil)),
		ContentType:  opts.ContentType,
		LastModified: stat.ModTime().UTC(),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, normalized, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %q: %w", normalized, err)
	}
	return file, nil
}

func (s *Store) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.ObjectInfo{}, err
	}
	target, normalized, err := s.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	stat, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ObjectInfo{}, storage.ErrObjectNotFound
		}
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", normalized, err)
	}
	if stat.IsDir() {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{
		Key:          normalized,
		Location:     target,
		Size:         stat.Size(),
		ContentType:  contentTypeFor(normalized),
		LastModified: stat.ModTime().UTC(),
	}, nil
}

func (s *Store) resolve(key string) (string, string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" {
		return "", "", fmt.Errorf("object key is required")
	}
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", "", fmt.Errorf("invalid object key: %q", key)
	}
	normalized := filepath.ToSlash(filepath.Clean(filepath.FromSlash(key)))
	return filepath.Join(s.root, filepath.FromSlash(normalized)), normalized, nil
}

func contentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
