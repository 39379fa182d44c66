package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// fsStore implements BlobStore on a single local directory.
// It is safe for concurrent use; the filesystem arbitrates same-name writes.
type fsStore struct {
	root string
}

// NewFS creates a filesystem-backed blob store rooted at dir.
// The directory is created if absent.
func NewFS(dir string) (BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &fsStore{root: dir}, nil
}

// resolve validates name and returns its absolute path under the root.
// A name carrying separators or ".." segments never maps to a path.
func (s *fsStore) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !filepath.IsLocal(name) {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	full := filepath.Join(s.root, name)
	// Joined path must stay within the root.
	if rel, err := filepath.Rel(s.root, full); err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidName
	}
	return full, nil
}

// Put writes via a temp file and an atomic rename so readers never observe
// a half-written blob.
func (s *fsStore) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := full + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync blob %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close blob %s: %w", name, err)
	}
	if size >= 0 && written != size {
		os.Remove(tmp)
		return fmt.Errorf("short write for blob %s: got %d bytes, declared %d", name, written, size)
	}

	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename blob %s: %w", name, err)
	}
	return nil
}

func (s *fsStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	full, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("open blob %s: %w", name, err)
	}
	return f, nil
}

func (s *fsStore) Exists(ctx context.Context, name string) (bool, error) {
	full, err := s.resolve(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob %s: %w", name, err)
	}
	if info.IsDir() {
		return false, nil
	}
	// Readability probe, not just presence.
	f, err := os.Open(full)
	if err != nil {
		return false, nil
	}
	f.Close()
	return true, nil
}

func (s *fsStore) Delete(ctx context.Context, name string) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", name, err)
	}
	return nil
}
