// Package remote provides RemoteStore implementations. The production
// deployment relies on a locally synced document library, so the store is
// a directory tree kept in sync by the platform's own client.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalDir mirrors files into a synced folder, implementing
// service.RemoteStore against the filesystem.
type LocalDir struct {
	root string
}

// NewLocalDir creates a store rooted at the given directory.
func NewLocalDir(root string) *LocalDir {
	return &LocalDir{root: root}
}

// Upload copies a local file into the library at the given relative path,
// creating intermediate folders as needed.
func (l *LocalDir) Upload(_ context.Context, library, relativePath, localPath string) error {
	target := filepath.Join(l.root, library, relativePath)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create remote folder for %s: %w", relativePath, err)
	}
	return copyFile(localPath, target)
}

// Download copies a library file to a local path.
func (l *LocalDir) Download(_ context.Context, library, relativePath, localPath string) error {
	source := filepath.Join(l.root, library, relativePath)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return fmt.Errorf("failed to create local folder for %s: %w", localPath, err)
	}
	return copyFile(source, localPath)
}

// List returns the names of files directly inside a library folder.
func (l *LocalDir) List(_ context.Context, library, folder string) ([]string, error) {
	dir := filepath.Join(l.root, library, folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
