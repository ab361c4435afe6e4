package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalSink writes documents to a directory on disk. Writes go to a temp file that is
// fsynced and atomically renamed, so a reader never observes a partial document.
type LocalSink struct {
	dir    string
	prefix string
}

// NewLocalSink ensures dir exists. Locators are prefix + "/" + name.
func NewLocalSink(dir, publicPrefix string) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create document dir %s: %w", dir, err)
	}

	return &LocalSink{
		dir:    dir,
		prefix: strings.TrimRight(publicPrefix, "/"),
	}, nil
}

// Save writes r to dir/name.
func (s *LocalSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", unavailable("save", err)
	}

	f, err := os.CreateTemp(s.dir, "."+clean+".*.tmp")
	if err != nil {
		return "", unavailable("create temp file", err)
	}
	tmpPath := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", unavailable("write", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", unavailable("fsync", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", unavailable("close", err)
	}

	if err := ctx.Err(); err != nil {
		os.Remove(tmpPath)
		return "", unavailable("save", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", unavailable("chmod", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, clean)); err != nil {
		os.Remove(tmpPath)
		return "", unavailable("rename", err)
	}

	return s.prefix + "/" + clean, nil
}

// Open returns the stored document for serving. The caller closes it.
func (s *LocalSink) Open(name string) (*os.File, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.dir, clean))
}

// Dir returns the directory documents are written to.
func (s *LocalSink) Dir() string {
	return s.dir
}
