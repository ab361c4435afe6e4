// Package storage provides durable destinations for rendered certificate documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrSinkUnavailable wraps I/O failures of a document sink. Callers may retry.
var ErrSinkUnavailable = errors.New("document sink unavailable")

// ErrInvalidName indicates a document name that could escape the sink's namespace.
var ErrInvalidName = errors.New("invalid document name")

// DocumentSink durably stores a document under a stable name. Once Save returns, the
// content is retrievable at the returned locator; saving the same name again replaces it.
type DocumentSink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// CleanName validates a document name and strips any directory components.
func CleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.ContainsAny(trimmed, `/\`) || strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return path.Base(trimmed), nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSinkUnavailable, op, err)
}
