// Package idgen generates short, URL-safe identifiers for persisted records.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// ActivityPrefix is prepended to every activity identifier.
const ActivityPrefix = "act-"

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length   = 16
)

// NewActivityID returns a fresh activity identifier.
func NewActivityID() (string, error) {
	return WithPrefix(ActivityPrefix)
}

// WithPrefix returns a new identifier with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
