package storage

import (
	"context"
	"io"
)

type remoteSaver interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// RemoteSink adapts an upload client (Cloudinary) to DocumentSink, normalising names and
// failure classification.
type RemoteSink struct {
	remote remoteSaver
}

// NewRemoteSink wraps remote.
func NewRemoteSink(remote remoteSaver) *RemoteSink {
	return &RemoteSink{remote: remote}
}

// Save uploads r under name.
func (s *RemoteSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}

	locator, err := s.remote.Save(ctx, clean, r)
	if err != nil {
		return "", unavailable("remote upload", err)
	}
	return locator, nil
}
