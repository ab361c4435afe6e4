package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillfolio-api/pkg/cloudinary"
)

type fakeUploader struct {
	params uploader.UploadParams
	err    error
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(file.(io.Reader)); err != nil {
		return nil, err
	}
	f.params = params
	return &uploader.UploadResult{
		PublicID:  params.Folder + "/" + params.PublicID,
		SecureURL: "https://res.cloudinary.com/demo/raw/upload/" + params.Folder + "/" + params.PublicID,
	}, nil
}

func TestRemoteSinkUploadsWithOverwrite(t *testing.T) {
	up := &fakeUploader{}
	sink := NewRemoteSink(cloudinary.NewWithUploader(up, "/skillfolio/certificates/", zerolog.Nop()))

	locator, err := sink.Save(context.Background(), "act-1.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "https://res.cloudinary.com/demo/raw/upload/skillfolio/certificates/act-1.pdf", locator)
	require.Equal(t, "act-1.pdf", up.params.PublicID)
	require.Equal(t, "raw", up.params.ResourceType)
	require.True(t, *up.params.Overwrite)
	require.False(t, *up.params.UniqueFilename)
}

func TestRemoteSinkWrapsUploadErrors(t *testing.T) {
	sink := NewRemoteSink(cloudinary.NewWithUploader(&fakeUploader{err: errors.New("timeout")}, "", zerolog.Nop()))

	_, err := sink.Save(context.Background(), "act-1.pdf", strings.NewReader("%PDF-1.4"))
	require.ErrorIs(t, err, ErrSinkUnavailable)
}
