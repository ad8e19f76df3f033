package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) StorageService {
	t.Helper()
	svc, err := NewStorageService(context.Background(), ServiceConfig{
		S3BucketName:      "attachments",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "access",
		S3SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	return svc
}

func TestPresignUpload_PathStyleURL(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	raw, err := svc.PresignUpload(context.Background(), "abc-defg-hij/photo.png", "image/png", 1024, 5*time.Minute)
	req.NoError(err)

	u, err := url.Parse(raw)
	req.NoError(err)
	req.Equal("localhost:9000", u.Host)
	req.Equal("/attachments/abc-defg-hij/photo.png", u.Path)
	req.Equal("300", u.Query().Get("X-Amz-Expires"))
}

func TestPresignDownload_PathStyleURL(t *testing.T) {
	svc := newTestService(t)

	raw, err := svc.PresignDownload(context.Background(), "abc-defg-hij/photo.png", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/attachments/abc-defg-hij/photo.png", u.Path)
	require.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
