package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.StorageConfig {
	return config.StorageConfig{
		Bucket:            "qm-documents",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Endpoint:          "localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewArchive_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.StorageConfig)
		want   string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewArchive(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		a, err := NewArchive(testConfig())
		require.NoError(t, err)
		assert.Equal(t, "qm-documents", a.Bucket())
		assert.Equal(t, 10*time.Minute, a.presignExpiration)
	})

	t.Run("default expiration", func(t *testing.T) {
		cfg := testConfig()
		cfg.PresignExpiration = 0
		a, err := NewArchive(cfg)
		require.NoError(t, err)
		assert.Equal(t, defaultExpiration, a.presignExpiration)
	})
}

func TestArchive_DownloadURL(t *testing.T) {
	a, err := NewArchive(testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = a.DownloadURL(ctx, "", time.Minute)
	assert.ErrorIs(t, err, ErrKeyRequired)

	u, expiresAt, err := a.DownloadURL(ctx, "t1/moves/m1/INV-2024-00001.pdf", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/qm-documents/t1/moves/m1/"))
	assert.Contains(t, u, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)
}

func TestArchive_EmptyKey(t *testing.T) {
	a, err := NewArchive(testConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, a.Put(context.Background(), "", []byte("x"), "application/pdf"), ErrKeyRequired)
	_, err = a.Exists(context.Background(), "")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&types.NoSuchBucket{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
}
