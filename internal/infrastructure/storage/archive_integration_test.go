//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMinIO(t *testing.T) config.StorageConfig {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)
	return config.StorageConfig{
		Enabled:      true,
		Endpoint:     fmt.Sprintf("http://%s:%s", host, port.Port()),
		Bucket:       "qm-archive",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	}
}

func TestArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a, err := NewArchive(startMinIO(t))
	require.NoError(t, err)

	require.NoError(t, a.EnsureBucket(ctx))
	require.NoError(t, a.EnsureBucket(ctx))

	key := "t1/moves/m1/INV-2024-00001.pdf"
	exists, err := a.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, a.Put(ctx, key, []byte("%PDF-1.4"), "application/pdf"))

	exists, err = a.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	u, _, err := a.DownloadURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "qm-archive")
}
