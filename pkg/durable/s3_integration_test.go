//go:build integration

package durable_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/durable"
)

// Integration configuration for an S3-compatible server.
// Start it with: docker-compose up -d minio
const (
	testS3Endpoint  = "http://localhost:9000"
	testS3AccessKey = "admin"
	testS3SecretKey = "admin123"
	testS3Bucket    = "cache"
)

func TestS3Integration(t *testing.T) {
	ctx := context.Background()

	store, err := durable.NewS3(durable.S3Config{
		Bucket:    testS3Bucket,
		AccessKey: testS3AccessKey,
		SecretKey: testS3SecretKey,
		Endpoint:  testS3Endpoint,
		Prefix:    "test-" + uuid.NewString(),
		PathStyle: true,
	})
	require.NoError(t, err)
	require.NoError(t, store.Healthcheck(ctx))

	exp := time.Now().Add(time.Hour)
	require.NoError(t, store.Set(ctx, "products", []byte(`{"data":"W10="}`), exp))
	require.NoError(t, store.Set(ctx, "product_1", []byte(`{"data":"e30="}`), exp))

	got, err := store.Get(ctx, "products")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":"W10="}`, string(got))

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"products", "product_1"}, keys)

	require.NoError(t, store.Delete(ctx, "products"))
	require.NoError(t, store.Clear(ctx))

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}
