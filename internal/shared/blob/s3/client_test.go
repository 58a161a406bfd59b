package s3blob

import (
	"context"
	"testing"

	"github.com/cristianortiz/auctionEase/internal/shared/config"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	require.Equal(t, "https://minio.local:9000", normaliseEndpoint("minio.local:9000"))
	require.Equal(t, "http://minio.local:9000", normaliseEndpoint("http://minio.local:9000"))
}

func TestNew_RequiresBucketAndRegion(t *testing.T) {
	_, err := New(context.Background(), config.S3Config{Region: "us-east-1"})
	require.Error(t, err)

	_, err = New(context.Background(), config.S3Config{Bucket: "settlements"})
	require.Error(t, err)
}

func TestNew_StaticCredentials(t *testing.T) {
	c, err := New(context.Background(), config.S3Config{
		Bucket:         "settlements",
		Region:         "us-east-1",
		Endpoint:       "http://127.0.0.1:9000",
		AccessKey:      "key",
		SecretKey:      "secret",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	require.Equal(t, "settlements", c.Bucket())
	require.NotNil(t, c.S3())
	require.NotNil(t, NewWriter(c))
}
