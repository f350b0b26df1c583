package storage

import (
	"testing"

	"github.com/abduss/filestore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinIOEndpoint(t *testing.T) {
	cases := []struct {
		raw      string
		useSSL   bool
		endpoint string
		secure   bool
	}{
		{raw: "localhost", endpoint: "localhost:9000"},
		{raw: "minio:9100", endpoint: "minio:9100"},
		{raw: "http://minio:9000/", useSSL: true, endpoint: "minio:9000"},
		{raw: "https://storage.example.com:443", endpoint: "storage.example.com:443", secure: true},
		{raw: "objects.internal", useSSL: true, endpoint: "objects.internal:9000", secure: true},
	}

	for _, tc := range cases {
		endpoint, secure := minioEndpoint(tc.raw, tc.useSSL)
		assert.Equal(t, tc.endpoint, endpoint, tc.raw)
		assert.Equal(t, tc.secure, secure, tc.raw)
	}
}

func TestNewMinIOClientDoesNotDial(t *testing.T) {
	client, err := NewMinIOClient(config.MinIOConfig{
		Endpoint:        "http://127.0.0.1:1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1", client.EndpointURL().Host)
}

func TestNewRedisClientUsesConfig(t *testing.T) {
	client := NewRedisClient(config.RedisConfig{Host: "cache", Port: 6380, DB: 2})
	defer client.Close()

	assert.Equal(t, "cache:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)
}
