package file

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinIOStore adapts minio.Client to the ObjectStore interface.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore constructs an adapter. bucket is only used by Ping.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

// streamPartSize bounds the buffer minio allocates per part when the length
// is unknown; its default is sized for 5TiB objects.
const streamPartSize = 16 << 20

// Put hands size to minio unchanged. minio cuts the body at a non-negative
// size, so callers that do not trust the length pass -1.
func (s *MinIOStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (int64, error) {
	opts := minio.PutObjectOptions{ContentType: OctetStream}
	if size < 0 {
		size = -1
		opts.PartSize = streamPartSize
	}
	info, err := s.client.PutObject(ctx, bucket, key, r, size, opts)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Get stats the object before handing it out; minio defers errors to the
// first read otherwise.
func (s *MinIOStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// Ping checks that the configured bucket is reachable.
func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
