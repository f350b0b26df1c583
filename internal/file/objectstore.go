package file

import (
	"context"
	"io"
)

// OctetStream is the media type served for every download.
const OctetStream = "application/octet-stream"

// ObjectStore is the blob capability the service needs. Put reports the
// number of bytes the backend accepted. A negative size means the length is
// unknown and r must be read to EOF; a non-negative size lets the backend
// stop after that many bytes.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (int64, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
