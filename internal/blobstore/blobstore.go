package blobstore

import "context"

// BlobStore holds opaque values under string keys. Get reports a missing key
// with ok == false and a nil error.
type BlobStore interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}
