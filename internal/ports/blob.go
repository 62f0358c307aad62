package ports

import "context"

// BlobStore holds raw document content. The engine never interprets the
// bytes; it stores the returned reference on the document row.
type BlobStore interface {
	Put(ctx context.Context, data []byte, fileName string, mediaType string) (ref string, err error)
	Get(ctx context.Context, ref string) ([]byte, error)
}
