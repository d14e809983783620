package adapter

import (
	"context"
	"io"
)

// Document is a fetched upstream document, streamed to the caller. The caller
// owns Body and must close it.
type Document struct {
	ContentType string
	Length      int64 // -1 when unknown
	Body        io.ReadCloser
}

// DocumentFetcher is the port for the document-retrieval collaborator. It is
// used only by the documents proxy route; the job pipeline never invokes it.
type DocumentFetcher interface {
	Fetch(ctx context.Context, locator string) (*Document, error)
}
