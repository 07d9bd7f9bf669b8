package policies

import (
	"context"
	"io"
)

// FeedPublisher hands the regenerated outbound calendar to whatever
// serves it publicly (object store, static file dir) and returns the
// public URL.
type FeedPublisher interface {
	Publish(ctx context.Context, filename string, content io.Reader) (publicURL string, filePath string, err error)
	// Unpublish removes a previously published feed; absent files are
	// not an error.
	Unpublish(ctx context.Context, filePath string) error
}
