package domain

import "context"

// PostRepository fetches the post collection from its source.
type PostRepository interface {
	// ListPosts returns the whole collection in source order.
	// Implementations must return an error wrapping ErrFetchFailed on failure
	// and must stop promptly when ctx is cancelled.
	ListPosts(ctx context.Context) ([]Post, error)
}
