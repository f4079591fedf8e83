package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetching the post collection
var (
	// ErrFetchFailed covers every way a collection fetch can fail.
	// More specific causes below wrap it, so errors.Is(err, ErrFetchFailed)
	// holds for all of them.
	ErrFetchFailed = errors.New("fetching posts failed")

	// ErrUnexpectedStatus indicates the server answered with a non-2xx status
	ErrUnexpectedStatus = fmt.Errorf("%w: unexpected status", ErrFetchFailed)

	// ErrMalformedBody indicates the response body was not a JSON array of posts
	ErrMalformedBody = fmt.Errorf("%w: malformed body", ErrFetchFailed)
)
