package enrichment

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited is returned by a Fetcher when the remote answered "too many requests".
	ErrRateLimited = errors.New("rate limited")
	// ErrRunInProgress is returned when a run for the same store is already active.
	ErrRunInProgress = errors.New("enrichment run already in progress")
)

// Metadata is the subset of a remote catalog entry the pipeline applies.
type Metadata struct {
	Name        string
	Genres      []string
	ReleaseDate string
	ComingSoon  bool
	Platforms   map[string]any
}

// Fetcher looks up catalog metadata for a storefront-specific id.
type Fetcher interface {
	FetchMetadata(ctx context.Context, storeSpecificID string) (Metadata, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, storeSpecificID string) (Metadata, error)

// FetchMetadata calls f.
func (f FetcherFunc) FetchMetadata(ctx context.Context, storeSpecificID string) (Metadata, error) {
	return f(ctx, storeSpecificID)
}
