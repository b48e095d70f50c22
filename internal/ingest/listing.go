package ingest

import (
	"context"
	"strings"

	"gamelib/internal/canon"
	"gamelib/internal/library"
)

// RawListing is one storefront entry as fetched, before canonicalization.
type RawListing struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug,omitempty"`
	Category    string         `json:"category,omitempty"`
	ReleaseDate string         `json:"releaseDate,omitempty"`
	Platforms   map[string]any `json:"worksOn,omitempty"`
	IsGame      bool           `json:"isGame"`
}

// Source fetches a storefront's owned listings.
type Source interface {
	Name() string
	FetchListings(ctx context.Context) ([]RawListing, error)
}

// EnrichmentStarter launches a detached enrichment run for a storefront.
type EnrichmentStarter interface {
	Start(ctx context.Context, storeName string) error
}

// gameInput maps a raw listing onto the fields used when its game is first created.
// The hydration sentinel passes through so enrichment can find the game later.
func gameInput(raw RawListing, sentinel string) library.GameInput {
	in := library.GameInput{
		Title:    strings.TrimSpace(raw.Title),
		Slug:     strings.TrimSpace(raw.Slug),
		Category: strings.TrimSpace(raw.Category),
	}
	release := strings.TrimSpace(raw.ReleaseDate)
	switch {
	case release == "":
	case release == sentinel:
		in.ReleaseDate = release
	default:
		if date, ok := canon.ReleaseDate(release); ok {
			in.ReleaseDate = date
		}
	}
	return in
}

// listingOS returns nil when the source supplied no platform data at all.
func listingOS(raw RawListing) *canon.OSSupport {
	if raw.Platforms == nil {
		return nil
	}
	support := canon.OS(raw.Platforms)
	return &support
}
