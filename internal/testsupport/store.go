package testsupport

import (
	"context"
	"testing"

	"gamelib/internal/canon"
	"gamelib/internal/config"
	"gamelib/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddListing creates (or resolves) a game for title and attaches a listing on storeName.
func AddListing(t testing.TB, store *library.Store, title, category, storeName, externalID string) (library.Game, library.StoreListing) {
	t.Helper()

	ctx := context.Background()
	game, _, err := store.FindOrCreateGame(ctx, library.GameInput{Title: title, Category: category})
	if err != nil {
		t.Fatalf("FindOrCreateGame(%q): %v", title, err)
	}
	listing, _, _, err := store.UpsertStoreListing(ctx, library.ListingInput{
		GameID:          game.ID,
		StoreName:       storeName,
		StoreSpecificID: externalID,
		OS:              &canon.OSSupport{},
	})
	if err != nil {
		t.Fatalf("UpsertStoreListing(%q): %v", title, err)
	}
	return game, listing
}
