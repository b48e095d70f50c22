package library

import (
	"strings"
	"time"

	"gamelib/internal/canon"
)

// Storefront names as stored in store_listings.store_name.
const (
	StoreGOG   = "GOG"
	StoreSteam = "Steam"
)

// HydrateSentinel marks a game whose metadata still has to be fetched.
const HydrateSentinel = "Steam Hydrate"

// KnownStores lists the storefronts that always appear in Stats.
var KnownStores = []string{StoreGOG, StoreSteam}

// CanonicalStore maps a case-insensitive storefront name such as "gog" onto
// its stored spelling.
func CanonicalStore(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, known := range KnownStores {
		if strings.EqualFold(known, name) {
			return known, true
		}
	}
	return "", false
}

// Game is the canonical identity shared by every storefront listing of a title.
type Game struct {
	ID              int64     `json:"id"`
	NormalizedTitle string    `json:"normalizedTitle"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug,omitempty"`
	Category        string    `json:"category,omitempty"`
	ReleaseDate     string    `json:"releaseDate,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NeedsHydration reports whether the game still carries the sentinel category.
func (g Game) NeedsHydration(sentinel string) bool {
	if sentinel == "" {
		sentinel = HydrateSentinel
	}
	return g.Category == sentinel
}

// StoreListing records one storefront's ownership of a game.
type StoreListing struct {
	ID              int64            `json:"id"`
	GameID          int64            `json:"gameId"`
	StoreName       string           `json:"name"`
	StoreSpecificID string           `json:"externalId"`
	OS              *canon.OSSupport `json:"os,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// GameInput carries the fields used when a new game has to be created.
type GameInput struct {
	Title       string
	Slug        string
	Category    string
	ReleaseDate string
}

// ListingInput identifies a listing by (GameID, StoreName) and the values to store.
// A nil OS leaves the stored platform support untouched.
type ListingInput struct {
	GameID          int64
	StoreName       string
	StoreSpecificID string
	OS              *canon.OSSupport
}

// GamePatch is a partial game update. Nil fields are left untouched; an empty
// Slug, Category or ReleaseDate clears the column.
type GamePatch struct {
	Title       *string
	Slug        *string
	Category    *string
	ReleaseDate *string
}

// Empty reports whether the patch changes nothing.
func (p GamePatch) Empty() bool {
	return p.Title == nil && p.Slug == nil && p.Category == nil && p.ReleaseDate == nil
}

// GameWithListings is a game plus its listings and the derived duplicate flag.
type GameWithListings struct {
	Game
	Listings  []StoreListing `json:"listings"`
	Duplicate bool           `json:"duplicate"`
}

// Stats summarizes ownership counts across storefronts.
type Stats struct {
	PerStore   map[string]int `json:"perStore"`
	Total      int            `json:"total"`
	Duplicates int            `json:"duplicates"`
}

// StringPtr is a convenience for building GamePatch values.
func StringPtr(value string) *string {
	return &value
}
