package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gamelib/internal/services"
)

// UpsertStoreListing creates or updates the listing identified by
// (GameID, StoreName). updated is true only when a stored value changed.
func (s *Store) UpsertStoreListing(ctx context.Context, in ListingInput) (StoreListing, bool, bool, error) {
	ctx = ensureContext(ctx)
	storeName := strings.TrimSpace(in.StoreName)
	if in.GameID <= 0 || storeName == "" {
		return StoreListing{}, false, false, services.Wrap(services.ErrValidation, "library", "upsert listing",
			"game id and store name are required", nil)
	}
	in.StoreName = storeName
	in.StoreSpecificID = strings.TrimSpace(in.StoreSpecificID)

	existing, err := s.ListingFor(ctx, in.GameID, storeName)
	switch {
	case err == nil:
		return s.updateListing(ctx, existing, in)
	case !errors.Is(err, ErrNotFound):
		return StoreListing{}, false, false, err
	}

	osValue, err := encodeOS(in.OS)
	if err != nil {
		return StoreListing{}, false, false, fmt.Errorf("encode os support: %w", err)
	}
	now := nowString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO store_listings (game_id, store_name, store_specific_id, os_supported, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.GameID, storeName, in.StoreSpecificID, osValue, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.ListingFor(ctx, in.GameID, storeName)
			if lookupErr != nil {
				return StoreListing{}, false, false, lookupErr
			}
			return s.updateListing(ctx, existing, in)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return StoreListing{}, false, false, notFound("upsert listing", fmt.Sprintf("game %d", in.GameID))
		}
		return StoreListing{}, false, false, fmt.Errorf("insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return StoreListing{}, false, false, fmt.Errorf("listing last insert id: %w", err)
	}
	listing, err := s.getListing(ctx, id)
	if err != nil {
		return StoreListing{}, false, false, err
	}
	return listing, true, false, nil
}

func (s *Store) updateListing(ctx context.Context, existing StoreListing, in ListingInput) (StoreListing, bool, bool, error) {
	nextOS := existing.OS
	if in.OS != nil {
		support := *in.OS
		nextOS = &support
	}
	if existing.StoreSpecificID == in.StoreSpecificID && sameOS(existing.OS, nextOS) {
		return existing, false, false, nil
	}
	osValue, err := encodeOS(nextOS)
	if err != nil {
		return StoreListing{}, false, false, fmt.Errorf("encode os support: %w", err)
	}
	if _, err := s.execWithRetry(ctx,
		"UPDATE store_listings SET store_specific_id = ?, os_supported = ?, updated_at = ? WHERE id = ?",
		in.StoreSpecificID, osValue, nowString(), existing.ID,
	); err != nil {
		return StoreListing{}, false, false, fmt.Errorf("update listing: %w", err)
	}
	listing, err := s.getListing(ctx, existing.ID)
	if err != nil {
		return StoreListing{}, false, false, err
	}
	return listing, false, true, nil
}

// ListingFor fetches the listing for a game on one storefront.
func (s *Store) ListingFor(ctx context.Context, gameID int64, storeName string) (StoreListing, error) {
	var listing StoreListing
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		listing, scanErr = scanListing(row)
		return scanErr
	}, "SELECT "+listingColumns+" FROM store_listings WHERE game_id = ? AND store_name = ?", gameID, storeName)
	if errors.Is(err, sql.ErrNoRows) {
		return StoreListing{}, notFound("find listing", fmt.Sprintf("game %d on %s", gameID, storeName))
	}
	if err != nil {
		return StoreListing{}, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

func (s *Store) getListing(ctx context.Context, id int64) (StoreListing, error) {
	var listing StoreListing
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		listing, scanErr = scanListing(row)
		return scanErr
	}, "SELECT "+listingColumns+" FROM store_listings WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return StoreListing{}, notFound("get listing", fmt.Sprintf("listing %d", id))
	}
	if err != nil {
		return StoreListing{}, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

// ListingsForGame returns every listing of a game ordered by store name.
func (s *Store) ListingsForGame(ctx context.Context, gameID int64) ([]StoreListing, error) {
	return s.queryListings(ensureContext(ctx),
		"SELECT "+listingColumns+" FROM store_listings WHERE game_id = ? ORDER BY store_name", gameID)
}

// HydrationTarget pairs a listing awaiting enrichment with its game.
type HydrationTarget struct {
	Game    Game
	Listing StoreListing
}

// ListingsNeedingEnrichment selects the listings on storeName whose game still
// carries the sentinel category, in listing id order.
func (s *Store) ListingsNeedingEnrichment(ctx context.Context, storeName, sentinel string) ([]HydrationTarget, error) {
	ctx = ensureContext(ctx)
	if sentinel == "" {
		sentinel = HydrateSentinel
	}
	query := `SELECT g.id, g.normalized_title, g.title, g.slug, g.category, g.release_date, g.created_at, g.updated_at,
		l.id, l.game_id, l.store_name, l.store_specific_id, l.os_supported, l.created_at, l.updated_at
		FROM store_listings l JOIN games g ON g.id = l.game_id
		WHERE l.store_name = ? AND g.category = ?
		ORDER BY l.id`
	rows, err := s.db.QueryContext(ctx, query, storeName, sentinel)
	if err != nil {
		return nil, fmt.Errorf("select enrichment targets: %w", err)
	}
	defer rows.Close()

	var targets []HydrationTarget
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrichment target: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrichment targets: %w", err)
	}
	return targets, nil
}

func scanTarget(rows *sql.Rows) (HydrationTarget, error) {
	var (
		game        Game
		listing     StoreListing
		slug        sql.NullString
		category    sql.NullString
		releaseDate sql.NullString
		gameCreated sql.NullString
		gameUpdated sql.NullString
		osRaw       sql.NullString
		created     sql.NullString
		updated     sql.NullString
	)
	if err := rows.Scan(
		&game.ID, &game.NormalizedTitle, &game.Title, &slug, &category, &releaseDate, &gameCreated, &gameUpdated,
		&listing.ID, &listing.GameID, &listing.StoreName, &listing.StoreSpecificID, &osRaw, &created, &updated,
	); err != nil {
		return HydrationTarget{}, err
	}
	game.Slug = slug.String
	game.Category = category.String
	game.ReleaseDate = releaseDate.String
	game.CreatedAt, game.UpdatedAt = parseTimestamps(gameCreated, gameUpdated)
	listing.OS = decodeOS(osRaw)
	listing.CreatedAt, listing.UpdatedAt = parseTimestamps(created, updated)
	return HydrationTarget{Game: game, Listing: listing}, nil
}

func (s *Store) queryListings(ctx context.Context, query string, args ...any) ([]StoreListing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []StoreListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}
