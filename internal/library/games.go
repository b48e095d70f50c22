package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gamelib/internal/canon"
	"gamelib/internal/services"
)

// FindOrCreateGame resolves the canonical game for a display title, creating it
// when no game with the same normalized title exists. An existing game is
// returned unchanged. Losing a concurrent insert race re-resolves via lookup.
func (s *Store) FindOrCreateGame(ctx context.Context, in GameInput) (Game, bool, error) {
	ctx = ensureContext(ctx)
	key := canon.Title(in.Title)
	if key == "" {
		return Game{}, false, services.Wrap(services.ErrValidation, "library", "find or create game",
			fmt.Sprintf("title %q has no identity characters", in.Title), nil)
	}

	game, err := s.GameByNormalizedTitle(ctx, key)
	if err == nil {
		return game, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Game{}, false, err
	}

	now := nowString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO games (normalized_title, title, slug, category, release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key,
		strings.TrimSpace(in.Title),
		nullableString(in.Slug),
		nullableString(in.Category),
		nullableString(in.ReleaseDate),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			game, lookupErr := s.GameByNormalizedTitle(ctx, key)
			if lookupErr == nil {
				return game, false, nil
			}
			return Game{}, false, services.Wrap(services.ErrConflict, "library", "find or create game",
				fmt.Sprintf("normalized title %q", key), errors.Join(ErrIdentityConflict, lookupErr))
		}
		return Game{}, false, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Game{}, false, fmt.Errorf("game last insert id: %w", err)
	}
	game, err = s.GetGame(ctx, id)
	if err != nil {
		return Game{}, false, err
	}
	return game, true, nil
}

// GetGame fetches a game by id.
func (s *Store) GetGame(ctx context.Context, id int64) (Game, error) {
	var game Game
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		game, scanErr = scanGame(row)
		return scanErr
	}, "SELECT "+gameColumns+" FROM games WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, notFound("get game", fmt.Sprintf("game %d", id))
	}
	if err != nil {
		return Game{}, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// GameByNormalizedTitle fetches a game by its identity key.
func (s *Store) GameByNormalizedTitle(ctx context.Context, key string) (Game, error) {
	var game Game
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		game, scanErr = scanGame(row)
		return scanErr
	}, "SELECT "+gameColumns+" FROM games WHERE normalized_title = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, notFound("find game", fmt.Sprintf("normalized title %q", key))
	}
	if err != nil {
		return Game{}, fmt.Errorf("find game: %w", err)
	}
	return game, nil
}

// UpdateGameFields applies a partial update and returns the stored game.
// Title changes keep the original normalized title.
func (s *Store) UpdateGameFields(ctx context.Context, id int64, patch GamePatch) (Game, error) {
	ctx = ensureContext(ctx)
	if patch.Empty() {
		return s.GetGame(ctx, id)
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Game{}, services.Wrap(services.ErrValidation, "library", "update game", "title cannot be empty", nil)
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if patch.Slug != nil {
		sets = append(sets, "slug = ?")
		args = append(args, nullableString(*patch.Slug))
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, nullableString(*patch.Category))
	}
	if patch.ReleaseDate != nil {
		sets = append(sets, "release_date = ?")
		args = append(args, nullableString(*patch.ReleaseDate))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowString(), id)

	res, err := s.execWithRetry(ctx, "UPDATE games SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return Game{}, fmt.Errorf("update game: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return Game{}, notFound("update game", fmt.Sprintf("game %d", id))
	}
	return s.GetGame(ctx, id)
}

// ListGames returns every game with its listings, ordered by title.
func (s *Store) ListGames(ctx context.Context) ([]GameWithListings, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+gameColumns+" FROM games ORDER BY title COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	var (
		games []GameWithListings
		index = make(map[int64]int)
	)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan game: %w", err)
		}
		index[game.ID] = len(games)
		games = append(games, GameWithListings{Game: game, Listings: []StoreListing{}})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	rows.Close()

	listings, err := s.queryListings(ctx, "SELECT "+listingColumns+" FROM store_listings ORDER BY game_id, store_name")
	if err != nil {
		return nil, err
	}
	for _, listing := range listings {
		pos, ok := index[listing.GameID]
		if !ok {
			continue
		}
		games[pos].Listings = append(games[pos].Listings, listing)
	}
	for i := range games {
		games[i].Duplicate = len(games[i].Listings) > 1
	}
	return games, nil
}
