// Package watchlist holds per-user watchlist state synchronized against the
// backing store. The authenticated store and the anonymous local fallback are
// separate tiers selected by session state; their contents are never merged.
package watchlist

import (
	"context"
	"database/sql"

	"movienote/internal/database"
	"movienote/internal/types"
)

// RemoteRepository is the authenticated watchlist store. Every call is scoped
// to a user id; the store assigns entry ids and timestamps.
type RemoteRepository interface {
	List(ctx context.Context, userID int) ([]types.WatchlistEntry, error)
	Add(ctx context.Context, userID int, movie types.Movie) (*types.WatchlistEntry, error)
	Remove(ctx context.Context, userID, movieID int) error
	SetWatched(ctx context.Context, userID, movieID int, watched bool) error
	SetRating(ctx context.Context, userID, movieID int, rating *int) error
	SetNotes(ctx context.Context, userID, movieID int, notes *string) error
}

// storeRepository backs RemoteRepository with the sqlite store.
type storeRepository struct {
	db *sql.DB
}

func NewStoreRepository(db *sql.DB) RemoteRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) List(ctx context.Context, userID int) ([]types.WatchlistEntry, error) {
	return database.ListWatchlist(ctx, r.db, userID)
}

// Add writes the movie metadata first, then the entry row. The movie upsert
// is keyed on the catalog id so a second user adding the same movie refreshes
// the shared row instead of failing.
func (r *storeRepository) Add(ctx context.Context, userID int, movie types.Movie) (*types.WatchlistEntry, error) {
	if err := database.UpsertMovie(ctx, r.db, movie); err != nil {
		return nil, err
	}
	entry, err := database.InsertWatchlistEntry(ctx, r.db, userID, movie.ID)
	if err != nil {
		return nil, err
	}
	entry.Movie = movie
	return entry, nil
}

func (r *storeRepository) Remove(ctx context.Context, userID, movieID int) error {
	return database.DeleteWatchlistEntry(ctx, r.db, userID, movieID)
}

func (r *storeRepository) SetWatched(ctx context.Context, userID, movieID int, watched bool) error {
	return database.SetWatchlistWatched(ctx, r.db, userID, movieID, watched)
}

func (r *storeRepository) SetRating(ctx context.Context, userID, movieID int, rating *int) error {
	return database.SetWatchlistRating(ctx, r.db, userID, movieID, rating)
}

func (r *storeRepository) SetNotes(ctx context.Context, userID, movieID int, notes *string) error {
	return database.SetWatchlistNotes(ctx, r.db, userID, movieID, notes)
}
