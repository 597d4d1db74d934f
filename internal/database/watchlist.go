package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"movienote/internal/types"
)

// UpsertMovie inserts or refreshes a catalog row, keyed by the catalog's
// movie id. It never errors on a duplicate: the movies table is shared
// between users and a second add of the same movie must succeed against the
// existing row.
func UpsertMovie(ctx context.Context, db *sql.DB, movie types.Movie) error {
	genresJSON, err := json.Marshal(movie.Genres)
	if err != nil {
		genresJSON = []byte("[]")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO movies (id, title, original_title, original_language, overview,
			release_date, poster_path, backdrop_path, vote_average, vote_count,
			runtime, genres, adult, popularity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			original_title = excluded.original_title,
			original_language = excluded.original_language,
			overview = excluded.overview,
			release_date = excluded.release_date,
			poster_path = excluded.poster_path,
			backdrop_path = excluded.backdrop_path,
			vote_average = excluded.vote_average,
			vote_count = excluded.vote_count,
			runtime = excluded.runtime,
			genres = excluded.genres,
			adult = excluded.adult,
			popularity = excluded.popularity
	`, movie.ID, movie.Title, movie.OriginalTitle, movie.OriginalLanguage, movie.Overview,
		movie.ReleaseDate, movie.PosterPath, movie.BackdropPath, movie.VoteAverage, movie.VoteCount,
		movie.Runtime, string(genresJSON), movie.Adult, movie.Popularity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert movie %d: %w", movie.ID, err)
	}

	return nil
}

// GetMovie returns a cached catalog row, or types.ErrNotFound.
func GetMovie(ctx context.Context, db *sql.DB, movieID int) (*types.Movie, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, title, original_title, original_language, overview,
			release_date, poster_path, backdrop_path, vote_average, vote_count,
			runtime, genres, adult, popularity
		FROM movies
		WHERE id = ?
	`, movieID)

	movie, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("movie %d: %w", movieID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query movie %d: %w", movieID, err)
	}
	return movie, nil
}

// ListRecentMovies returns a page of cached catalog rows, newest first. Used
// for the empty-query browse view.
func ListRecentMovies(ctx context.Context, db *sql.DB, limit, offset int) ([]types.Movie, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, original_title, original_language, overview,
			release_date, poster_path, backdrop_path, vote_average, vote_count,
			runtime, genres, adult, popularity
		FROM movies
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []types.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}

// ListWatchlist returns all entries for a user joined with their movie
// metadata, ordered by added timestamp descending. Entries whose movie row is
// missing (a prior partial failure) are skipped rather than failing the load.
func ListWatchlist(ctx context.Context, db *sql.DB, userID int) ([]types.WatchlistEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT w.id, w.user_id, w.movie_id, w.added_at, w.watched, w.rating, w.notes,
			m.id, m.title, m.original_title, m.original_language, m.overview,
			m.release_date, m.poster_path, m.backdrop_path, m.vote_average, m.vote_count,
			m.runtime, m.genres, m.adult, m.popularity
		FROM user_watchlists w
		LEFT JOIN movies m ON w.movie_id = m.id
		WHERE w.user_id = ?
		ORDER BY w.added_at DESC, w.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []types.WatchlistEntry
	for rows.Next() {
		var entry types.WatchlistEntry
		var movieID sql.NullInt64
		var title, originalTitle, originalLanguage, overview, genres sql.NullString
		var releaseDate, posterPath, backdropPath sql.NullString
		var voteAverage, popularity sql.NullFloat64
		var voteCount, runtime sql.NullInt64
		var adult sql.NullBool

		err := rows.Scan(&entry.ID, &entry.UserID, &entry.MovieID, &entry.AddedAt,
			&entry.Watched, &entry.Rating, &entry.Notes,
			&movieID, &title, &originalTitle, &originalLanguage, &overview,
			&releaseDate, &posterPath, &backdropPath, &voteAverage, &voteCount,
			&runtime, &genres, &adult, &popularity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist row: %w", err)
		}

		// Orphaned entry with no joined movie row: skip defensively.
		if !movieID.Valid {
			continue
		}

		entry.Movie = types.Movie{
			ID:               int(movieID.Int64),
			Title:            title.String,
			OriginalTitle:    originalTitle.String,
			OriginalLanguage: originalLanguage.String,
			Overview:         overview.String,
			VoteAverage:      voteAverage.Float64,
			VoteCount:        int(voteCount.Int64),
			Adult:            adult.Bool,
			Popularity:       popularity.Float64,
		}
		if releaseDate.Valid {
			entry.Movie.ReleaseDate = &releaseDate.String
		}
		if posterPath.Valid {
			entry.Movie.PosterPath = &posterPath.String
		}
		if backdropPath.Valid {
			entry.Movie.BackdropPath = &backdropPath.String
		}
		if runtime.Valid {
			r := int(runtime.Int64)
			entry.Movie.Runtime = &r
		}
		if genres.Valid {
			var names []string
			if err := json.Unmarshal([]byte(genres.String), &names); err == nil {
				entry.Movie.Genres = names
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// InsertWatchlistEntry adds a watchlist row scoped to (userID, movieID) with
// watched=false and null rating/notes. The store assigns the entry id and the
// added timestamp; the stored row is read back so the caller sees exactly
// what the store holds. A duplicate pair returns types.ErrAlreadyExists.
func InsertWatchlistEntry(ctx context.Context, db *sql.DB, userID, movieID int) (*types.WatchlistEntry, error) {
	var existing int64
	err := db.QueryRowContext(ctx,
		"SELECT id FROM user_watchlists WHERE user_id = ? AND movie_id = ?",
		userID, movieID).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("watchlist entry for movie %d: %w", movieID, types.ErrAlreadyExists)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check watchlist entry: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO user_watchlists (user_id, movie_id, added_at, watched)
		VALUES (?, ?, ?, 0)
	`, userID, movieID, time.Now())
	if err != nil {
		// The pre-check above can race a concurrent insert for the same
		// pair; the UNIQUE constraint firing is still a duplicate add.
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("watchlist entry for movie %d: %w", movieID, types.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to insert watchlist entry: %w", err)
	}

	entryID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry ID: %w", err)
	}

	var entry types.WatchlistEntry
	err = db.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, added_at, watched, rating, notes
		FROM user_watchlists
		WHERE id = ?
	`, entryID).Scan(&entry.ID, &entry.UserID, &entry.MovieID, &entry.AddedAt,
		&entry.Watched, &entry.Rating, &entry.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to read back watchlist entry: %w", err)
	}

	return &entry, nil
}

// DeleteWatchlistEntry removes the row matching (userID, movieID). Keying on
// both columns keeps one user's delete from ever touching another user's row
// in the shared table.
func DeleteWatchlistEntry(ctx context.Context, db *sql.DB, userID, movieID int) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM user_watchlists WHERE user_id = ? AND movie_id = ?",
		userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}
	return nil
}

// SetWatchlistWatched flips the watched flag on an entry.
func SetWatchlistWatched(ctx context.Context, db *sql.DB, userID, movieID int, watched bool) error {
	return updateWatchlistEntry(ctx, db, userID, movieID, "watched = ?", watched)
}

// SetWatchlistRating sets the personal rating on an entry.
func SetWatchlistRating(ctx context.Context, db *sql.DB, userID, movieID int, rating *int) error {
	return updateWatchlistEntry(ctx, db, userID, movieID, "rating = ?", rating)
}

// SetWatchlistNotes sets the personal notes on an entry.
func SetWatchlistNotes(ctx context.Context, db *sql.DB, userID, movieID int, notes *string) error {
	return updateWatchlistEntry(ctx, db, userID, movieID, "notes = ?", notes)
}

func updateWatchlistEntry(ctx context.Context, db *sql.DB, userID, movieID int, set string, value any) error {
	result, err := db.ExecContext(ctx,
		"UPDATE user_watchlists SET "+set+" WHERE user_id = ? AND movie_id = ?",
		value, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to update watchlist entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("watchlist entry for movie %d: %w", movieID, types.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*types.Movie, error) {
	var movie types.Movie
	var genres string
	err := row.Scan(&movie.ID, &movie.Title, &movie.OriginalTitle, &movie.OriginalLanguage,
		&movie.Overview, &movie.ReleaseDate, &movie.PosterPath, &movie.BackdropPath,
		&movie.VoteAverage, &movie.VoteCount, &movie.Runtime, &genres,
		&movie.Adult, &movie.Popularity)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(genres), &movie.Genres); err != nil {
		movie.Genres = nil
	}
	return &movie, nil
}
