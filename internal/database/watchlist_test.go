package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienote/internal/types"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Single connection: each in-memory sqlite connection is its own database.
	db.SetMaxOpenConns(1)

	require.NoError(t, RunMigrations(db, "../../db/migrations"))
	return db
}

func testUser(t *testing.T, db *sql.DB, subject string) *types.User {
	t.Helper()
	user, err := GetOrCreateUser(db, subject, subject+"@example.com", "Test User")
	require.NoError(t, err)
	return user
}

func strptr(s string) *string { return &s }

func TestUpsertMovieRefreshesExistingRow(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	movie := types.Movie{ID: 603, Title: "The Matrix", VoteAverage: 8.1}
	require.NoError(t, UpsertMovie(ctx, db, movie))

	// A second write with the same catalog id updates in place.
	movie.VoteAverage = 8.2
	movie.Genres = []string{"Action", "Science Fiction"}
	require.NoError(t, UpsertMovie(ctx, db, movie))

	got, err := GetMovie(ctx, db, 603)
	require.NoError(t, err)
	assert.Equal(t, 8.2, got.VoteAverage)
	assert.Equal(t, []string{"Action", "Science Fiction"}, got.Genres)
}

func TestGetMovieNotFound(t *testing.T) {
	db := testDB(t)
	_, err := GetMovie(context.Background(), db, 12345)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestInsertWatchlistEntry(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := testUser(t, db, "auth0|1")

	require.NoError(t, UpsertMovie(ctx, db, types.Movie{ID: 603, Title: "The Matrix"}))

	entry, err := InsertWatchlistEntry(ctx, db, user.ID, 603)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.AddedAt.IsZero())
	assert.False(t, entry.Watched)
	assert.Nil(t, entry.Rating)
	assert.Nil(t, entry.Notes)

	// The same pair conflicts.
	_, err = InsertWatchlistEntry(ctx, db, user.ID, 603)
	require.ErrorIs(t, err, types.ErrAlreadyExists)

	// A different user can hold the same movie.
	other := testUser(t, db, "auth0|2")
	_, err = InsertWatchlistEntry(ctx, db, other.ID, 603)
	require.NoError(t, err)
}

func TestUniqueViolationMapsToAlreadyExists(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := testUser(t, db, "auth0|1")

	require.NoError(t, UpsertMovie(ctx, db, types.Movie{ID: 603, Title: "The Matrix"}))
	_, err := InsertWatchlistEntry(ctx, db, user.ID, 603)
	require.NoError(t, err)

	// Drive the raw insert straight into the UNIQUE constraint, the way a
	// concurrent add that slipped past the existence check would.
	_, err = db.Exec("INSERT INTO user_watchlists (user_id, movie_id, added_at, watched) VALUES (?, ?, CURRENT_TIMESTAMP, 0)",
		user.ID, 603)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), "constraint violation must be recognized as a duplicate")
	assert.False(t, isUniqueViolation(context.Canceled))
}

func TestDeleteWatchlistEntryScopedToUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	alice := testUser(t, db, "auth0|alice")
	bob := testUser(t, db, "auth0|bob")

	require.NoError(t, UpsertMovie(ctx, db, types.Movie{ID: 603, Title: "The Matrix"}))
	_, err := InsertWatchlistEntry(ctx, db, alice.ID, 603)
	require.NoError(t, err)
	_, err = InsertWatchlistEntry(ctx, db, bob.ID, 603)
	require.NoError(t, err)

	require.NoError(t, DeleteWatchlistEntry(ctx, db, alice.ID, 603))

	aliceList, err := ListWatchlist(ctx, db, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, aliceList)

	bobList, err := ListWatchlist(ctx, db, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobList, 1, "deleting one user's entry must not touch another's")
}

func TestListWatchlistOrderAndJoin(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := testUser(t, db, "auth0|1")

	require.NoError(t, UpsertMovie(ctx, db, types.Movie{
		ID: 603, Title: "The Matrix", ReleaseDate: strptr("1999-03-31"),
		Genres: []string{"Action"},
	}))
	require.NoError(t, UpsertMovie(ctx, db, types.Movie{ID: 550, Title: "Fight Club"}))

	first, err := InsertWatchlistEntry(ctx, db, user.ID, 603)
	require.NoError(t, err)
	second, err := InsertWatchlistEntry(ctx, db, user.ID, 550)
	require.NoError(t, err)

	entries, err := ListWatchlist(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first, with the entry id as tiebreak for equal timestamps.
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)

	assert.Equal(t, "Fight Club", entries[0].Movie.Title)
	assert.Equal(t, "The Matrix", entries[1].Movie.Title)
	require.NotNil(t, entries[1].Movie.ReleaseDate)
	assert.Equal(t, "1999-03-31", *entries[1].Movie.ReleaseDate)
	assert.Equal(t, []string{"Action"}, entries[1].Movie.Genres)
}

func TestListWatchlistSkipsOrphanedEntries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := testUser(t, db, "auth0|1")

	require.NoError(t, UpsertMovie(ctx, db, types.Movie{ID: 603, Title: "The Matrix"}))
	_, err := InsertWatchlistEntry(ctx, db, user.ID, 603)
	require.NoError(t, err)

	// Simulate a prior partial failure: an entry whose movie row is gone.
	// Foreign keys are switched off for the seed since a live write path
	// could never produce this row directly.
	_, err = db.Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO user_watchlists (user_id, movie_id, added_at, watched) VALUES (?, ?, CURRENT_TIMESTAMP, 0)",
		user.ID, 999999)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	entries, err := ListWatchlist(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1, "orphaned entries are skipped, not fatal")
	assert.Equal(t, 603, entries[0].MovieID)
}

func TestWatchlistEntryUpdates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := testUser(t, db, "auth0|1")

	require.NoError(t, UpsertMovie(ctx, db, types.Movie{ID: 603, Title: "The Matrix"}))
	_, err := InsertWatchlistEntry(ctx, db, user.ID, 603)
	require.NoError(t, err)

	require.NoError(t, SetWatchlistWatched(ctx, db, user.ID, 603, true))
	rating := 9
	require.NoError(t, SetWatchlistRating(ctx, db, user.ID, 603, &rating))
	notes := "rewatch soon"
	require.NoError(t, SetWatchlistNotes(ctx, db, user.ID, 603, &notes))

	entries, err := ListWatchlist(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Watched)
	require.NotNil(t, entries[0].Rating)
	assert.Equal(t, 9, *entries[0].Rating)
	require.NotNil(t, entries[0].Notes)
	assert.Equal(t, "rewatch soon", *entries[0].Notes)

	// Clearing works through nil.
	require.NoError(t, SetWatchlistRating(ctx, db, user.ID, 603, nil))
	entries, err = ListWatchlist(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Nil(t, entries[0].Rating)

	// Updating a missing entry is not found.
	err = SetWatchlistWatched(ctx, db, user.ID, 550, true)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetOrCreateUserUpdatesChangedClaims(t *testing.T) {
	db := testDB(t)

	created, err := GetOrCreateUser(db, "auth0|1", "old@example.com", "Old Name")
	require.NoError(t, err)

	updated, err := GetOrCreateUser(db, "auth0|1", "new@example.com", "New Name")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "New Name", updated.Name)
}

func TestProfileLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	user := testUser(t, db, "auth0|1")

	_, err := GetProfile(ctx, db, user.ID)
	require.ErrorIs(t, err, types.ErrNotFound, "profiles are created on first save")

	profile := types.Profile{
		UserID:         user.ID,
		Username:       strptr("moviefan"),
		FavoriteGenres: []string{"Horror", "Drama"},
		PrivacyLevel:   types.PrivacyPublic,
	}
	require.NoError(t, SaveProfile(ctx, db, profile))

	got, err := GetProfile(ctx, db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Username)
	assert.Equal(t, "moviefan", *got.Username)
	assert.Equal(t, []string{"Horror", "Drama"}, got.FavoriteGenres)

	// Saving again replaces the row.
	profile.Username = strptr("cinephile")
	profile.PrivacyLevel = types.PrivacyPrivate
	require.NoError(t, SaveProfile(ctx, db, profile))

	got, err = GetProfile(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cinephile", *got.Username)
	assert.Equal(t, types.PrivacyPrivate, got.PrivacyLevel)
}
