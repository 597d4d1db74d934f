package watchlist

import (
	"testing"
	"time"

	"movienote/internal/types"
)

func entry(id int64, movieID int, title, released string, vote float64, watched bool) types.WatchlistEntry {
	e := types.WatchlistEntry{
		ID:      id,
		MovieID: movieID,
		Watched: watched,
		AddedAt: time.Unix(int64(1700000000)+id, 0),
		Movie: types.Movie{
			ID:          movieID,
			Title:       title,
			VoteAverage: vote,
		},
	}
	if released != "" {
		e.Movie.ReleaseDate = &released
	}
	return e
}

func testEntries() []types.WatchlistEntry {
	return []types.WatchlistEntry{
		entry(1, 603, "The Matrix", "1999-03-31", 8.2, true),
		entry(2, 550, "Fight Club", "1999-10-15", 8.4, false),
		entry(3, 27205, "Inception", "2010-07-16", 8.3, true),
		entry(4, 505642, "Dune: Part Two", "2024-02-27", 8.2, false),
		entry(5, 99999, "Lost Reel", "", 5.0, false),
	}
}

func movieIDs(entries []types.WatchlistEntry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.MovieID
	}
	return ids
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterAll(t *testing.T) {
	entries := testEntries()
	got := FilterAll.Apply(entries)
	if !equalIDs(movieIDs(got), movieIDs(entries)) {
		t.Errorf("FilterAll changed membership or order: %v", movieIDs(got))
	}
}

func TestFilterRatedAbove(t *testing.T) {
	got := FilterRatedAbove.Apply(testEntries())
	want := []int{603, 550, 27205, 505642}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("FilterRatedAbove = %v; want %v", movieIDs(got), want)
	}
}

func TestFilterReleasedAfter(t *testing.T) {
	got := FilterReleasedAfter.Apply(testEntries())
	want := []int{505642}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("FilterReleasedAfter = %v; want %v", movieIDs(got), want)
	}
}

func TestFilterReleasedAfterIncludesBoundaryYear(t *testing.T) {
	entries := []types.WatchlistEntry{
		entry(1, 577922, "Tenet", "2020-08-22", 7.3, false),
		entry(2, 27205, "Inception", "2010-07-16", 8.3, true),
	}
	got := FilterReleasedAfter.Apply(entries)
	want := []int{577922}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("FilterReleasedAfter = %v; want %v (2020 releases are recent)", movieIDs(got), want)
	}
}

func TestFilterReleasedBefore(t *testing.T) {
	// The entry with no release date must not match a year filter.
	got := FilterReleasedBefore.Apply(testEntries())
	want := []int{603, 550}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("FilterReleasedBefore = %v; want %v", movieIDs(got), want)
	}
}

func TestFilterWatched(t *testing.T) {
	got := FilterWatched.Apply(testEntries())
	want := []int{603, 27205}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("FilterWatched = %v; want %v", movieIDs(got), want)
	}

	got = FilterUnwatched.Apply(testEntries())
	want = []int{550, 505642, 99999}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("FilterUnwatched = %v; want %v", movieIDs(got), want)
	}
}

func TestFilterPreservesInput(t *testing.T) {
	entries := testEntries()
	FilterWatched.Apply(entries)
	if !equalIDs(movieIDs(entries), movieIDs(testEntries())) {
		t.Error("filter mutated its input")
	}
}

func TestParseFilter(t *testing.T) {
	if ParseFilter("watched") != FilterWatched {
		t.Error("ParseFilter(watched) should map to the watched filter")
	}
	if ParseFilter("") != FilterAll {
		t.Error("ParseFilter() should default to all")
	}
	if ParseFilter("bogus") != FilterAll {
		t.Error("ParseFilter(bogus) should default to all")
	}
}

func TestSortTitle(t *testing.T) {
	got := SortTitle.Apply(testEntries())
	want := []int{505642, 550, 27205, 99999, 603}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("SortTitle = %v; want %v", movieIDs(got), want)
	}
}

func TestSortRating(t *testing.T) {
	got := SortRating.Apply(testEntries())
	// Equal vote averages fall back to the higher entry id first.
	want := []int{550, 27205, 505642, 603, 99999}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("SortRating = %v; want %v", movieIDs(got), want)
	}
}

func TestSortRelease(t *testing.T) {
	got := SortRelease.Apply(testEntries())
	want := []int{505642, 27205, 550, 603, 99999}
	if !equalIDs(movieIDs(got), want) {
		t.Errorf("SortRelease = %v; want %v", movieIDs(got), want)
	}
}

func TestSortIdempotent(t *testing.T) {
	once := SortTitle.Apply(testEntries())
	twice := SortTitle.Apply(once)
	if !equalIDs(movieIDs(once), movieIDs(twice)) {
		t.Errorf("sorting twice changed the order: %v vs %v", movieIDs(once), movieIDs(twice))
	}
}

func TestSortPreservesMembership(t *testing.T) {
	entries := testEntries()
	got := SortRating.Apply(entries)
	if len(got) != len(entries) {
		t.Fatalf("sort changed membership: %d entries, want %d", len(got), len(entries))
	}
	seen := make(map[int]bool)
	for _, e := range got {
		seen[e.MovieID] = true
	}
	for _, e := range entries {
		if !seen[e.MovieID] {
			t.Errorf("sort dropped movie %d", e.MovieID)
		}
	}
}
