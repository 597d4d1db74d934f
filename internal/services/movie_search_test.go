package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"

	"movienote/internal/types"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr)
}

func strptr(s string) *string {
	return &s
}

func sampleMovies() []types.Movie {
	return []types.Movie{
		{ID: 603, Title: "The Matrix", ReleaseDate: strptr("1999-03-31"), VoteAverage: 8.2, Popularity: 80},
		{ID: 550, Title: "Fight Club", ReleaseDate: strptr("1999-10-15"), VoteAverage: 8.4, Popularity: 61},
		{ID: 27205, Title: "Inception", ReleaseDate: strptr("2010-07-16"), VoteAverage: 8.3, Popularity: 90},
		{ID: 99999, Title: "Lost Reel", VoteAverage: 5.0, Popularity: 90},
	}
}

func ids(movies []types.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func equalInts(a, b []int) bool {
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

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		in   string
		want SortOption
	}{
		{"popularity.desc", SortOption{SortPopularity, false}},
		{"vote_average.asc", SortOption{SortVoteAverage, true}},
		{"release_date.desc", SortOption{SortReleaseDate, false}},
		{"alphabet.asc", SortOption{SortAlphabet, true}},
		{"", DefaultSort},
		{"popularity", DefaultSort},
		{"bogus.asc", DefaultSort},
		{"popularity.sideways", DefaultSort},
	}
	for _, tt := range tests {
		if got := ParseSortOption(tt.in); got != tt.want {
			t.Errorf("ParseSortOption(%q) = %+v; want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSortMoviesAlphabet(t *testing.T) {
	got := SortMovies(sampleMovies(), SortOption{SortAlphabet, true})
	want := []int{550, 27205, 99999, 603}
	if !equalInts(ids(got), want) {
		t.Errorf("alphabet.asc = %v; want %v", ids(got), want)
	}
}

func TestSortMoviesVoteAverage(t *testing.T) {
	got := SortMovies(sampleMovies(), SortOption{SortVoteAverage, false})
	want := []int{550, 27205, 603, 99999}
	if !equalInts(ids(got), want) {
		t.Errorf("vote_average.desc = %v; want %v", ids(got), want)
	}
}

func TestSortMoviesReleaseDate(t *testing.T) {
	// A missing date sorts before every real date.
	got := SortMovies(sampleMovies(), SortOption{SortReleaseDate, true})
	want := []int{99999, 603, 550, 27205}
	if !equalInts(ids(got), want) {
		t.Errorf("release_date.asc = %v; want %v", ids(got), want)
	}
}

func TestSortMoviesPopularityTiebreak(t *testing.T) {
	// 27205 and 99999 share popularity 90; descending order puts the higher
	// id first via the tiebreak.
	got := SortMovies(sampleMovies(), SortOption{SortPopularity, false})
	want := []int{99999, 27205, 603, 550}
	if !equalInts(ids(got), want) {
		t.Errorf("popularity.desc = %v; want %v", ids(got), want)
	}
}

func TestSortMoviesPure(t *testing.T) {
	movies := sampleMovies()
	before := ids(movies)
	SortMovies(movies, SortOption{SortAlphabet, true})
	if !equalInts(ids(movies), before) {
		t.Error("SortMovies mutated its input")
	}

	once := SortMovies(movies, SortOption{SortVoteAverage, false})
	twice := SortMovies(once, SortOption{SortVoteAverage, false})
	if !equalInts(ids(once), ids(twice)) {
		t.Errorf("sorting twice changed the order: %v vs %v", ids(once), ids(twice))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewTMDBClient("test-key")
	client.BaseURL = server.URL
	search := NewMovieSearch(client, testLogger())

	if got := search.Search(context.Background(), "   ", DefaultSort); got != nil {
		t.Errorf("whitespace query returned %v; want nil", got)
	}
	if calls != 0 {
		t.Errorf("empty query hit the catalog %d times; want 0", calls)
	}
}

func TestSearchRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewTMDBClient("test-key")
	client.BaseURL = server.URL
	search := NewMovieSearch(client, testLogger())

	if got := search.Search(context.Background(), "matrix", DefaultSort); len(got) != 0 {
		t.Errorf("failed search returned %v; want empty", got)
	}
}

func TestSearchReturnsSorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "matrix" {
			t.Errorf("query param = %q; want matrix", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 604, "title": "The Matrix Reloaded", "popularity": 40},
				{"id": 603, "title": "The Matrix", "popularity": 80}
			],
			"total_pages": 1,
			"total_results": 2
		}`))
	}))
	defer server.Close()

	client := NewTMDBClient("test-key")
	client.BaseURL = server.URL
	search := NewMovieSearch(client, testLogger())

	got := search.Search(context.Background(), "matrix", SortOption{SortPopularity, false})
	want := []int{603, 604}
	if !equalInts(ids(got), want) {
		t.Errorf("search results = %v; want %v", ids(got), want)
	}
}

func TestTrendingPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/movie/week" {
			t.Errorf("path = %q; want /trending/movie/week", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 1, "title": "A"}, {"id": 2, "title": "B"}, {"id": 3, "title": "C"},
				{"id": 4, "title": "D"}, {"id": 5, "title": "E"}, {"id": 6, "title": "F"},
				{"id": 7, "title": "G"}, {"id": 8, "title": "H"}, {"id": 9, "title": "I"},
				{"id": 10, "title": "J"}
			],
			"total_pages": 1,
			"total_results": 10
		}`))
	}))
	defer server.Close()

	client := NewTMDBClient("test-key")
	client.BaseURL = server.URL
	search := NewMovieSearch(client, testLogger())

	got := search.Trending(context.Background(), 8)
	if len(got) != 8 {
		t.Fatalf("trending returned %d movies; want 8", len(got))
	}
	if got[0].ID != 1 || got[7].ID != 8 {
		t.Errorf("trending should be the ordered prefix, got first=%d last=%d", got[0].ID, got[7].ID)
	}
}

func TestToMovieDefaulting(t *testing.T) {
	raw := TMDBMovie{ID: 1, Title: "X", ReleaseDate: "", PosterPath: strptr("")}
	m := raw.ToMovie()
	if m.ReleaseDate != nil {
		t.Error("empty release date should become nil")
	}
	if m.PosterPath != nil {
		t.Error("empty poster path should become nil")
	}
}
