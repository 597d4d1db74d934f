package services

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"movienote/internal/types"
)

// SortOption is a catalog result ordering, parsed from "key.direction"
// strings such as "popularity.desc" or "alphabet.asc".
type SortOption struct {
	Key       string
	Ascending bool
}

const (
	SortPopularity  = "popularity"
	SortVoteAverage = "vote_average"
	SortReleaseDate = "release_date"
	SortAlphabet    = "alphabet"
)

// DefaultSort is applied when the caller passes no or an unknown option.
var DefaultSort = SortOption{Key: SortPopularity, Ascending: false}

// ParseSortOption parses a "key.direction" string. Unknown keys or
// directions fall back to the default ordering.
func ParseSortOption(s string) SortOption {
	key, dir, found := strings.Cut(s, ".")
	if !found {
		return DefaultSort
	}
	switch key {
	case SortPopularity, SortVoteAverage, SortReleaseDate, SortAlphabet:
	default:
		return DefaultSort
	}
	switch dir {
	case "asc":
		return SortOption{Key: key, Ascending: true}
	case "desc":
		return SortOption{Key: key, Ascending: false}
	}
	return DefaultSort
}

// SortMovies returns a sorted copy of a fetched result set. It is purely
// local: membership never changes, only order, and sorting twice with the
// same option yields the same order.
func SortMovies(movies []types.Movie, option SortOption) []types.Movie {
	sorted := make([]types.Movie, len(movies))
	copy(sorted, movies)

	less := func(a, b types.Movie) bool {
		switch option.Key {
		case SortVoteAverage:
			if a.VoteAverage != b.VoteAverage {
				return a.VoteAverage < b.VoteAverage
			}
		case SortReleaseDate:
			ad, bd := releaseDateValue(a), releaseDateValue(b)
			if ad != bd {
				return ad < bd
			}
		case SortAlphabet:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		default: // popularity
			if a.Popularity != b.Popularity {
				return a.Popularity < b.Popularity
			}
		}
		// Stable tiebreak on id so repeated sorts are deterministic.
		return a.ID < b.ID
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if option.Ascending {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})

	return sorted
}

// releaseDateValue gives missing dates a value that sorts before every real
// date, so unknown releases group together instead of interleaving.
func releaseDateValue(m types.Movie) string {
	if m.ReleaseDate == nil {
		return ""
	}
	return *m.ReleaseDate
}

// MovieSearch wraps the catalog client for the view layer: it never returns
// an error, only an empty result set with the failure logged.
type MovieSearch struct {
	client *TMDBClient
	logger *log.Logger
}

func NewMovieSearch(client *TMDBClient, logger *log.Logger) *MovieSearch {
	return &MovieSearch{
		client: client,
		logger: logger.With("component", "search"),
	}
}

// Search queries the catalog and returns results in the requested order. An
// empty or whitespace-only query is a no-op. A network failure yields an
// empty result set plus a logged error, never an error visible to the view
// layer.
func (s *MovieSearch) Search(ctx context.Context, query string, option SortOption) []types.Movie {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	resp, err := s.client.SearchMovies(ctx, query, 1)
	if err != nil {
		s.logger.Warn("movie search failed", "query", query, "err", err)
		return nil
	}

	movies := make([]types.Movie, len(resp.Results))
	for i, result := range resp.Results {
		movies[i] = result.ToMovie()
	}

	return SortMovies(movies, option)
}

// Trending returns the homepage feed: a prefix of the weekly trending list.
func (s *MovieSearch) Trending(ctx context.Context, limit int) []types.Movie {
	resp, err := s.client.GetTrendingMovies(ctx, "week")
	if err != nil {
		s.logger.Warn("trending fetch failed", "err", err)
		return nil
	}

	results := resp.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	movies := make([]types.Movie, len(results))
	for i, result := range results {
		movies[i] = result.ToMovie()
	}
	return movies
}
