package watchlist

import (
	"sort"

	"movienote/internal/types"
)

// Filter names a predicate over watchlist entries. Filters are pure: they
// return a new slice and never reorder or mutate what they keep.
type Filter string

const (
	FilterAll            Filter = "all"
	FilterRatedAbove     Filter = "rated-above"
	FilterReleasedAfter  Filter = "released-after"
	FilterReleasedBefore Filter = "released-before"
	FilterWatched        Filter = "watched"
	FilterUnwatched      Filter = "unwatched"
)

// Cutoffs for the canned filters.
const (
	ratedAboveThreshold = 7.0
	releasedAfterYear   = 2020
	releasedBeforeYear  = 2000
)

// ParseFilter maps a query value to a filter, defaulting to all.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterRatedAbove, FilterReleasedAfter, FilterReleasedBefore,
		FilterWatched, FilterUnwatched:
		return Filter(s)
	}
	return FilterAll
}

// Apply returns the entries matching the filter, preserving their order.
// Entries with an unknown release year never match the year filters.
func (f Filter) Apply(entries []types.WatchlistEntry) []types.WatchlistEntry {
	if f == FilterAll {
		out := make([]types.WatchlistEntry, len(entries))
		copy(out, entries)
		return out
	}

	out := make([]types.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) matches(e types.WatchlistEntry) bool {
	switch f {
	case FilterRatedAbove:
		return e.Movie.VoteAverage >= ratedAboveThreshold
	case FilterReleasedAfter:
		// The cutoff is the start of 2020, so 2020 releases count as recent.
		year := e.Movie.ReleaseYear()
		return year >= releasedAfterYear
	case FilterReleasedBefore:
		year := e.Movie.ReleaseYear()
		return year != 0 && year < releasedBeforeYear
	case FilterWatched:
		return e.Watched
	case FilterUnwatched:
		return !e.Watched
	}
	return true
}

// Sort names an ordering over watchlist entries.
type Sort string

const (
	SortAdded   Sort = "added"   // newest first, the store's order
	SortTitle   Sort = "title"   // alphabetical
	SortRating  Sort = "rating"  // catalog vote average, highest first
	SortRelease Sort = "release" // release date, newest first
)

// ParseSort maps a query value to an ordering, defaulting to added.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortTitle, SortRating, SortRelease:
		return Sort(s)
	}
	return SortAdded
}

// Apply returns the entries in the requested order. Sorting is stable with an
// entry-id tiebreak, so repeated applications yield identical order.
func (o Sort) Apply(entries []types.WatchlistEntry) []types.WatchlistEntry {
	out := make([]types.WatchlistEntry, len(entries))
	copy(out, entries)

	less := func(a, b types.WatchlistEntry) bool {
		switch o {
		case SortTitle:
			if a.Movie.Title != b.Movie.Title {
				return a.Movie.Title < b.Movie.Title
			}
		case SortRating:
			if a.Movie.VoteAverage != b.Movie.VoteAverage {
				return a.Movie.VoteAverage > b.Movie.VoteAverage
			}
		case SortRelease:
			ad, bd := releaseDate(a), releaseDate(b)
			if ad != bd {
				return ad > bd
			}
		default: // added
			if !a.AddedAt.Equal(b.AddedAt) {
				return a.AddedAt.After(b.AddedAt)
			}
		}
		return a.ID > b.ID
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func releaseDate(e types.WatchlistEntry) string {
	if e.Movie.ReleaseDate == nil {
		return ""
	}
	return *e.Movie.ReleaseDate
}
