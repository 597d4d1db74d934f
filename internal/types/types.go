package types

import "time"

// Movie is a catalog record. The ID is assigned by the movie catalog and is
// stable across the catalog and our own store. Optional fields stay nil when
// the catalog response omitted them; defaulting happens at the ingestion
// boundary, not in callers.
type Movie struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	OriginalLanguage string   `json:"original_language"`
	Overview         string   `json:"overview"`
	ReleaseDate      *string  `json:"release_date"` // YYYY-MM-DD
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Runtime          *int     `json:"runtime"`
	Genres           []string `json:"genres"`
	Adult            bool     `json:"adult"`
	Popularity       float64  `json:"popularity"`
}

// ReleaseYear returns the release year, or 0 when the date is unknown.
func (m Movie) ReleaseYear() int {
	if m.ReleaseDate == nil || len(*m.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, c := range (*m.ReleaseDate)[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

// WatchlistEntry is one user's record of interest in a movie. The entry ID
// and added timestamp are assigned by the store, never locally.
type WatchlistEntry struct {
	ID      int64     `json:"id"`
	UserID  int       `json:"user_id"`
	MovieID int       `json:"movie_id"`
	Movie   Movie     `json:"movie"`
	AddedAt time.Time `json:"added_at"`
	Watched bool      `json:"watched"`
	Rating  *int      `json:"rating"`
	Notes   *string   `json:"notes"`
}

// User is our row for an authenticated identity, keyed by the auth provider
// subject.
type User struct {
	ID        int       `json:"id"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
	Created   time.Time `json:"created_at"`
}

// Session is the currently authenticated identity as reported by the hosted
// auth service.
type Session struct {
	UserID    int       `json:"user_id"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Privacy levels for a profile.
const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
	PrivacyPrivate = "private"
)

// Profile holds a user's optional profile fields. A row is created lazily on
// first save; there is no implicit row per user.
type Profile struct {
	UserID         int       `json:"user_id"`
	Username       *string   `json:"username"`
	DisplayName    *string   `json:"display_name"`
	AvatarURL      *string   `json:"avatar_url"`
	Bio            *string   `json:"bio"`
	FavoriteGenres []string  `json:"favorite_genres"`
	Location       *string   `json:"location"`
	Website        *string   `json:"website"`
	BirthDate      *string   `json:"birth_date"`
	PrivacyLevel   string    `json:"privacy_level"`
	Updated        time.Time `json:"updated_at"`
}

// Preferences is the per-user settings row, created with defaults on first
// read.
type Preferences struct {
	ID       int       `json:"id"`
	UserID   int       `json:"user_id"`
	DarkMode bool      `json:"dark_mode"`
	Created  time.Time `json:"created_at"`
	Updated  time.Time `json:"updated_at"`
}

// Request types.

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SetWatchedRequest struct {
	Watched bool `json:"watched"`
}

type RateMovieRequest struct {
	Rating int `json:"rating"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type UpdatePreferencesRequest struct {
	DarkMode bool `json:"darkMode"`
}

type SaveProfileRequest struct {
	Username       string   `json:"username" validate:"omitempty,max=30"`
	DisplayName    string   `json:"display_name" validate:"omitempty,max=50"`
	AvatarURL      string   `json:"avatar_url" validate:"omitempty,url"`
	Bio            string   `json:"bio" validate:"omitempty,max=500"`
	FavoriteGenres []string `json:"favorite_genres" validate:"max=5"`
	Location       string   `json:"location" validate:"omitempty,max=100"`
	Website        string   `json:"website" validate:"omitempty,url"`
	BirthDate      string   `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	PrivacyLevel   string   `json:"privacy_level" validate:"required,oneof=public friends private"`
}
