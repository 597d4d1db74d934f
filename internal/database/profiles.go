package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"movienote/internal/types"
)

// GetProfile returns the profile row for a user, or types.ErrNotFound when
// the user never saved one. Profiles are created lazily: there is no implicit
// row per user.
func GetProfile(ctx context.Context, db *sql.DB, userID int) (*types.Profile, error) {
	var profile types.Profile
	var genres sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT user_id, username, display_name, avatar_url, bio, favorite_genres,
			location, website, birth_date, privacy_level, updated_at
		FROM user_profiles
		WHERE user_id = ?
	`, userID).Scan(&profile.UserID, &profile.Username, &profile.DisplayName,
		&profile.AvatarURL, &profile.Bio, &genres, &profile.Location,
		&profile.Website, &profile.BirthDate, &profile.PrivacyLevel, &profile.Updated)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile for user %d: %w", userID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if genres.Valid {
		var names []string
		if err := json.Unmarshal([]byte(genres.String), &names); err == nil {
			profile.FavoriteGenres = names
		}
	}

	return &profile, nil
}

// SaveProfile creates or replaces the profile row for a user. Only the owning
// user may write its row; the caller is responsible for passing its own id.
func SaveProfile(ctx context.Context, db *sql.DB, profile types.Profile) error {
	var genres *string
	if len(profile.FavoriteGenres) > 0 {
		encoded, err := json.Marshal(profile.FavoriteGenres)
		if err != nil {
			return fmt.Errorf("failed to encode favorite genres: %w", err)
		}
		s := string(encoded)
		genres = &s
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, username, display_name, avatar_url, bio,
			favorite_genres, location, website, birth_date, privacy_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			bio = excluded.bio,
			favorite_genres = excluded.favorite_genres,
			location = excluded.location,
			website = excluded.website,
			birth_date = excluded.birth_date,
			privacy_level = excluded.privacy_level,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.Username, profile.DisplayName, profile.AvatarURL,
		profile.Bio, genres, profile.Location, profile.Website, profile.BirthDate,
		profile.PrivacyLevel, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
